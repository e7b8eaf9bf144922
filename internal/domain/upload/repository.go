package upload

import (
	"context"
)

// Repository defines the interface for uploaded-file metadata access.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*UploadedFile, error)
	// FindByHash returns the user's upload with this content hash, or
	// ErrUploadNotFound. Used to reject exact file re-uploads before
	// parsing.
	FindByHash(ctx context.Context, userID int64, hash string) (*UploadedFile, error)
	ListByUserID(ctx context.Context, userID int64) ([]*UploadedFile, error)
	// Finalize moves a pending upload to StatusImported and records the
	// import statistics.
	Finalize(ctx context.Context, id int64, stats Stats) error
	// MarkFailed moves a pending upload to StatusFailed.
	MarkFailed(ctx context.Context, id int64) error
}
