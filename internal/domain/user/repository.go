package user

import (
	"context"
)

// Repository defines the interface for user data access.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListIDs(ctx context.Context) ([]int64, error)
}
