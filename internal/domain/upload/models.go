package upload

import (
	"errors"
	"time"
)

var ErrUploadNotFound = errors.New("uploaded file not found")

// Status of an uploaded statement file. Pending uploads are in flight;
// imported and failed are terminal and never mutated afterwards.
type Status string

const (
	StatusPending  Status = "pending"
	StatusImported Status = "imported"
	StatusFailed   Status = "failed"
)

// UploadedFile records one statement upload: the stored file, its content
// hash for whole-file duplicate detection, and import statistics once the
// import finishes.
type UploadedFile struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"userId"`
	Filename         string     `json:"filename"` // name on disk, uuid-prefixed
	OriginalFilename string     `json:"originalFilename"`
	Size             int64      `json:"size"`
	Hash             string     `json:"hash"` // SHA-256 of the file content, hex
	Status           Status     `json:"status"`
	TransactionCount int        `json:"transactionCount"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	UploadedAt       time.Time  `json:"uploadedAt"`
}

// CreateParams holds the fields known at upload time.
type CreateParams struct {
	UserID           int64
	Filename         string
	OriginalFilename string
	Size             int64
	Hash             string
}

// Stats carries the figures written when an import completes.
type Stats struct {
	TransactionCount int
	StartDate        *time.Time
	EndDate          *time.Time
}
