package ofximport

import (
	"fmt"
	"time"
)

// DuplicateFileError is returned when the exact same file bytes were
// already uploaded by this user. UploadedAt is the timestamp of the
// original upload, surfaced so the caller can show it.
type DuplicateFileError struct {
	UploadedAt time.Time
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("this file was already imported on %s", e.UploadedAt.Format("2006-01-02 15:04:05"))
}

// PersistenceError wraps a storage failure during the import batch. The
// whole batch is rolled back before it is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist import batch: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
