// Package ofximport orchestrates statement imports: save file, reject
// duplicate uploads, parse, deduplicate records, persist and categorize —
// all new transactions of one import commit or roll back together.
package ofximport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"grana/internal/domain/category"
	"grana/internal/domain/statement"
	"grana/internal/domain/transaction"
	"grana/internal/domain/upload"
)

// StoredFile describes a statement file persisted by a FileStore.
type StoredFile struct {
	Name string // stored name, unique per user
	Size int64
	Hash string // SHA-256 hex digest of the content
}

// FileStore persists raw uploaded statement files.
type FileStore interface {
	Save(userID int64, originalName string, r io.Reader) (*StoredFile, error)
	Open(userID int64, storedName string) (io.ReadCloser, error)
	Remove(userID int64, storedName string) error
}

// BatchStore is the transactional scope one import batch runs in. All
// writes made through it commit or roll back together.
type BatchStore interface {
	// TransactionExists is the per-record deduplication gate, scoped to
	// the user.
	TransactionExists(ctx context.Context, userID int64, externalID string) (bool, error)
	InsertTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	SetTransactionCategory(ctx context.Context, id, categoryID int64) error
	// ListRules returns the user's category rules in the engine's
	// documented stable order.
	ListRules(ctx context.Context, userID int64) ([]category.Rule, error)
}

// Store opens transactional batch scopes.
type Store interface {
	InTransaction(ctx context.Context, fn func(tx BatchStore) error) error
}

// Result is the outcome of a successful import.
type Result struct {
	UploadID int64
	Imported int
}

// Service runs the statement import pipeline.
type Service struct {
	files   FileStore
	uploads upload.Repository
	store   Store
	log     zerolog.Logger
}

// NewService creates a new import service.
func NewService(files FileStore, uploads upload.Repository, store Store, log zerolog.Logger) *Service {
	return &Service{files: files, uploads: uploads, store: store, log: log}
}

// Import ingests one OFX statement for a user.
//
// The file is stored and hashed first; an exact re-upload is rejected with
// *DuplicateFileError before any parsing. The statement is then parsed in
// full, and every new record (per the external-id deduplication gate) is
// persisted and categorized in fill-gaps mode inside a single database
// transaction — on any failure the whole batch rolls back and the upload
// is marked failed. Records without an external id are always treated as
// new; sources that omit stable ids can therefore produce duplicates on
// re-import.
//
// Returns *statement.FormatError for unparseable content and
// *PersistenceError for storage failures.
func (s *Service) Import(ctx context.Context, userID int64, originalName string, r io.Reader) (*Result, error) {
	stored, err := s.files.Save(userID, originalName, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	existing, err := s.uploads.FindByHash(ctx, userID, stored.Hash)
	if err != nil && !errors.Is(err, upload.ErrUploadNotFound) {
		s.removeStored(userID, stored.Name)
		return nil, fmt.Errorf("failed to check for duplicate upload: %w", err)
	}
	if existing != nil {
		s.removeStored(userID, stored.Name)
		return nil, &DuplicateFileError{UploadedAt: existing.UploadedAt}
	}

	up, err := s.uploads.Create(ctx, upload.CreateParams{
		UserID:           userID,
		Filename:         stored.Name,
		OriginalFilename: originalName,
		Size:             stored.Size,
		Hash:             stored.Hash,
	})
	if err != nil {
		s.removeStored(userID, stored.Name)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	records, err := s.parseStatement(userID, stored.Name)
	if err != nil {
		s.markFailed(ctx, up.ID)
		return nil, err
	}

	imported := 0
	var minDate, maxDate *time.Time
	err = s.store.InTransaction(ctx, func(tx BatchStore) error {
		rules, err := tx.ListRules(ctx, userID)
		if err != nil {
			return err
		}

		for _, rec := range records {
			// No external id means no deduplication is possible;
			// the record is always treated as new.
			if rec.ExternalID != "" {
				exists, err := tx.TransactionExists(ctx, userID, rec.ExternalID)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
			}

			txn, err := tx.InsertTransaction(ctx, transaction.CreateParams{
				UserID:         userID,
				ExternalID:     rec.ExternalID,
				Date:           rec.Date,
				Amount:         rec.Amount,
				Description:    rec.Description(),
				SourceFilename: stored.Name,
			})
			if err != nil {
				return err
			}

			if categoryID, ok := transaction.Categorize(txn.Amount, txn.Description, rules); ok {
				if err := tx.SetTransactionCategory(ctx, txn.ID, categoryID); err != nil {
					return err
				}
			}

			imported++
			d := rec.Date
			if minDate == nil || d.Before(*minDate) {
				minDate = &d
			}
			if maxDate == nil || d.After(*maxDate) {
				maxDate = &d
			}
		}
		return nil
	})
	if err != nil {
		s.markFailed(ctx, up.ID)
		return nil, &PersistenceError{Err: err}
	}

	err = s.uploads.Finalize(ctx, up.ID, upload.Stats{
		TransactionCount: imported,
		StartDate:        minDate,
		EndDate:          maxDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("upload_id", up.ID).
		Str("file", originalName).
		Int("imported", imported).
		Msg("statement import completed")

	return &Result{UploadID: up.ID, Imported: imported}, nil
}

// parseStatement reads the stored file once and returns all of its
// records in file order.
func (s *Service) parseStatement(userID int64, storedName string) ([]*statement.Record, error) {
	f, err := s.files.Open(userID, storedName)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	defer f.Close()

	var records []*statement.Record
	reader := statement.NewReader(f)
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// removeStored deletes a stored file that never got a persisted upload
// row, so failed attempts do not leak files on disk.
func (s *Service) removeStored(userID int64, storedName string) {
	if err := s.files.Remove(userID, storedName); err != nil {
		s.log.Warn().Err(err).Str("file", storedName).Msg("failed to remove stored file")
	}
}

func (s *Service) markFailed(ctx context.Context, uploadID int64) {
	if err := s.uploads.MarkFailed(ctx, uploadID); err != nil {
		s.log.Error().Err(err).Int64("upload_id", uploadID).Msg("failed to mark upload as failed")
	}
}
