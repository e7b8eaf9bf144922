package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"grana/internal/domain/upload"
)

type UploadRepository struct {
	db *DB
}

func NewUploadRepository(db *DB) *UploadRepository {
	return &UploadRepository{db: db}
}

const uploadColumns = `id, user_id, filename, original_filename, size, hash, status,
	       transaction_count, start_date, end_date, uploaded_at`

func (r *UploadRepository) Create(ctx context.Context, params upload.CreateParams) (*upload.UploadedFile, error) {
	query := `
		INSERT INTO uploaded_files (user_id, filename, original_filename, size, hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + uploadColumns

	uf, err := scanUpload(r.db.QueryRowContext(ctx, query,
		params.UserID, params.Filename, params.OriginalFilename, params.Size, params.Hash,
		string(upload.StatusPending)))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload record: %w", err)
	}
	return uf, nil
}

// FindByHash ignores failed uploads so re-uploading a file whose import
// broke is not mistaken for a duplicate.
func (r *UploadRepository) FindByHash(ctx context.Context, userID int64, hash string) (*upload.UploadedFile, error) {
	query := `SELECT ` + uploadColumns + `
		FROM uploaded_files
		WHERE user_id = $1 AND hash = $2 AND status <> $3
		ORDER BY uploaded_at
		LIMIT 1`

	uf, err := scanUpload(r.db.QueryRowContext(ctx, query, userID, hash, string(upload.StatusFailed)))
	if err == sql.ErrNoRows {
		return nil, upload.ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find upload by hash: %w", err)
	}
	return uf, nil
}

func (r *UploadRepository) ListByUserID(ctx context.Context, userID int64) ([]*upload.UploadedFile, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploaded_files WHERE user_id = $1 ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*upload.UploadedFile
	for rows.Next() {
		uf, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, uf)
	}
	return uploads, rows.Err()
}

func (r *UploadRepository) Finalize(ctx context.Context, id int64, stats upload.Stats) error {
	query := `
		UPDATE uploaded_files
		SET status = $2, transaction_count = $3, start_date = $4, end_date = $5
		WHERE id = $1 AND status = $6`

	result, err := r.db.ExecContext(ctx, query,
		id, string(upload.StatusImported), stats.TransactionCount, stats.StartDate, stats.EndDate,
		string(upload.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to finalize upload: %w", err)
	}
	return requireRow(result, upload.ErrUploadNotFound)
}

func (r *UploadRepository) MarkFailed(ctx context.Context, id int64) error {
	query := `UPDATE uploaded_files SET status = $2 WHERE id = $1 AND status = $3`

	result, err := r.db.ExecContext(ctx, query,
		id, string(upload.StatusFailed), string(upload.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to mark upload as failed: %w", err)
	}
	return requireRow(result, upload.ErrUploadNotFound)
}

func scanUpload(row rowScanner) (*upload.UploadedFile, error) {
	var uf upload.UploadedFile
	var startDate, endDate sql.NullTime

	err := row.Scan(
		&uf.ID, &uf.UserID, &uf.Filename, &uf.OriginalFilename, &uf.Size, &uf.Hash, &uf.Status,
		&uf.TransactionCount, &startDate, &endDate, &uf.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	if startDate.Valid {
		uf.StartDate = &startDate.Time
	}
	if endDate.Valid {
		uf.EndDate = &endDate.Time
	}
	return &uf, nil
}
