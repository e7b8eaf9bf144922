package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"grana/internal/domain/category"
	"grana/internal/domain/ofximport"
	"grana/internal/domain/transaction"
)

// ImportStore opens one database transaction per import batch, so every
// row an import writes commits or rolls back together.
type ImportStore struct {
	db *DB
}

func NewImportStore(db *DB) *ImportStore {
	return &ImportStore{db: db}
}

func (s *ImportStore) InTransaction(ctx context.Context, fn func(tx ofximport.BatchStore) error) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&importBatch{tx: tx})
	})
}

// importBatch implements ofximport.BatchStore over an open *sql.Tx.
type importBatch struct {
	tx *sql.Tx
}

func (b *importBatch) TransactionExists(ctx context.Context, userID int64, externalID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE user_id = $1 AND external_id = $2)`

	var exists bool
	if err := b.tx.QueryRowContext(ctx, query, userID, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check external id: %w", err)
	}
	return exists, nil
}

func (b *importBatch) InsertTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	return insertTransaction(ctx, txQuerier{b.tx}, params)
}

func (b *importBatch) SetTransactionCategory(ctx context.Context, id, categoryID int64) error {
	result, err := b.tx.ExecContext(ctx, `UPDATE transactions SET category_id = $2 WHERE id = $1`, id, categoryID)
	if err != nil {
		return fmt.Errorf("failed to set transaction category: %w", err)
	}
	return requireRow(result, transaction.ErrTransactionNotFound)
}

func (b *importBatch) ListRules(ctx context.Context, userID int64) ([]category.Rule, error) {
	return listRules(ctx, b.tx, userID)
}
