package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"grana/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, external_id, transaction_date, amount, description,
	       category_id, reconciled, notes, source_filename, year, month, created_at`

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	return insertTransaction(ctx, dbQuerier{r.db}, params)
}

// insertTransaction is shared with the import batch store so inserts
// behave identically inside and outside an import transaction. Year and
// month are always derived from the date here, nowhere else.
func insertTransaction(ctx context.Context, q queryRower, params transaction.CreateParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, external_id, transaction_date, amount, description, source_filename, year, month)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns

	row := q.QueryRowContext(
		ctx, query,
		params.UserID, nullString(params.ExternalID), params.Date, params.Amount,
		params.Description, nullString(params.SourceFilename),
		params.Date.Year(), int(params.Date.Month()),
	)

	txn, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return txn, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (r *TransactionRepository) ExistsByExternalID(ctx context.Context, userID int64, externalID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE user_id = $1 AND external_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check external id: %w", err)
	}
	return exists, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, filter transaction.Filter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}

	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND month = $%d", len(args))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	query += " ORDER BY transaction_date DESC, id DESC"

	return r.list(ctx, query, args...)
}

func (r *TransactionRepository) ListUncategorized(ctx context.Context, userID int64) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND category_id IS NULL
		ORDER BY transaction_date, id`

	return r.list(ctx, query, userID)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) UpdateCategory(ctx context.Context, id int64, categoryID *int64) error {
	query := `UPDATE transactions SET category_id = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, categoryID)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}
	return requireRow(result, transaction.ErrTransactionNotFound)
}

func (r *TransactionRepository) UpdateNotes(ctx context.Context, id int64, notes string) error {
	query := `UPDATE transactions SET notes = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, nullString(notes))
	if err != nil {
		return fmt.Errorf("failed to update transaction notes: %w", err)
	}
	return requireRow(result, transaction.ErrTransactionNotFound)
}

func (r *TransactionRepository) SetReconciled(ctx context.Context, id int64, reconciled bool) error {
	query := `UPDATE transactions SET reconciled = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, reconciled)
	if err != nil {
		return fmt.Errorf("failed to update reconciliation flag: %w", err)
	}
	return requireRow(result, transaction.ErrTransactionNotFound)
}

func (r *TransactionRepository) MonthlySummary(ctx context.Context, userID int64, year int) ([]*transaction.MonthlySummary, error) {
	query := `
		SELECT year, month,
		       COALESCE(SUM(amount) FILTER (WHERE amount >= 0), 0) AS income,
		       COALESCE(SUM(amount) FILTER (WHERE amount < 0), 0) AS expense,
		       COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE user_id = $1 AND ($2 = 0 OR year = $2)
		GROUP BY year, month
		ORDER BY year, month`

	rows, err := r.db.QueryContext(ctx, query, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly summary: %w", err)
	}
	defer rows.Close()

	var summaries []*transaction.MonthlySummary
	for rows.Next() {
		var s transaction.MonthlySummary
		if err := rows.Scan(&s.Year, &s.Month, &s.Income, &s.Expense, &s.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func (r *TransactionRepository) CategorySummary(ctx context.Context, userID int64, year, month int) ([]*transaction.CategorySummary, error) {
	query := `
		SELECT c.id, COALESCE(c.name, ''), COALESCE(c.color, ''),
		       COALESCE(SUM(t.amount), 0) AS total,
		       COUNT(t.id) AS count
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		  AND ($2 = 0 OR t.year = $2)
		  AND ($3 = 0 OR t.month = $3)
		GROUP BY c.id, c.name, c.color
		ORDER BY ABS(COALESCE(SUM(t.amount), 0)) DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to build category summary: %w", err)
	}
	defer rows.Close()

	var summaries []*transaction.CategorySummary
	for rows.Next() {
		var s transaction.CategorySummary
		var categoryID sql.NullInt64
		if err := rows.Scan(&categoryID, &s.CategoryName, &s.Color, &s.Total, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		if categoryID.Valid {
			s.CategoryID = &categoryID.Int64
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// rowScanner covers *sql.Row, *sql.Rows and the traced row wrapper.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower lets single-row queries run against either the pooled DB or
// an open *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) rowScanner
}

// queryer is the multi-row counterpart; *DB and *sql.Tx satisfy it as-is.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type dbQuerier struct{ db *DB }

func (q dbQuerier) QueryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	return q.db.QueryRowContext(ctx, query, args...)
}

type txQuerier struct{ tx *sql.Tx }

func (q txQuerier) QueryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	return q.tx.QueryRowContext(ctx, query, args...)
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	var externalID, notes, sourceFilename sql.NullString
	var categoryID sql.NullInt64

	err := row.Scan(
		&txn.ID, &txn.UserID, &externalID, &txn.Date, &txn.Amount, &txn.Description,
		&categoryID, &txn.Reconciled, &notes, &sourceFilename,
		&txn.Year, &txn.Month, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.ExternalID = externalID.String
	txn.SourceFilename = sourceFilename.String
	if notes.Valid {
		txn.Notes = &notes.String
	}
	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	return &txn, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
