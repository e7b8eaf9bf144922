package transaction

import (
	"errors"
	"time"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("transaction does not belong to user")
)

// Transaction is one imported bank statement entry. The amount sign is the
// sole determinant of type: negative amounts are expenses, amounts >= 0
// (including zero) are income. Year and Month are always derived from Date
// at insert time; Date is immutable after import.
type Transaction struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	ExternalID     string    `json:"externalId,omitempty"` // bank-assigned id, empty when the source omits one
	Date           time.Time `json:"date"`
	Amount         float64   `json:"amount"`
	Description    string    `json:"description"`
	CategoryID     *int64    `json:"categoryId,omitempty"`
	Reconciled     bool      `json:"reconciled"`
	Notes          *string   `json:"notes,omitempty"`
	SourceFilename string    `json:"sourceFilename,omitempty"`
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IsExpense reports the transaction polarity per the sign convention.
func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

// CreateParams holds the fields for inserting a transaction. Year and
// Month are filled from Date by the repository, never by the caller.
type CreateParams struct {
	UserID         int64
	ExternalID     string
	Date           time.Time
	Amount         float64
	Description    string
	SourceFilename string
}

// Filter narrows transaction listings. Zero values mean "no constraint".
type Filter struct {
	Year       int
	Month      int
	CategoryID int64
}

// MonthlySummary is one aggregation bucket of the monthly report.
type MonthlySummary struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Total   float64 `json:"total"`
}

// CategorySummary is one aggregation bucket of the per-category report.
// CategoryID is nil for the uncategorized bucket.
type CategorySummary struct {
	CategoryID   *int64  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Color        string  `json:"color"`
	Total        float64 `json:"total"`
	Count        int64   `json:"count"`
}
