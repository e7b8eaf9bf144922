package transaction

import (
	"context"
)

// Repository defines the interface for transaction data access.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	// ExistsByExternalID reports whether the user already has a
	// transaction with this external id. Used by the import
	// deduplication gate; the scope is always per user.
	ExistsByExternalID(ctx context.Context, userID int64, externalID string) (bool, error)
	ListByUserID(ctx context.Context, userID int64, filter Filter) ([]*Transaction, error)
	// ListUncategorized returns the user's transactions without a
	// category, in date order.
	ListUncategorized(ctx context.Context, userID int64) ([]*Transaction, error)
	UpdateCategory(ctx context.Context, id int64, categoryID *int64) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
	SetReconciled(ctx context.Context, id int64, reconciled bool) error
	MonthlySummary(ctx context.Context, userID int64, year int) ([]*MonthlySummary, error)
	CategorySummary(ctx context.Context, userID int64, year, month int) ([]*CategorySummary, error)
}
