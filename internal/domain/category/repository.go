package category

import (
	"context"
)

// Repository defines the interface for category and keyword data access.
type Repository interface {
	Create(ctx context.Context, userID int64, params CreateParams) (*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetByName(ctx context.Context, userID int64, name string) (*Category, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Category, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Category, error)
	// Delete removes the category after clearing category_id on every
	// transaction that references it. Both steps run in one database
	// transaction.
	Delete(ctx context.Context, id int64) error

	AddKeyword(ctx context.Context, categoryID int64, text string, matchType MatchType) (*Keyword, error)
	GetKeywordByID(ctx context.Context, id int64) (*Keyword, error)
	ListKeywords(ctx context.Context, categoryID int64) ([]*Keyword, error)
	RemoveKeyword(ctx context.Context, id int64) error

	// ListRules returns every category of the user with its keywords,
	// ordered by category id ascending and keyword id ascending. The
	// categorization engine relies on this ordering for deterministic
	// first-match-wins resolution.
	ListRules(ctx context.Context, userID int64) ([]Rule, error)
}
