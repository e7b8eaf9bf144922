package category

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("a category with this name already exists")
	ErrKeywordNotFound  = errors.New("keyword not found")
	ErrKeywordExists    = errors.New("this keyword is already registered for the category")
	ErrForbidden        = errors.New("category does not belong to user")
	// ErrValidation wraps rejected input so callers can map it to a
	// client error.
	ErrValidation = errors.New("invalid input")
)

// MatchType controls how a keyword is compared against a transaction
// description.
type MatchType string

const (
	// MatchContains matches when the keyword is a substring of the
	// description.
	MatchContains MatchType = "contains"
	// MatchExact matches only when the keyword equals the whole
	// description.
	MatchExact MatchType = "exact"
)

// IsValidMatchType reports whether the value is a known match type.
func IsValidMatchType(mt MatchType) bool {
	return mt == MatchContains || mt == MatchExact
}

// Category groups transactions of a single polarity. IsExpense=true
// categories apply to negative amounts only, IsExpense=false to amounts
// >= 0.
type Category struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	IsExpense   bool      `json:"isExpense"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Keyword is one categorization rule entry owned by a category.
type Keyword struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"categoryId"`
	Text       string    `json:"keyword"`
	MatchType  MatchType `json:"matchType"`
}

// Rule is the categorization engine's read-only view of a category and its
// keywords. Rule slices returned by the repository are ordered by category
// creation (id ascending) and keywords by insertion (id ascending); the
// engine's first-match-wins policy depends on that order being stable.
type Rule struct {
	CategoryID int64
	IsExpense  bool
	Keywords   []Keyword
}

// CreateParams holds the fields for creating a category.
type CreateParams struct {
	Name        string
	Description string
	Color       string
	IsExpense   bool
}

// Validate checks category creation parameters.
func (p *CreateParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if p.Color != "" && !isHexColor(p.Color) {
		return fmt.Errorf("%w: invalid color %q, expected #RRGGBB", ErrValidation, p.Color)
	}
	return nil
}

// UpdateParams holds optional fields for updating a category. Nil fields
// are left unchanged.
type UpdateParams struct {
	Name        *string
	Description *string
	Color       *string
	IsExpense   *bool
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
