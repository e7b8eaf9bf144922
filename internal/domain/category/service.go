package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Service contains the business logic for category and keyword operations.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService creates a new category service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreateCategory creates a new category, enforcing per-user name
// uniqueness.
func (s *Service) CreateCategory(ctx context.Context, userID int64, params CreateParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, userID, params.Name)
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	return s.repo.Create(ctx, userID, params)
}

// GetCategory retrieves a category by ID and verifies user ownership.
func (s *Service) GetCategory(ctx context.Context, id, userID int64) (*Category, error) {
	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat.UserID != userID {
		return nil, ErrForbidden
	}
	return cat, nil
}

// ListCategories returns all categories for a user.
func (s *Service) ListCategories(ctx context.Context, userID int64) ([]*Category, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// UpdateCategory updates a category after verifying ownership. Renames are
// checked against the per-user uniqueness rule.
func (s *Service) UpdateCategory(ctx context.Context, id, userID int64, params UpdateParams) (*Category, error) {
	cat, err := s.GetCategory(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil && *params.Name != cat.Name {
		if strings.TrimSpace(*params.Name) == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrValidation)
		}
		existing, err := s.repo.GetByName(ctx, userID, *params.Name)
		if err != nil && !errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrCategoryExists
		}
	}

	return s.repo.Update(ctx, id, params)
}

// DeleteCategory removes a category, clearing it from any transactions
// that reference it first.
func (s *Service) DeleteCategory(ctx context.Context, id, userID int64) error {
	if _, err := s.GetCategory(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddKeyword attaches a keyword rule to one of the user's categories.
// Duplicate (keyword, category) pairs are rejected.
func (s *Service) AddKeyword(ctx context.Context, categoryID, userID int64, text string, matchType MatchType) (*Keyword, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrValidation)
	}
	if matchType == "" {
		matchType = MatchContains
	}
	if !IsValidMatchType(matchType) {
		return nil, fmt.Errorf("%w: invalid match type %q", ErrValidation, matchType)
	}

	if _, err := s.GetCategory(ctx, categoryID, userID); err != nil {
		return nil, err
	}

	keywords, err := s.repo.ListKeywords(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	for _, kw := range keywords {
		if strings.EqualFold(kw.Text, text) {
			return nil, ErrKeywordExists
		}
	}

	return s.repo.AddKeyword(ctx, categoryID, text, matchType)
}

// ListKeywords returns the keywords of one of the user's categories.
func (s *Service) ListKeywords(ctx context.Context, categoryID, userID int64) ([]*Keyword, error) {
	if _, err := s.GetCategory(ctx, categoryID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListKeywords(ctx, categoryID)
}

// RemoveKeyword removes a keyword after verifying that its category
// belongs to the user.
func (s *Service) RemoveKeyword(ctx context.Context, keywordID, userID int64) error {
	kw, err := s.repo.GetKeywordByID(ctx, keywordID)
	if err != nil {
		return err
	}
	if _, err := s.GetCategory(ctx, kw.CategoryID, userID); err != nil {
		return err
	}
	return s.repo.RemoveKeyword(ctx, keywordID)
}

// SeedDefaults creates the default category set for a user. Categories
// that already exist by name are skipped, so the operation is idempotent
// and safe to re-run.
func (s *Service) SeedDefaults(ctx context.Context, userID int64) (int, error) {
	created := 0
	for _, def := range DefaultCategories {
		existing, err := s.repo.GetByName(ctx, userID, def.Name)
		if err != nil && !errors.Is(err, ErrCategoryNotFound) {
			return created, err
		}
		if existing != nil {
			continue
		}

		_, err = s.repo.Create(ctx, userID, CreateParams{
			Name:        def.Name,
			Description: def.Name,
			Color:       def.Color,
			IsExpense:   def.IsExpense,
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed category %q: %w", def.Name, err)
		}
		created++
	}

	s.log.Info().Int64("user_id", userID).Int("created", created).Msg("seeded default categories")
	return created, nil
}
