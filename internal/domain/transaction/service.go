package transaction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"grana/internal/domain/category"
)

// Service contains the business logic for transaction operations.
type Service struct {
	repo    Repository
	catRepo category.Repository
	log     zerolog.Logger
}

// NewService creates a new transaction service.
func NewService(repo Repository, catRepo category.Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, catRepo: catRepo, log: log}
}

// GetTransaction retrieves a transaction by ID and verifies user
// ownership.
func (s *Service) GetTransaction(ctx context.Context, id, userID int64) (*Transaction, error) {
	txn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, ErrForbidden
	}
	return txn, nil
}

// ListTransactions returns the user's transactions, optionally filtered by
// period and category.
func (s *Service) ListTransactions(ctx context.Context, userID int64, filter Filter) ([]*Transaction, error) {
	return s.repo.ListByUserID(ctx, userID, filter)
}

// UpdateCategory sets or clears the category of a transaction. When a
// category is supplied it must belong to the same user.
func (s *Service) UpdateCategory(ctx context.Context, id, userID int64, categoryID *int64) error {
	if _, err := s.GetTransaction(ctx, id, userID); err != nil {
		return err
	}

	if categoryID != nil {
		cat, err := s.catRepo.GetByID(ctx, *categoryID)
		if err != nil {
			return err
		}
		if cat.UserID != userID {
			return category.ErrForbidden
		}
	}

	return s.repo.UpdateCategory(ctx, id, categoryID)
}

// UpdateNotes replaces the free-text notes of a transaction.
func (s *Service) UpdateNotes(ctx context.Context, id, userID int64, notes string) error {
	if _, err := s.GetTransaction(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.UpdateNotes(ctx, id, notes)
}

// SetReconciled marks or unmarks a transaction as reconciled.
func (s *Service) SetReconciled(ctx context.Context, id, userID int64, reconciled bool) error {
	if _, err := s.GetTransaction(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.SetReconciled(ctx, id, reconciled)
}

// CategorizeOne runs the engine against a single transaction using the
// user's current rule set and persists the result when a rule matches.
// Returns the assigned category id, or nil when nothing matched.
func (s *Service) CategorizeOne(ctx context.Context, id, userID int64) (*int64, error) {
	txn, err := s.GetTransaction(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	rules, err := s.catRepo.ListRules(ctx, userID)
	if err != nil {
		return nil, err
	}

	categoryID, ok := Categorize(txn.Amount, txn.Description, rules)
	if !ok {
		return nil, nil
	}
	if err := s.repo.UpdateCategory(ctx, id, &categoryID); err != nil {
		return nil, err
	}
	return &categoryID, nil
}

// AutoCategorize runs the engine over the user's transactions. The rule
// set is loaded once for the whole batch. In fill-gaps mode only
// uncategorized transactions are considered; in force mode every
// transaction is re-evaluated, overwriting the category when a rule
// matches and leaving it untouched otherwise. Returns the number of
// transactions that received a category.
func (s *Service) AutoCategorize(ctx context.Context, userID int64, mode Mode) (int, error) {
	if mode != ModeFillGaps && mode != ModeForce {
		return 0, fmt.Errorf("unknown categorization mode %q", mode)
	}

	rules, err := s.catRepo.ListRules(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load category rules: %w", err)
	}
	if len(rules) == 0 {
		return 0, nil
	}

	var transactions []*Transaction
	if mode == ModeFillGaps {
		transactions, err = s.repo.ListUncategorized(ctx, userID)
	} else {
		transactions, err = s.repo.ListByUserID(ctx, userID, Filter{})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	categorized := 0
	for _, txn := range transactions {
		categoryID, ok := Categorize(txn.Amount, txn.Description, rules)
		if !ok {
			continue
		}
		if txn.CategoryID != nil && *txn.CategoryID == categoryID {
			continue
		}
		if err := s.repo.UpdateCategory(ctx, txn.ID, &categoryID); err != nil {
			return categorized, fmt.Errorf("failed to update category of transaction %d: %w", txn.ID, err)
		}
		categorized++
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("mode", string(mode)).
		Int("checked", len(transactions)).
		Int("categorized", categorized).
		Msg("auto categorization finished")

	return categorized, nil
}
