package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"grana/internal/domain/category"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, user_id, name, description, color, is_expense, created_at`

func (r *CategoryRepository) Create(ctx context.Context, userID int64, params category.CreateParams) (*category.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, description, color, is_expense)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + categoryColumns

	cat, err := scanCategory(r.db.QueryRowContext(ctx, query,
		userID, params.Name, params.Description, params.Color, params.IsExpense))
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return cat, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	cat, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, userID int64, name string) (*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)`

	cat, err := scanCategory(r.db.QueryRowContext(ctx, query, userID, name))
	if err == sql.ErrNoRows {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return cat, nil
}

func (r *CategoryRepository) ListByUserID(ctx context.Context, userID int64) ([]*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, params category.UpdateParams) (*category.Category, error) {
	query := `
		UPDATE categories
		SET name        = COALESCE($2, name),
		    description = COALESCE($3, description),
		    color       = COALESCE($4, color),
		    is_expense  = COALESCE($5, is_expense)
		WHERE id = $1
		RETURNING ` + categoryColumns

	cat, err := scanCategory(r.db.QueryRowContext(ctx, query,
		id, params.Name, params.Description, params.Color, params.IsExpense))
	if err == sql.ErrNoRows {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return cat, nil
}

// Delete clears category_id on referencing transactions and removes the
// category plus its keywords in one database transaction, so a failure
// midway never leaves transactions pointing at a deleted category.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET category_id = NULL WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("failed to detach transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM category_keywords WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete category keywords: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return requireRow(result, category.ErrCategoryNotFound)
	})
}

func (r *CategoryRepository) AddKeyword(ctx context.Context, categoryID int64, text string, matchType category.MatchType) (*category.Keyword, error) {
	query := `
		INSERT INTO category_keywords (category_id, keyword, match_type)
		VALUES ($1, $2, $3)
		RETURNING id, category_id, keyword, match_type`

	var kw category.Keyword
	err := r.db.QueryRowContext(ctx, query, categoryID, text, string(matchType)).
		Scan(&kw.ID, &kw.CategoryID, &kw.Text, &kw.MatchType)
	if err != nil {
		return nil, fmt.Errorf("failed to add keyword: %w", err)
	}
	return &kw, nil
}

func (r *CategoryRepository) GetKeywordByID(ctx context.Context, id int64) (*category.Keyword, error) {
	query := `SELECT id, category_id, keyword, match_type FROM category_keywords WHERE id = $1`

	var kw category.Keyword
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&kw.ID, &kw.CategoryID, &kw.Text, &kw.MatchType)
	if err == sql.ErrNoRows {
		return nil, category.ErrKeywordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}
	return &kw, nil
}

func (r *CategoryRepository) ListKeywords(ctx context.Context, categoryID int64) ([]*category.Keyword, error) {
	query := `SELECT id, category_id, keyword, match_type FROM category_keywords WHERE category_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []*category.Keyword
	for rows.Next() {
		var kw category.Keyword
		if err := rows.Scan(&kw.ID, &kw.CategoryID, &kw.Text, &kw.MatchType); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, &kw)
	}
	return keywords, rows.Err()
}

func (r *CategoryRepository) RemoveKeyword(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM category_keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove keyword: %w", err)
	}
	return requireRow(result, category.ErrKeywordNotFound)
}

func (r *CategoryRepository) ListRules(ctx context.Context, userID int64) ([]category.Rule, error) {
	return listRules(ctx, r.db, userID)
}

// listRules is shared with the import batch store. The ORDER BY on both
// ids is what makes first-match-wins categorization deterministic.
func listRules(ctx context.Context, q queryer, userID int64) ([]category.Rule, error) {
	query := `
		SELECT c.id, c.is_expense, k.id, k.keyword, k.match_type
		FROM categories c
		JOIN category_keywords k ON k.category_id = c.id
		WHERE c.user_id = $1
		ORDER BY c.id, k.id`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categorization rules: %w", err)
	}
	defer rows.Close()

	var rules []category.Rule
	for rows.Next() {
		var categoryID int64
		var isExpense bool
		var kw category.Keyword
		if err := rows.Scan(&categoryID, &isExpense, &kw.ID, &kw.Text, &kw.MatchType); err != nil {
			return nil, fmt.Errorf("failed to scan categorization rule: %w", err)
		}
		kw.CategoryID = categoryID

		if n := len(rules); n > 0 && rules[n-1].CategoryID == categoryID {
			rules[n-1].Keywords = append(rules[n-1].Keywords, kw)
			continue
		}
		rules = append(rules, category.Rule{
			CategoryID: categoryID,
			IsExpense:  isExpense,
			Keywords:   []category.Keyword{kw},
		})
	}
	return rules, rows.Err()
}

func scanCategory(row rowScanner) (*category.Category, error) {
	var cat category.Category
	var description, color sql.NullString
	err := row.Scan(&cat.ID, &cat.UserID, &cat.Name, &description, &color, &cat.IsExpense, &cat.CreatedAt)
	if err != nil {
		return nil, err
	}
	cat.Description = description.String
	cat.Color = color.String
	return &cat, nil
}
