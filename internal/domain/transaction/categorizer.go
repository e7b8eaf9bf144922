package transaction

import (
	"strings"

	"grana/internal/domain/category"
)

// Mode selects how a bulk categorization run treats transactions that
// already carry a category.
type Mode string

const (
	// ModeFillGaps only assigns categories to currently-uncategorized
	// transactions.
	ModeFillGaps Mode = "fill_gaps"
	// ModeForce re-evaluates every transaction and may overwrite an
	// existing assignment when a rule matches. Transactions that match
	// no rule keep their current category.
	ModeForce Mode = "force"
)

// Categorize decides which category, if any, applies to a transaction.
// It is a pure function with no side effects.
//
// Rules are evaluated in slice order, and keywords within a rule in slice
// order; the first keyword match decides the outcome (first-match-wins).
// Callers must supply rules in a stable order — category.Repository.ListRules
// orders by category id then keyword id, both ascending.
//
// A rule is skipped when its polarity does not match the amount sign:
// amount < 0 is an expense, amount >= 0 (including zero) is income.
// Comparison is case-folded. Empty keywords never match, and a rule with
// no keywords never matches.
func Categorize(amount float64, description string, rules []category.Rule) (int64, bool) {
	isExpense := amount < 0
	normalized := strings.ToLower(description)

	for _, rule := range rules {
		if rule.IsExpense != isExpense {
			continue
		}

		for _, kw := range rule.Keywords {
			text := strings.ToLower(kw.Text)
			if text == "" {
				continue
			}

			switch kw.MatchType {
			case category.MatchExact:
				if text == normalized {
					return rule.CategoryID, true
				}
			default: // contains is the default, as in the keyword store
				if strings.Contains(normalized, text) {
					return rule.CategoryID, true
				}
			}
		}
	}

	return 0, false
}
