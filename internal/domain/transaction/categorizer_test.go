package transaction

import (
	"testing"

	"grana/internal/domain/category"
)

func containsRule(id int64, isExpense bool, keywords ...string) category.Rule {
	rule := category.Rule{CategoryID: id, IsExpense: isExpense}
	for i, kw := range keywords {
		rule.Keywords = append(rule.Keywords, category.Keyword{
			ID:         int64(i + 1),
			CategoryID: id,
			Text:       kw,
			MatchType:  category.MatchContains,
		})
	}
	return rule
}

func TestCategorize(t *testing.T) {
	transporte := containsRule(1, true, "uber")
	salario := category.Rule{
		CategoryID: 2,
		IsExpense:  false,
		Keywords: []category.Keyword{
			{ID: 1, CategoryID: 2, Text: "Salário Mensal", MatchType: category.MatchExact},
		},
	}

	tests := []struct {
		name        string
		amount      float64
		description string
		rules       []category.Rule
		wantID      int64
		wantMatch   bool
	}{
		{
			name:        "contains keyword on expense",
			amount:      -45.00,
			description: "UBER TRIP 1234",
			rules:       []category.Rule{transporte, salario},
			wantID:      1,
			wantMatch:   true,
		},
		{
			name:        "exact keyword on income",
			amount:      3000.00,
			description: "Salário Mensal",
			rules:       []category.Rule{transporte, salario},
			wantID:      2,
			wantMatch:   true,
		},
		{
			name:        "exact keyword does not match superstring",
			amount:      3000.00,
			description: "Salário Mensal Extra",
			rules:       []category.Rule{transporte, salario},
			wantMatch:   false,
		},
		{
			name:        "polarity mismatch skips category",
			amount:      45.00, // refund, income polarity
			description: "UBER TRIP 1234",
			rules:       []category.Rule{transporte},
			wantMatch:   false,
		},
		{
			name:        "zero amount is income",
			amount:      0,
			description: "salário mensal",
			rules:       []category.Rule{salario},
			wantID:      2,
			wantMatch:   true,
		},
		{
			name:        "case folded comparison",
			amount:      -10.00,
			description: "Uber Eats",
			rules:       []category.Rule{transporte},
			wantID:      1,
			wantMatch:   true,
		},
		{
			name:        "empty description",
			amount:      -10.00,
			description: "",
			rules:       []category.Rule{transporte},
			wantMatch:   false,
		},
		{
			name:        "empty keyword never matches",
			amount:      -10.00,
			description: "anything at all",
			rules:       []category.Rule{containsRule(3, true, "")},
			wantMatch:   false,
		},
		{
			name:        "category without keywords never matches",
			amount:      -10.00,
			description: "anything at all",
			rules:       []category.Rule{{CategoryID: 3, IsExpense: true}},
			wantMatch:   false,
		},
		{
			name:        "no rules",
			amount:      -10.00,
			description: "uber",
			rules:       nil,
			wantMatch:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotMatch := Categorize(tt.amount, tt.description, tt.rules)
			if gotMatch != tt.wantMatch {
				t.Fatalf("expected match=%v, got %v (id=%d)", tt.wantMatch, gotMatch, gotID)
			}
			if gotMatch && gotID != tt.wantID {
				t.Errorf("expected category %d, got %d", tt.wantID, gotID)
			}
		})
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	// Two expense categories both match the description; the first rule
	// in evaluation order must win, deterministically across runs.
	mercado := containsRule(10, true, "mercado")
	alimentacao := containsRule(20, true, "mercado livre")

	rules := []category.Rule{mercado, alimentacao}
	for i := 0; i < 100; i++ {
		id, ok := Categorize(-99.90, "MERCADO LIVRE COMPRA", rules)
		if !ok || id != 10 {
			t.Fatalf("run %d: expected category 10, got %d (match=%v)", i, id, ok)
		}
	}

	// Reversing the order reverses the winner.
	id, ok := Categorize(-99.90, "MERCADO LIVRE COMPRA", []category.Rule{alimentacao, mercado})
	if !ok || id != 20 {
		t.Fatalf("expected category 20 with reversed order, got %d (match=%v)", id, ok)
	}
}

func TestCategorizeKeywordOrderWithinRule(t *testing.T) {
	rule := category.Rule{
		CategoryID: 1,
		IsExpense:  true,
		Keywords: []category.Keyword{
			{ID: 1, CategoryID: 1, Text: "nope", MatchType: category.MatchContains},
			{ID: 2, CategoryID: 1, Text: "uber", MatchType: category.MatchContains},
		},
	}

	id, ok := Categorize(-45.00, "uber trip", []category.Rule{rule})
	if !ok || id != 1 {
		t.Fatalf("expected match on second keyword, got id=%d match=%v", id, ok)
	}
}
