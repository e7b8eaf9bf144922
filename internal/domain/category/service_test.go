package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc         func(ctx context.Context, userID int64, params CreateParams) (*Category, error)
	GetByIDFunc        func(ctx context.Context, id int64) (*Category, error)
	GetByNameFunc      func(ctx context.Context, userID int64, name string) (*Category, error)
	ListByUserIDFunc   func(ctx context.Context, userID int64) ([]*Category, error)
	UpdateFunc         func(ctx context.Context, id int64, params UpdateParams) (*Category, error)
	DeleteFunc         func(ctx context.Context, id int64) error
	AddKeywordFunc     func(ctx context.Context, categoryID int64, text string, matchType MatchType) (*Keyword, error)
	GetKeywordByIDFunc func(ctx context.Context, id int64) (*Keyword, error)
	ListKeywordsFunc   func(ctx context.Context, categoryID int64) ([]*Keyword, error)
	RemoveKeywordFunc  func(ctx context.Context, id int64) error
	ListRulesFunc      func(ctx context.Context, userID int64) ([]Rule, error)
}

func (m *MockRepository) Create(ctx context.Context, userID int64, params CreateParams) (*Category, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, params)
	}
	return &Category{ID: 1, UserID: userID, Name: params.Name, Color: params.Color, IsExpense: params.IsExpense, CreatedAt: time.Now()}, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrCategoryNotFound
}

func (m *MockRepository) GetByName(ctx context.Context, userID int64, name string) (*Category, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, userID, name)
	}
	return nil, ErrCategoryNotFound
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Category, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) Update(ctx context.Context, id int64, params UpdateParams) (*Category, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockRepository) AddKeyword(ctx context.Context, categoryID int64, text string, matchType MatchType) (*Keyword, error) {
	if m.AddKeywordFunc != nil {
		return m.AddKeywordFunc(ctx, categoryID, text, matchType)
	}
	return &Keyword{ID: 1, CategoryID: categoryID, Text: text, MatchType: matchType}, nil
}

func (m *MockRepository) GetKeywordByID(ctx context.Context, id int64) (*Keyword, error) {
	if m.GetKeywordByIDFunc != nil {
		return m.GetKeywordByIDFunc(ctx, id)
	}
	return nil, ErrKeywordNotFound
}

func (m *MockRepository) ListKeywords(ctx context.Context, categoryID int64) ([]*Keyword, error) {
	if m.ListKeywordsFunc != nil {
		return m.ListKeywordsFunc(ctx, categoryID)
	}
	return nil, nil
}

func (m *MockRepository) RemoveKeyword(ctx context.Context, id int64) error {
	if m.RemoveKeywordFunc != nil {
		return m.RemoveKeywordFunc(ctx, id)
	}
	return nil
}

func (m *MockRepository) ListRules(ctx context.Context, userID int64) ([]Rule, error) {
	if m.ListRulesFunc != nil {
		return m.ListRulesFunc(ctx, userID)
	}
	return nil, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		params  CreateParams
		mock    *MockRepository
		wantErr error
	}{
		{
			name:   "Success",
			params: CreateParams{Name: "Transporte", Color: "#900C3F", IsExpense: true},
			mock:   &MockRepository{},
		},
		{
			name:   "Duplicate Name",
			params: CreateParams{Name: "Transporte", IsExpense: true},
			mock: &MockRepository{
				GetByNameFunc: func(ctx context.Context, userID int64, name string) (*Category, error) {
					return &Category{ID: 7, UserID: userID, Name: name}, nil
				},
			},
			wantErr: ErrCategoryExists,
		},
		{
			name:    "Empty Name",
			params:  CreateParams{Name: "   "},
			mock:    &MockRepository{},
			wantErr: errors.New("category name is required"),
		},
		{
			name:    "Invalid Color",
			params:  CreateParams{Name: "Lazer", Color: "green"},
			mock:    &MockRepository{},
			wantErr: errors.New("invalid color"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.mock)

			cat, err := svc.CreateCategory(ctx, 1, tt.params)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error, got category %+v", cat)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cat.Name != tt.params.Name {
				t.Errorf("expected name %q, got %q", tt.params.Name, cat.Name)
			}
		})
	}
}

func TestGetCategoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*Category, error) {
			return &Category{ID: id, UserID: 42, Name: "Saúde"}, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.GetCategory(ctx, 1, 42); err != nil {
		t.Errorf("owner should access category, got %v", err)
	}
	if _, err := svc.GetCategory(ctx, 1, 99); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for other user, got %v", err)
	}
}

func TestAddKeyword(t *testing.T) {
	ctx := context.Background()

	owned := func(ctx context.Context, id int64) (*Category, error) {
		return &Category{ID: id, UserID: 1, Name: "Transporte", IsExpense: true}, nil
	}

	tests := []struct {
		name      string
		text      string
		matchType MatchType
		mock      *MockRepository
		wantErr   error
		wantType  MatchType
	}{
		{
			name:     "Defaults To Contains",
			text:     "uber",
			mock:     &MockRepository{GetByIDFunc: owned},
			wantType: MatchContains,
		},
		{
			name:      "Exact",
			text:      "Salário Mensal",
			matchType: MatchExact,
			mock:      &MockRepository{GetByIDFunc: owned},
			wantType:  MatchExact,
		},
		{
			name:      "Invalid Match Type",
			text:      "uber",
			matchType: "fuzzy",
			mock:      &MockRepository{GetByIDFunc: owned},
			wantErr:   errors.New("invalid match type"),
		},
		{
			name: "Duplicate Keyword",
			text: "UBER",
			mock: &MockRepository{
				GetByIDFunc: owned,
				ListKeywordsFunc: func(ctx context.Context, categoryID int64) ([]*Keyword, error) {
					return []*Keyword{{ID: 1, CategoryID: categoryID, Text: "uber", MatchType: MatchContains}}, nil
				},
			},
			wantErr: ErrKeywordExists,
		},
		{
			name:    "Empty Keyword",
			text:    "  ",
			mock:    &MockRepository{GetByIDFunc: owned},
			wantErr: errors.New("keyword is required"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.mock)

			kw, err := svc.AddKeyword(ctx, 1, 1, tt.text, tt.matchType)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error, got keyword %+v", kw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kw.MatchType != tt.wantType {
				t.Errorf("expected match type %q, got %q", tt.wantType, kw.MatchType)
			}
		})
	}
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()

	existing := map[string]*Category{}
	var nextID int64
	repo := &MockRepository{
		GetByNameFunc: func(ctx context.Context, userID int64, name string) (*Category, error) {
			if cat, ok := existing[name]; ok {
				return cat, nil
			}
			return nil, ErrCategoryNotFound
		},
		CreateFunc: func(ctx context.Context, userID int64, params CreateParams) (*Category, error) {
			nextID++
			cat := &Category{ID: nextID, UserID: userID, Name: params.Name, Color: params.Color, IsExpense: params.IsExpense}
			existing[params.Name] = cat
			return cat, nil
		},
	}
	svc := newTestService(repo)

	created, err := svc.SeedDefaults(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != len(DefaultCategories) {
		t.Errorf("expected %d categories created, got %d", len(DefaultCategories), created)
	}

	created, err = svc.SeedDefaults(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if created != 0 {
		t.Errorf("second seed run should create nothing, created %d", created)
	}
}
