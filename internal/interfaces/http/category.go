package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"grana/internal/domain/category"
	"grana/internal/shared/middleware"
)

type CategoryHandler struct {
	service *category.Service
}

func NewCategoryHandler(service *category.Service) *CategoryHandler {
	return &CategoryHandler{service: service}
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsExpense   bool   `json:"isExpense"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsExpense   *bool   `json:"isExpense"`
}

type AddKeywordRequest struct {
	Keyword   string `json:"keyword"`
	MatchType string `json:"matchType"` // contains (default) or exact
}

// HandleCategories lists the user's categories or creates a new one.
func (h *CategoryHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		categories, err := h.service.ListCategories(r.Context(), userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("failed to list categories")
			http.Error(w, "Failed to list categories", http.StatusInternalServerError)
			return
		}
		if categories == nil {
			categories = []*category.Category{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(categories)

	case http.MethodPost:
		var req CreateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		cat, err := h.service.CreateCategory(r.Context(), userID, category.CreateParams{
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
			IsExpense:   req.IsExpense,
		})
		if err != nil {
			writeCategoryError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(cat)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleCategoryByID gets, updates or deletes one category.
func (h *CategoryHandler) HandleCategoryByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cat, err := h.service.GetCategory(r.Context(), id, userID)
		if err != nil {
			writeCategoryError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cat)

	case http.MethodPut:
		var req UpdateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		cat, err := h.service.UpdateCategory(r.Context(), id, userID, category.UpdateParams{
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
			IsExpense:   req.IsExpense,
		})
		if err != nil {
			writeCategoryError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cat)

	case http.MethodDelete:
		if err := h.service.DeleteCategory(r.Context(), id, userID); err != nil {
			writeCategoryError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleKeywords lists or adds keywords for a category.
func (h *CategoryHandler) HandleKeywords(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		keywords, err := h.service.ListKeywords(r.Context(), categoryID, userID)
		if err != nil {
			writeCategoryError(w, err)
			return
		}
		if keywords == nil {
			keywords = []*category.Keyword{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(keywords)

	case http.MethodPost:
		var req AddKeywordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		kw, err := h.service.AddKeyword(r.Context(), categoryID, userID, req.Keyword, category.MatchType(req.MatchType))
		if err != nil {
			writeCategoryError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(kw)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleKeywordByID removes one keyword.
func (h *CategoryHandler) HandleKeywordByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid keyword ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveKeyword(r.Context(), id, userID); err != nil {
		writeCategoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeCategoryError maps category domain errors to HTTP responses.
func writeCategoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, category.ErrCategoryNotFound), errors.Is(err, category.ErrKeywordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, category.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, category.ErrCategoryExists), errors.Is(err, category.ErrKeywordExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, category.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("category operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
