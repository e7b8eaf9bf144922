package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"grana/internal/domain/category"
	"grana/internal/domain/transaction"
	"grana/internal/shared/middleware"
)

type TransactionHandler struct {
	service *transaction.Service
}

func NewTransactionHandler(service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type RecategorizeRequest struct {
	Force bool `json:"force"`
}

type RecategorizeResponse struct {
	Categorized int `json:"categorized"`
}

// HandleListTransactions returns the user's transactions, filtered by
// optional year, month and categoryId query parameters.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var filter transaction.Filter
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		filter.Year = year
	}
	if v := q.Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
		filter.Month = month
	}
	if v := q.Get("categoryId"); v != "" {
		categoryID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "Invalid categoryId", http.StatusBadRequest)
			return
		}
		filter.CategoryID = categoryID
	}

	transactions, err := h.service.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to list transactions")
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// HandleTransactionByID gets or updates one transaction. PUT accepts any
// of categoryId (null clears it), notes and reconciled; absent fields are
// left unchanged.
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		txn, err := h.service.GetTransaction(r.Context(), id, userID)
		if err != nil {
			writeTransactionError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(txn)

	case http.MethodPut:
		h.handleUpdate(w, r, id, userID)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id, userID int64) {
	// Raw messages keep "categoryId": null (clear the category)
	// distinguishable from an absent field (leave it alone).
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if raw, ok := fields["categoryId"]; ok {
		var categoryID *int64
		if err := json.Unmarshal(raw, &categoryID); err != nil {
			http.Error(w, "Invalid categoryId", http.StatusBadRequest)
			return
		}
		if err := h.service.UpdateCategory(ctx, id, userID, categoryID); err != nil {
			writeTransactionError(w, err)
			return
		}
	}

	if raw, ok := fields["notes"]; ok {
		var notes string
		if err := json.Unmarshal(raw, &notes); err != nil {
			http.Error(w, "Invalid notes", http.StatusBadRequest)
			return
		}
		if err := h.service.UpdateNotes(ctx, id, userID, notes); err != nil {
			writeTransactionError(w, err)
			return
		}
	}

	if raw, ok := fields["reconciled"]; ok {
		var reconciled bool
		if err := json.Unmarshal(raw, &reconciled); err != nil {
			http.Error(w, "Invalid reconciled flag", http.StatusBadRequest)
			return
		}
		if err := h.service.SetReconciled(ctx, id, userID, reconciled); err != nil {
			writeTransactionError(w, err)
			return
		}
	}

	txn, err := h.service.GetTransaction(ctx, id, userID)
	if err != nil {
		writeTransactionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txn)
}

// HandleRecategorize runs the categorization engine over the user's
// transactions: fill-gaps by default, force when requested.
func (h *TransactionHandler) HandleRecategorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RecategorizeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	mode := transaction.ModeFillGaps
	if req.Force {
		mode = transaction.ModeForce
	}

	categorized, err := h.service.AutoCategorize(r.Context(), userID, mode)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("auto categorization failed")
		http.Error(w, "Failed to recategorize transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecategorizeResponse{Categorized: categorized})
}

// writeTransactionError maps transaction domain errors to HTTP responses.
func writeTransactionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrTransactionNotFound), errors.Is(err, category.ErrCategoryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, transaction.ErrForbidden), errors.Is(err, category.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		log.Error().Err(err).Msg("transaction operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
