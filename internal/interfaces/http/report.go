package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"grana/internal/domain/transaction"
	"grana/internal/shared/middleware"
)

type ReportHandler struct {
	transactionRepo transaction.Repository
}

func NewReportHandler(transactionRepo transaction.Repository) *ReportHandler {
	return &ReportHandler{transactionRepo: transactionRepo}
}

// HandleMonthlySummary returns per-month income/expense totals,
// optionally restricted to one year.
func (h *ReportHandler) HandleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	summaries, err := h.transactionRepo.MonthlySummary(r.Context(), userID, year)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to build monthly summary")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []*transaction.MonthlySummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// HandleCategorySummary returns per-category totals, optionally
// restricted to one year and month.
func (h *ReportHandler) HandleCategorySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	year, month := 0, 0
	if v := q.Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if v := q.Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	summaries, err := h.transactionRepo.CategorySummary(r.Context(), userID, year, month)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to build category summary")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []*transaction.CategorySummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}
