package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	httphandlers "grana/internal/interfaces/http"
	"grana/internal/shared/config"
	"grana/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleMe)))
	mux.Handle("/api/uploads", authMiddleware(http.HandlerFunc(deps.UploadHandler.HandleUploads)))
	mux.Handle("/api/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("/api/transactions/recategorize", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleRecategorize)))
	mux.Handle("/api/transactions/{id}", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleTransactionByID)))
	mux.Handle("/api/categories", authMiddleware(http.HandlerFunc(deps.CategoryHandler.HandleCategories)))
	mux.Handle("/api/categories/{id}", authMiddleware(http.HandlerFunc(deps.CategoryHandler.HandleCategoryByID)))
	mux.Handle("/api/categories/{id}/keywords", authMiddleware(http.HandlerFunc(deps.CategoryHandler.HandleKeywords)))
	mux.Handle("/api/keywords/{id}", authMiddleware(http.HandlerFunc(deps.CategoryHandler.HandleKeywordByID)))
	mux.Handle("/api/reports/monthly", authMiddleware(http.HandlerFunc(deps.ReportHandler.HandleMonthlySummary)))
	mux.Handle("/api/reports/categories", authMiddleware(http.HandlerFunc(deps.ReportHandler.HandleCategorySummary)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))

	// Request tracing only makes sense with an exporter configured
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Info().Msg("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
