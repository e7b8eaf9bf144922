package main

import (
	"github.com/rs/zerolog/log"

	"grana/internal/domain/category"
	"grana/internal/domain/ofximport"
	"grana/internal/domain/transaction"
	"grana/internal/infrastructure/postgres"
	"grana/internal/infrastructure/storage"
	httphandlers "grana/internal/interfaces/http"
	"grana/internal/shared/auth"
	"grana/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler        *httphandlers.AuthHandler
	UserHandler        *httphandlers.UserHandler
	CategoryHandler    *httphandlers.CategoryHandler
	TransactionHandler *httphandlers.TransactionHandler
	UploadHandler      *httphandlers.UploadHandler
	ReportHandler      *httphandlers.ReportHandler

	// Auth
	JWT *auth.JWT
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to database")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	uploadRepo := postgres.NewUploadRepository(db)
	importStore := postgres.NewImportStore(db)

	fileStore, err := storage.NewLocalFileStore(cfg.Upload.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Domain services
	categoryService := category.NewService(categoryRepo, log.Logger)
	transactionService := transaction.NewService(transactionRepo, categoryRepo, log.Logger)
	importService := ofximport.NewService(fileStore, uploadRepo, importStore, log.Logger)

	jwt := auth.NewJWT(cfg.JWT.Secret)

	return &Dependencies{
		DB:                 db,
		AuthHandler:        httphandlers.NewAuthHandler(userRepo, categoryService, jwt),
		UserHandler:        httphandlers.NewUserHandler(userRepo),
		CategoryHandler:    httphandlers.NewCategoryHandler(categoryService),
		TransactionHandler: httphandlers.NewTransactionHandler(transactionService),
		UploadHandler:      httphandlers.NewUploadHandler(importService, uploadRepo, cfg.Upload.MaxBytes),
		ReportHandler:      httphandlers.NewReportHandler(transactionRepo),
		JWT:                jwt,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
