package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"grana/internal/domain/ofximport"
	"grana/internal/domain/statement"
	"grana/internal/domain/upload"
	"grana/internal/shared/middleware"
)

type UploadHandler struct {
	imports  *ofximport.Service
	uploads  upload.Repository
	maxBytes int64
}

func NewUploadHandler(imports *ofximport.Service, uploads upload.Repository, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		imports:  imports,
		uploads:  uploads,
		maxBytes: maxBytes,
	}
}

type UploadResponse struct {
	UploadID int64 `json:"uploadId"`
	Imported int   `json:"imported"`
}

type uploadErrorResponse struct {
	Error      string `json:"error"`
	UploadedAt string `json:"uploadedAt,omitempty"`
}

// HandleUploads imports a statement (multipart POST, field "file") or
// lists the user's past uploads.
func (h *UploadHandler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		uploads, err := h.uploads.ListByUserID(r.Context(), userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("failed to list uploads")
			http.Error(w, "Failed to list uploads", http.StatusInternalServerError)
			return
		}
		if uploads == nil {
			uploads = []*upload.UploadedFile{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(uploads)

	case http.MethodPost:
		h.handleImport(w, r, userID)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *UploadHandler) handleImport(w http.ResponseWriter, r *http.Request, userID int64) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A statement file is required in the \"file\" field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.imports.Import(r.Context(), userID, header.Filename, file)
	if err != nil {
		writeImportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(UploadResponse{
		UploadID: result.UploadID,
		Imported: result.Imported,
	})
}

// writeImportError maps the import error taxonomy to HTTP responses:
// duplicate file 409 (with the original upload timestamp), unparseable
// content 422, persistence failure 500.
func writeImportError(w http.ResponseWriter, err error) {
	var dup *ofximport.DuplicateFileError
	if errors.As(err, &dup) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(uploadErrorResponse{
			Error:      dup.Error(),
			UploadedAt: dup.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
		return
	}

	var format *statement.FormatError
	if errors.As(err, &format) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(uploadErrorResponse{Error: format.Error()})
		return
	}

	var persist *ofximport.PersistenceError
	if errors.As(err, &persist) {
		log.Error().Err(persist).Msg("statement import failed to persist")
		http.Error(w, "Failed to import statement", http.StatusInternalServerError)
		return
	}

	log.Error().Err(err).Msg("statement import failed")
	http.Error(w, "Failed to import statement", http.StatusInternalServerError)
}
