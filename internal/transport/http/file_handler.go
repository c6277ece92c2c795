package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"excelcleaner/internal/config"
	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/middleware"
	"excelcleaner/internal/services"
	api "excelcleaner/pkg/contracts/api/v1"
)

const (
	// multipartMemory is how much of an upload is held in memory before
	// spilling to a temporary file.
	multipartMemory = 32 << 20
	// multipartOverhead allows for form fields and part headers on top of
	// the file itself.
	multipartOverhead = 1 << 20
)

// FileHandler handles upload and retrieval of processed files
type FileHandler struct {
	service      PipelineService
	upload       config.UploadConfig
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewFileHandler creates a new file handler
func NewFileHandler(service PipelineService, upload config.UploadConfig, v *middleware.Validator,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *FileHandler {
	return &FileHandler{
		service:      service,
		upload:       upload,
		validator:    v,
		logger:       logger.With(slog.String("component", "file_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the file routes
func (h *FileHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Route("/{fileID}", func(r chi.Router) {
		r.Use(fileCtx(h.validator, h.errorHandler))
		r.Get("/", h.Get)
	})

	return r
}

// Upload handles POST /api/v1/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxSizeBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	if err := h.validator.Var("file", header.Filename, "filename"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.upload.Allows(ext) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file",
			fmt.Sprintf("Unsupported file type: %s. Supported types: %s", ext, strings.Join(h.upload.AllowedExtensions, ", "))))
		return
	}
	if header.Size > h.upload.MaxSizeBytes {
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}

	sheet := r.FormValue("sheet_name")
	if err := h.validator.Var("sheet_name", sheet, "omitempty,sheetname"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	opts, err := h.parseOptions(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	meta, err := h.service.ProcessFile(ctx, services.UploadInput{
		FileName:  header.Filename,
		Size:      header.Size,
		Content:   file,
		SheetName: sheet,
		Options:   opts,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upload failed",
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	respondOK(w, r, start, "File processed successfully", meta)
}

// parseOptions reads the JSON "options" form field. The older field name
// "cleaning_options" carries the same document.
func (h *FileHandler) parseOptions(r *http.Request) (api.UploadOptions, error) {
	var opts api.UploadOptions
	raw := r.FormValue("options")
	if raw == "" {
		raw = r.FormValue("cleaning_options")
	}
	if strings.TrimSpace(raw) == "" {
		return opts, nil
	}

	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return opts, apierrors.ErrValidation("options", fmt.Sprintf("Invalid request data: %v", err))
	}
	if err := h.validator.Struct(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// Get handles GET /api/v1/files/{fileID}
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	meta, err := h.service.File(r.Context(), fileIDFrom(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respondOK(w, r, start, "File retrieved successfully", meta)
}
