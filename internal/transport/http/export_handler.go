package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/middleware"
	api "excelcleaner/pkg/contracts/api/v1"
)

var exportFormats = []string{api.FormatExcel, api.FormatCSV, api.FormatPDF}

// ExportHandler streams exported files
type ExportHandler struct {
	service      PipelineService
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service PipelineService, v *middleware.Validator,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		validator:    v,
		query:        middleware.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the routes mounted at /export
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{fileID}", func(r chi.Router) {
		r.Use(fileCtx(h.validator, h.errorHandler))
		r.Get("/", h.Export)
		r.With(jsonBody(h.errorHandler)).Post("/", h.Export)
		r.With(jsonBody(h.errorHandler)).Post("/preview", h.Preview)
	})
	return r
}

// Export handles GET and POST /api/v1/export/{fileID}. A POST body may
// carry chart configs per sheet.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, req, ok := h.parse(w, r)
	if !ok {
		return
	}

	out, err := h.service.Export(ctx, fileIDFrom(ctx), q, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Content); err != nil {
		h.logger.WarnContext(ctx, "failed to write export",
			slog.String("file_name", out.FileName),
			slog.String("error", err.Error()))
	}
}

// Preview handles POST /api/v1/export/{fileID}/preview
func (h *ExportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	q, req, ok := h.parse(w, r)
	if !ok {
		return
	}

	preview, err := h.service.ExportPreview(ctx, fileIDFrom(ctx), q, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Preview of %d sheet(s) to be exported as %s", len(preview.Sheets), strings.ToUpper(q.Format))
	respondOK(w, r, start, msg, preview)
}

// parse reads the query parameters and, for POST, the optional body. It
// writes the error response itself and reports false on failure.
func (h *ExportHandler) parse(w http.ResponseWriter, r *http.Request) (api.ExportQuery, api.ExportRequest, bool) {
	var (
		q   api.ExportQuery
		req api.ExportRequest
		ok  bool
	)

	if q.Format, ok = h.query.ValidateEnum(w, r, "format", exportFormats, api.FormatExcel); !ok {
		return q, req, false
	}
	if q.IncludeCharts, ok = h.query.ValidateBool(w, r, "include_charts", false); !ok {
		return q, req, false
	}
	q.SheetName = sheetNameFrom(r.Context())
	if err := h.validator.Struct(&q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return q, req, false
	}

	if r.Method == http.MethodPost {
		if err := h.validator.DecodeJSON(r, &req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return q, req, false
		}
	}
	return q, req, true
}
