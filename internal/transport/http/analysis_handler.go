package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/middleware"
	api "excelcleaner/pkg/contracts/api/v1"
)

// AnalysisHandler serves pivot tables and chart data over cached files
type AnalysisHandler struct {
	service      PipelineService
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service PipelineService, v *middleware.Validator,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validator:    v,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// PivotRoutes returns the routes mounted at /pivot
func (h *AnalysisHandler) PivotRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(fileCtx(h.validator, h.errorHandler), jsonBody(h.errorHandler)).Post("/{fileID}", h.Pivot)
	return r
}

// ChartRoutes returns the routes mounted at /chart
func (h *AnalysisHandler) ChartRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(fileCtx(h.validator, h.errorHandler), jsonBody(h.errorHandler)).Post("/{fileID}", h.Chart)
	return r
}

// Pivot handles POST /api/v1/pivot/{fileID}
func (h *AnalysisHandler) Pivot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req api.PivotRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Pivot(ctx, fileIDFrom(ctx), sheetNameFrom(ctx), req.Configs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	respondOK(w, r, start, fmt.Sprintf("Generated %d pivot table(s)", len(req.Configs)), result)
}

// Chart handles POST /api/v1/chart/{fileID}
func (h *AnalysisHandler) Chart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req api.ChartRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.ChartData(ctx, fileIDFrom(ctx), sheetNameFrom(ctx), req.Configs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	respondOK(w, r, start, fmt.Sprintf("Generated %d chart(s)", len(req.Configs)), result)
}
