package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"excelcleaner/internal/infrastructure"
)

// MetricsHandler serves the Prometheus scrape endpoint and a JSON runtime
// snapshot
type MetricsHandler struct {
	prometheus http.Handler
	startTime  time.Time
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil
// when metrics are disabled; /metrics then answers 404.
func NewMetricsHandler(prometheus http.Handler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, startTime: time.Now()}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/runtime", h.GetRuntime)
	return r
}

// GetMetrics exposes the Prometheus registry
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.NotFound(w, r)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetRuntime returns process statistics
func (h *MetricsHandler) GetRuntime(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, infrastructure.CollectSystemStats(h.startTime).FormatStats())
}
