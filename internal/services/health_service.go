package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"excelcleaner/internal/infrastructure"
	"excelcleaner/pkg/contracts"
	api "excelcleaner/pkg/contracts/api/v1"
)

// Health states reported by HealthService.
const (
	StatusOK       = "ok"
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// CacheStats is the part of the file cache the health checks read.
type CacheStats interface {
	Len() int
	Max() int
}

// ComponentHealth is the readiness of one dependency.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthService provides health check functionality
type HealthService struct {
	cache     CacheStats
	engine    bool
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. engineReady reports whether
// the calculation engine was constructed.
func NewHealthService(cache CacheStats, engineReady bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		cache:     cache,
		engine:    engineReady,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthStatus {
	status := hs.status(StatusOK)
	status.Runtime = infrastructure.CollectSystemStats(hs.startTime).FormatStats()
	status.Checks = map[string]any{"cache": hs.cacheStats()}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) api.HealthStatus {
	status := hs.status(StatusAlive)
	status.Runtime = map[string]any{
		"uptime_seconds": time.Since(hs.startTime).Seconds(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	}
	return status
}

// ReadinessCheck reports not_ready when any dependency is unavailable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) api.HealthStatus {
	status := hs.status(StatusReady)
	checks := map[string]ComponentHealth{
		"cache":       hs.checkCache(),
		"calculation": hs.checkEngine(),
	}

	status.Checks = make(map[string]any, len(checks))
	for name, check := range checks {
		status.Checks[name] = check
		if check.Status != StatusReady {
			status.Status = StatusNotReady
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "service not ready", slog.Any("checks", status.Checks))
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) status(state string) api.HealthStatus {
	return api.HealthStatus{
		Status:    state,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   contracts.Version,
	}
}

func (hs *HealthService) cacheStats() map[string]any {
	if hs.cache == nil {
		return nil
	}
	return map[string]any{
		"cached_files": hs.cache.Len(),
		"max_files":    hs.cache.Max(),
	}
}

func (hs *HealthService) checkCache() ComponentHealth {
	if hs.cache == nil || hs.cache.Max() <= 0 {
		return ComponentHealth{Status: StatusNotReady, Message: "file cache not initialized"}
	}
	return ComponentHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d of %d files cached", hs.cache.Len(), hs.cache.Max()),
	}
}

func (hs *HealthService) checkEngine() ComponentHealth {
	if !hs.engine {
		return ComponentHealth{Status: StatusNotReady, Message: "calculation engine not initialized"}
	}
	return ComponentHealth{Status: StatusReady}
}
