package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats holds a snapshot of process statistics
type SystemStats struct {
	GoRoutines  int
	MemoryUsage uint64
	MemorySys   uint64
	GCCount     uint32
	CPUCount    int
	Uptime      time.Duration
	Timestamp   time.Time
}

// CollectSystemStats reads the current runtime statistics
func CollectSystemStats(startTime time.Time) SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemStats{
		GoRoutines:  runtime.NumGoroutine(),
		MemoryUsage: memStats.Alloc,
		MemorySys:   memStats.Sys,
		GCCount:     memStats.NumGC,
		CPUCount:    runtime.NumCPU(),
		Uptime:      time.Since(startTime),
		Timestamp:   time.Now(),
	}
}

// FormatStats returns a JSON friendly representation of the stats
func (s SystemStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"goroutines":      s.GoRoutines,
		"memory_usage_mb": s.MemoryUsage / 1024 / 1024,
		"memory_sys_mb":   s.MemorySys / 1024 / 1024,
		"gc_count":        s.GCCount,
		"cpu_count":       s.CPUCount,
		"uptime_seconds":  int64(s.Uptime.Seconds()),
	}
}

// RegisterGauge exposes fn as an asynchronous gauge observed at every
// collection
func RegisterGauge(meter metric.Meter, name, description string, fn func() int64) error {
	_, err := meter.Int64ObservableGauge(
		name,
		metric.WithDescription(description),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}),
	)
	return err
}
