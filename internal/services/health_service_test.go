package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelcleaner/internal/shared/testutil"
	"excelcleaner/pkg/contracts"
)

func TestHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	store := NewFileStore(3)
	store.Put("a", &ProcessedFile{ID: "a"})

	hs := NewHealthService(store, true, logger)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		status := hs.HealthCheck(ctx)
		assert.Equal(t, StatusOK, status.Status)
		assert.Equal(t, contracts.Version, status.Version)
		assert.Contains(t, status.Runtime, "goroutines")
		assert.Equal(t, map[string]any{"cached_files": 1, "max_files": 3}, status.Checks["cache"])
	})

	t.Run("liveness", func(t *testing.T) {
		status := hs.LivenessCheck(ctx)
		assert.Equal(t, StatusAlive, status.Status)
		assert.Contains(t, status.Runtime, "go_version")
	})

	t.Run("ready", func(t *testing.T) {
		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, StatusReady, status.Status)
		require.Contains(t, status.Checks, "cache")
		assert.Equal(t, "1 of 3 files cached", status.Checks["cache"].(ComponentHealth).Message)
	})

	t.Run("version", func(t *testing.T) {
		info := hs.Version()
		assert.Equal(t, contracts.ServiceName, info.Service)
		assert.Equal(t, contracts.Version, info.Version)
	})
}

func TestHealthServiceNotReady(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthService(nil, false, logger)

	status := hs.ReadinessCheck(context.Background())

	assert.Equal(t, StatusNotReady, status.Status)
	assert.Equal(t, StatusNotReady, status.Checks["calculation"].(ComponentHealth).Status)
	assert.True(t, logs.ContainsMessage("service not ready"))
}
