package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelcleaner/internal/config"
	"excelcleaner/internal/shared/testutil"
	api "excelcleaner/pkg/contracts/api/v1"
	"excelcleaner/pkg/contracts/domain"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.EnableTracing = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	a := newTestApp(t, testConfig())

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
	assert.NotNil(t, a.ErrorHandler)
	require.NotNil(t, a.Services)
	assert.NotNil(t, a.Services.Pipeline)
	assert.NotNil(t, a.Services.Health)
	assert.Equal(t, 10, a.Services.Store.Max())
	assert.NotNil(t, a.OTelProviders.PrometheusHTTP)
	assert.Equal(t, a.Config.Server.MaxHeaderBytes, a.Server.MaxHeaderBytes)
}

func TestNewRejectsUnknownMetricExporter(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.MetricExporter = "statsd"

	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "failed to initialize OpenTelemetry")
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t, testConfig())

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantContent string
	}{
		{"health", http.MethodGet, "/api/v1/health", http.StatusOK, "application/json"},
		{"liveness", http.MethodGet, "/api/v1/health/live", http.StatusOK, "application/json"},
		{"readiness", http.MethodGet, "/api/v1/health/ready", http.StatusOK, "application/json"},
		{"version", http.MethodGet, "/api/v1/version", http.StatusOK, "application/json"},
		{"prometheus", http.MethodGet, "/metrics", http.StatusOK, "text/plain"},
		{"runtime stats", http.MethodGet, "/metrics/runtime", http.StatusOK, "application/json"},
		{"unknown route", http.MethodGet, "/api/v1/nothing", http.StatusNotFound, "application/json"},
		{"malformed file id", http.MethodGet, "/api/v1/files/abc", http.StatusBadRequest, "application/json"},
		{"unknown file", http.MethodGet, "/api/v1/files/" + uuid.NewString(), http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantContent)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.EnableMetrics = false
	a := newTestApp(t, cfg)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadThenPivot(t *testing.T) {
	a := newTestApp(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Region,Amount\nNorth,3\nSouth,4\nNorth,5\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("options", `{"cleaning_options":{"remove_duplicates":true}}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded api.Response[domain.FileMetadata]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.True(t, uploaded.Success)
	require.NotEmpty(t, uploaded.Data.FileID)
	assert.Equal(t, 1, a.Services.Store.Len())

	pivotBody := `[{"index":["Region"],"values":["Amount"],"aggfunc":"sum"}]`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pivot/"+uploaded.Data.FileID, strings.NewReader(pivotBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pivoted api.Response[api.PivotResult]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pivoted))
	assert.Equal(t, uploaded.Data.FileID, pivoted.Data.FileID)
	assert.Equal(t, api.AllSheets, pivoted.Data.SheetName)
	require.Len(t, pivoted.Data.PivotTables, 1)
	for _, tables := range pivoted.Data.PivotTables {
		require.Len(t, tables, 1)
		assert.True(t, tables[0].Success, tables[0].Error)
		assert.Equal(t, "pivot_1", tables[0].Name)
	}
}
