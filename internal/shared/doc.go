// Package shared holds helpers used across packages that belong to no
// single layer.
//
// The testutil subpackage captures slog records so tests can assert on
// what a component logged:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewHealthService(nil, false, logger)
//	svc.ReadinessCheck(ctx)
//	assert.NotEmpty(t, logs.AtLevel(slog.LevelWarn))
package shared
