// Package config provides centralized configuration management for the
// excelcleaner service.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default() values
//	2. A YAML file (EXCEL_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// Every variable is prefixed with EXCEL and follows the struct layout:
//
//	EXCEL_SERVER_PORT=8000
//	EXCEL_LOGGING_LEVEL=debug
//	EXCEL_UPLOAD_MAX_SIZE_BYTES=16777216
//	EXCEL_UPLOAD_ALLOWED_EXTENSIONS=.xlsx,.csv
//	EXCEL_CACHE_MAX_FILES=10
//	EXCEL_CALCULATION_ALLOW_CUSTOM=false
//	EXCEL_SECURITY_RATE_LIMIT_RPS=20
//	EXCEL_TELEMETRY_ENABLE_TRACING=true
//
// # Validation
//
// Load rejects the configuration when any setting is invalid and reports
// all problems in one error.
package config
