// Package services implements the business logic layer between the HTTP
// handlers and the table packages.
//
// PipelineService turns an upload into cleaned and calculated sheets, keeps
// them in a bounded in-memory cache under a generated file id, and serves
// pivots, chart data and exports from that cache. HealthService reports
// liveness, readiness and version information.
//
// Every operation takes a context, is traced with OpenTelemetry and records
// pipeline metrics. Failures are returned as *errors.AppError values so the
// transport layer can map them onto RFC 7807 responses.
package services
