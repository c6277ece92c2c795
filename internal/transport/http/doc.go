// Package http implements the HTTP handlers of the excelcleaner API. Handlers
// stay thin: they parse and validate requests, call the pipeline and health
// services and render the result.
//
// # Routes
//
// Every route lives under /api/v1:
//
//	POST /files                      upload and process a workbook or csv
//	GET  /files/{fileID}             metadata of a processed file
//	POST /pivot/{fileID}             pivot tables over cached sheets
//	POST /chart/{fileID}             chart data over cached sheets
//	GET  /export/{fileID}            download as xlsx or csv
//	POST /export/{fileID}            download with charts
//	POST /export/{fileID}/preview    describe an export without producing it
//	GET  /health, /health/live, /health/ready, /version
//
// # Error Handling
//
// Errors are rendered as RFC 7807 problem details by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Validation Failed",
//	    "status": 400,
//	    "detail": "Column validation failed",
//	    "instance": "/api/v1/pivot/3f6c..."
//	}
//
// Successful JSON responses share the api.Response envelope with success,
// message, data and processing_time_ms.
package http
