// Package app wires the service together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and EXCEL_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Create the processed-file cache, calculation engine and services
//  4. Build the chi router with middleware and handlers
//  5. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down within
// the configured shutdown timeout.
package app
