// Package app wires the electoral analysis server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from environment and the optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Build the Engine: source catalog, optional SQL backend, loader,
//	   dataset cache and analysis service
//	4. Set up HTTP handlers and middleware
//	5. Configure the HTTP server
//
// The Engine is shared with the analyze command, so the web server and the
// CLI compute identical views from identical sources.
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
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// ServerConfig.ShutdownTimeout, closes the SQL backend and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
