// Package app provides application initialization and lifecycle management
// for the review web service. It wires configuration, logging, metrics,
// the review service and the HTTP server together, and handles graceful
// shutdown.
//
// # Initialization Flow
//
//	1. Load configuration from environment and files
//	2. Initialize logging and Prometheus metrics
//	3. Initialize the review store and review service
//	4. Set up HTTP handlers and middleware
//	5. Configure and start the HTTP server
//	6. Open the browser once the health endpoint answers
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM to let active requests finish
// before the server stops. Initialization errors are returned to the
// caller; the package never calls os.Exit() directly.
package app
