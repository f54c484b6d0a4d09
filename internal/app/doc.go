// Package app wires the process-level pieces shared by the skywatch
// binaries: command line flags, configuration, telemetry, the HTTP server
// and graceful shutdown.
package app
