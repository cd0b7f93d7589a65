// Package httpserver wraps net/http with graceful shutdown, signal
// handling, lifecycle hooks and a combined liveness/readiness handler.
package httpserver
