// Package http provides the HTTP API implementation.
//
// The HTTP server exposes endpoints for:
//   - Creating and listing introductions
//   - The static greeting routes
//   - Health checks
//   - Prometheus metrics
package http
