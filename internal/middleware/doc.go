// Package middleware provides HTTP middleware for the video compressor
// service.
//
// It includes:
//   - Request logging with log-injection sanitization
//   - Prometheus metrics instrumentation
//   - Configurable filtering for health check endpoints
package middleware
