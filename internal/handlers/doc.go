// Package handlers implements the HTTP API: video upload, job status,
// live log streaming, result download, and the health/version
// endpoints.
package handlers
