// Package streaming provides timeout-protected delivery of large HTTP
// responses.
//
// Slow or disconnected clients can otherwise hold a download handler
// open indefinitely. TimeoutWriter wraps http.ResponseWriter with
// per-write and idle timeouts and chunked flushing, so a stalled
// artifact transfer is detected and terminated instead of pinning the
// connection and the output file.
package streaming
