// Package metrics defines Prometheus metrics for the video compressor
// service: HTTP traffic, upload/download activity, and transcode
// outcomes. Metrics are registered via promauto at package init and
// exposed through the /metrics endpoint.
package metrics
