package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_compressor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_compressor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_compressor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_compressor_uploads_total",
			Help: "Total number of accepted uploads",
		},
		[]string{"mode"},
	)

	UploadRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_compressor_uploads_rejected_total",
			Help: "Total number of rejected uploads",
		},
		[]string{"reason"}, // "empty_file", "bad_mode", "too_large"
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_compressor_upload_bytes_total",
			Help: "Total bytes of uploaded video accepted for transcoding",
		},
	)

	DownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_compressor_downloads_total",
			Help: "Total number of completed artifact downloads",
		},
	)

	JobsInState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_compressor_jobs",
			Help: "Number of jobs currently tracked, by state",
		},
		[]string{"state"},
	)

	JobsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_compressor_jobs_swept_total",
			Help: "Total number of expired jobs evicted by the retention sweeper",
		},
	)
)

// Transcode metrics
var (
	TranscodesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_compressor_transcodes_active",
			Help: "Number of encoder processes currently running",
		},
	)

	TranscodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_compressor_transcodes_total",
			Help: "Total number of finished transcodes",
		},
		[]string{"mode", "status"}, // status: "completed", "failed"
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_compressor_transcode_duration_seconds",
			Help:    "Wall-clock encode duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"mode"},
	)

	BytesSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_compressor_bytes_saved_total",
			Help: "Cumulative difference between input and output sizes for completed jobs",
		},
	)
)
