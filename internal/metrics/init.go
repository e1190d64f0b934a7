package metrics

// InitializeMetrics pre-populates expected label combinations so every
// metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, mode := range []string{"standard", "deep"} {
		UploadsTotal.WithLabelValues(mode)
		TranscodeDuration.WithLabelValues(mode)
		for _, status := range []string{"completed", "failed"} {
			TranscodesTotal.WithLabelValues(mode, status)
		}
	}

	for _, reason := range []string{"empty_file", "bad_mode", "too_large"} {
		UploadRejectedTotal.WithLabelValues(reason)
	}

	for _, state := range []string{"queued", "running", "completed", "failed"} {
		JobsInState.WithLabelValues(state)
	}
}
