package handlers

import (
	"net/http"
	"runtime"

	"video-compressor/internal/jobs"
	"video-compressor/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`

	// Encoder info
	Encoder             string `json:"encoder"`
	HardwareAccelerated bool   `json:"hardwareAccelerated"`

	// Job counts
	JobsQueued    int `json:"jobsQueued"`
	JobsRunning   int `json:"jobsRunning"`
	JobsCompleted int `json:"jobsCompleted"`
	JobsFailed    int `json:"jobsFailed"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	counts := h.store.Counts()

	response := HealthResponse{
		Status:              "healthy",
		Version:             startup.Version,
		Encoder:             h.profile.Encoder,
		HardwareAccelerated: h.profile.Hardware(),
		JobsQueued:          counts[jobs.StateQueued],
		JobsRunning:         counts[jobs.StateRunning],
		JobsCompleted:       counts[jobs.StateCompleted],
		JobsFailed:          counts[jobs.StateFailed],
		GoVersion:           runtime.Version(),
		NumCPU:              runtime.NumCPU(),
		NumGoroutine:        runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the service is accepting uploads.
// The encoder profile is resolved before the listener starts, so
// readiness tracks liveness here; the endpoint exists for probe
// configurations that expect both.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}
