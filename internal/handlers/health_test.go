package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"video-compressor/internal/jobs"
	"video-compressor/internal/startup"
)

func TestHealthCheck(t *testing.T) {
	h, store, _, _ := setupTestHandlers(t)
	store.Create(jobs.ModeStandard, "a.mp4", "/tmp/a.mp4")
	store.Create(jobs.ModeDeep, "b.mp4", "/tmp/b.mp4")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.JobsQueued != 2 {
		t.Errorf("jobsQueued = %d, want 2", resp.JobsQueued)
	}
	if resp.Encoder != "libx265" {
		t.Errorf("encoder = %q", resp.Encoder)
	}
	if resp.GoVersion == "" || resp.NumCPU <= 0 {
		t.Error("system info missing")
	}
}

func TestLivenessCheck(t *testing.T) {
	h, _, _, _ := setupTestHandlers(t)

	req := httptest.NewRequest("GET", "/livez", nil)
	w := httptest.NewRecorder()
	h.LivenessCheck(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("GET liveness should have a body")
	}
}

func TestLivenessCheckHeadRequest(t *testing.T) {
	h, _, _, _ := setupTestHandlers(t)

	req := httptest.NewRequest("HEAD", "/livez", nil)
	w := httptest.NewRecorder()
	h.LivenessCheck(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Error("HEAD liveness should have no body")
	}
}

func TestReadinessCheck(t *testing.T) {
	h, _, _, _ := setupTestHandlers(t)

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	h.ReadinessCheck(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestGetVersion(t *testing.T) {
	h, _, _, _ := setupTestHandlers(t)

	req := httptest.NewRequest("GET", "/version", nil)
	w := httptest.NewRecorder()
	h.GetVersion(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if info.Version == "" {
		t.Error("version missing")
	}
	if info.GoVersion == "" {
		t.Error("goVersion missing")
	}
}
