package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"video-compressor/internal/encoder"
	"video-compressor/internal/jobs"
	"video-compressor/internal/logging"
	"video-compressor/internal/metrics"
	"video-compressor/internal/streaming"
	"video-compressor/internal/worker"

	"github.com/gorilla/mux"
)

// EncoderInfoResponse describes the active encoding backend.
type EncoderInfoResponse struct {
	encoder.Profile
	HardwareAccelerated bool             `json:"hardwareAccelerated"`
	Host                encoder.HostInfo `json:"host"`
}

// GetEncoderInfo returns the encoder profile selected at startup.
// GET /video/encoder-info
func (h *Handlers) GetEncoderInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, EncoderInfoResponse{
		Profile:             h.profile,
		HardwareAccelerated: h.profile.Hardware(),
		Host:                encoder.Host(),
	})
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	JobID    string `json:"jobId"`
	State    string `json:"state"`
	Mode     string `json:"mode"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Encoder  string `json:"encoder"`
}

// UploadVideo accepts a multipart video upload and dispatches an
// asynchronous compression job. The call returns as soon as the job
// is queued.
// POST /video/upload
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	mode, err := jobs.ParseMode(r.FormValue("mode"))
	if err != nil {
		metrics.UploadRejectedTotal.WithLabelValues("bad_mode").Inc()
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.UploadRejectedTotal.WithLabelValues("too_large").Inc()
			writeJSONError(w, fmt.Sprintf("upload exceeds %d byte limit", h.maxUpload), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close upload stream: %v", err)
		}
	}()

	if header.Size == 0 {
		metrics.UploadRejectedTotal.WithLabelValues("empty_file").Inc()
		writeJSONError(w, "uploaded file is empty", http.StatusBadRequest)
		return
	}

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "upload.mp4"
	}

	// Spool the upload to a temp file before the job exists so a
	// failed transfer never leaves a record behind.
	tmp, err := os.CreateTemp(h.tempDir, "upload_*"+filepath.Ext(filename))
	if err != nil {
		logging.Error("failed to create temp file for upload: %v", err)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	written, err := io.Copy(tmp, file)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		if err == nil {
			err = closeErr
		}
		removeQuietly(tmp.Name())
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.UploadRejectedTotal.WithLabelValues("too_large").Inc()
			writeJSONError(w, fmt.Sprintf("upload exceeds %d byte limit", h.maxUpload), http.StatusRequestEntityTooLarge)
			return
		}
		logging.Error("failed to write upload to disk: %v", err)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	if written == 0 {
		removeQuietly(tmp.Name())
		metrics.UploadRejectedTotal.WithLabelValues("empty_file").Inc()
		writeJSONError(w, "uploaded file is empty", http.StatusBadRequest)
		return
	}

	job := h.store.Create(mode, filename, tmp.Name())
	h.broadcaster.Open(job.ID)
	h.dispatcher.Dispatch(r.Context(), job.ID)

	metrics.UploadsTotal.WithLabelValues(string(mode)).Inc()
	metrics.UploadBytes.Add(float64(written))

	logging.Info("Upload accepted: job=%s mode=%s file=%s size=%d", job.ID, mode, filename, written)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, UploadResponse{
		JobID:    job.ID,
		State:    string(job.State),
		Mode:     string(job.Mode),
		Filename: job.Filename,
		Size:     written,
		Encoder:  h.profile.Encoder,
	})
}

// GetJobStatus returns a snapshot of a single job.
// GET /video/status/{id}
func (h *Handlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	job, err := h.store.Get(id)
	if err != nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, job)
}

// StreamJobLogs streams encoder output for a job as server-sent
// events. Late subscribers receive the full backlog first; the stream
// ends once the job reaches a terminal state. An unknown id yields an
// immediately terminated stream rather than an error.
// GET /video/logs/{id}
func (h *Handlers) StreamJobLogs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for line := range h.broadcaster.Subscribe(r.Context(), id) {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
			// Client went away; the subscription drains via context
			// cancellation when the handler returns.
			return
		}
		flusher.Flush()
	}
}

// DownloadVideo serves the compressed output for a completed job and
// then deletes the job and its files. Download is at-most-once: the
// record is claimed atomically, so a concurrent or repeated request
// for the same id gets a 404.
// GET /video/download/{id}
func (h *Handlers) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	job, err := h.store.Get(id)
	if err != nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}

	if job.State != jobs.StateCompleted {
		writeJSONError(w, fmt.Sprintf("job is %s, not completed", job.State), http.StatusConflict)
		return
	}

	// Claim the record before touching the file. Losing the race means
	// someone else is already serving this download.
	if err := h.store.Delete(id); err != nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(job.OutputPath)
	if err != nil {
		logging.Error("output file missing for job %s: %v", id, err)
		h.cleanupJobFiles(job)
		writeJSONError(w, "output file unavailable", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close output file: %v", err)
		}
	}()

	downloadName := worker.OutputName(job.Mode, job.Filename)
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	}

	sent, err := streaming.StreamWithTimeout(r.Context(), w, f, streaming.DefaultConfig())
	if err != nil {
		logging.Warn("download of job %s interrupted after %d bytes: %v", id, sent, err)
	} else {
		metrics.DownloadsTotal.Inc()
		logging.Info("Download complete: job=%s bytes=%d", id, sent)
	}

	h.cleanupJobFiles(job)
}

// cleanupJobFiles removes a job's files and log stream after its
// record has already been deleted.
func (h *Handlers) cleanupJobFiles(job jobs.Job) {
	if job.OutputPath != "" {
		removeQuietly(job.OutputPath)
	}
	if job.InputPath != "" {
		removeQuietly(job.InputPath)
	}
	h.broadcaster.Remove(job.ID)
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove %s: %v", path, err)
	}
}
