package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"video-compressor/internal/encoder"
	"video-compressor/internal/jobs"
	"video-compressor/internal/logging"
	"video-compressor/internal/metrics"
)

// errorTailLines is how many trailing output lines are kept as the
// failure diagnostic when the encoder exits non-zero.
const errorTailLines = 5

// Worker executes transcode jobs against the active encoder profile.
// One Worker serves the whole process; each dispatched job runs in its
// own goroutine, bounded by a concurrency semaphore.
type Worker struct {
	profile     encoder.Profile
	store       *jobs.Store
	broadcaster *jobs.Broadcaster
	outputDir   string

	runner Runner
	prober DurationProber

	sem chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a worker. maxConcurrent bounds how many encoder
// processes may run at once; hardware profiles should be bounded low
// since hardware encode units are typically singular per device.
func New(profile encoder.Profile, store *jobs.Store, broadcaster *jobs.Broadcaster, outputDir string, maxConcurrent int) *Worker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Worker{
		profile:     profile,
		store:       store,
		broadcaster: broadcaster,
		outputDir:   outputDir,
		runner:      ffmpegRunner{binPath: "ffmpeg"},
		prober:      ffprobeProber{binPath: "ffprobe"},
		sem:         make(chan struct{}, maxConcurrent),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// OutputName returns the downloadable filename for a job, prefixed by
// compression mode.
func OutputName(mode jobs.Mode, filename string) string {
	if mode == jobs.ModeDeep {
		return "deepcompressed_" + filename
	}
	return "compressed_" + filename
}

// Dispatch schedules the job for background execution and returns
// immediately. The job stays queued until a semaphore slot frees up.
// The encode outlives the caller's request; only Cancel or Shutdown
// stops it.
func (w *Worker) Dispatch(ctx context.Context, jobID string) {
	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx, jobID)
	}()
}

// Cancel kills the encoder process for a running job, if any.
func (w *Worker) Cancel(jobID string) {
	w.mu.Lock()
	cancel, ok := w.cancels[jobID]
	w.mu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown kills every running encoder process and waits for all
// dispatched jobs to settle. No encoder process survives the server.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	for _, cancel := range w.cancels {
		cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, jobID string) {
	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-w.sem }()

	job, claimed, err := w.store.Claim(jobID)
	if err != nil {
		logging.Warn("Job %s vanished before the worker claimed it", jobID)
		return
	}
	if !claimed {
		// Duplicate dispatch; another worker owns this job.
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.mu.Lock()
	w.cancels[jobID] = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.cancels, jobID)
		w.mu.Unlock()
	}()

	// The input temp file never outlives the encode attempt.
	defer removeQuietly(job.InputPath)

	originalSize := fileSize(job.InputPath)
	outputPath := filepath.Join(w.outputDir, job.ID+"_"+OutputName(job.Mode, job.Filename))
	if _, err := w.store.Update(jobID, func(j *jobs.Job) {
		j.OutputPath = outputPath
		j.OriginalSize = originalSize
	}); err != nil {
		return
	}

	w.broadcaster.Append(jobID, fmt.Sprintf("Starting %s compression for %s using %s", job.Mode, job.Filename, w.profile.Encoder))

	durationSec, err := w.prober.Duration(runCtx, job.InputPath)
	if err != nil {
		// Progress stays at 0 until completion; the encode itself will
		// surface a real failure if the input is unreadable.
		logging.Debug("Duration probe failed for job %s: %v", jobID, err)
		durationSec = 0
	}

	args := encoder.BuildArgs(w.profile, job.Mode == jobs.ModeDeep, job.InputPath, outputPath)

	metrics.TranscodesActive.Inc()
	defer metrics.TranscodesActive.Dec()
	started := time.Now()

	lines, wait, err := w.runner.Run(runCtx, args)
	if err != nil {
		w.fail(jobID, job.Mode, fmt.Sprintf("failed to start encoder: %v", err))
		removeQuietly(outputPath)
		return
	}

	var tail []string
	for line := range lines {
		w.broadcaster.Append(jobID, line)

		tail = append(tail, line)
		if len(tail) > errorTailLines {
			tail = tail[1:]
		}

		if pct, ok := progressFrom(line, durationSec); ok {
			_, _ = w.store.Update(jobID, func(j *jobs.Job) {
				// Never regress on a spurious lower reading.
				if pct > j.Progress {
					j.Progress = pct
				}
			})
		}
	}

	exitErr := wait()
	elapsed := time.Since(started)

	if exitErr != nil {
		msg := fmt.Sprintf("encoder exited with error: %v", exitErr)
		if runCtx.Err() != nil {
			msg = "encode canceled"
		} else if len(tail) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.Join(tail, " | "))
		}
		w.fail(jobID, job.Mode, msg)
		removeQuietly(outputPath)
		return
	}

	compressedSize := fileSize(outputPath)
	if compressedSize <= 0 {
		w.fail(jobID, job.Mode, "encoder exited cleanly but produced no output")
		removeQuietly(outputPath)
		return
	}

	now := time.Now().UTC()
	ratio := 0.0
	if originalSize > 0 {
		ratio = (1 - float64(compressedSize)/float64(originalSize)) * 100
	}

	_, _ = w.store.Update(jobID, func(j *jobs.Job) {
		j.State = jobs.StateCompleted
		j.Progress = 100
		j.CompletedAt = &now
		j.CompressedSize = compressedSize
		j.CompressionRatio = ratio
	})

	metrics.TranscodesTotal.WithLabelValues(string(job.Mode), "completed").Inc()
	metrics.TranscodeDuration.WithLabelValues(string(job.Mode)).Observe(elapsed.Seconds())
	if saved := originalSize - compressedSize; saved > 0 {
		metrics.BytesSavedTotal.Add(float64(saved))
	}

	w.broadcaster.Append(jobID, fmt.Sprintf("Compression finished: %d -> %d bytes (%.1f%% saved)", originalSize, compressedSize, ratio))
	w.broadcaster.Close(jobID)

	logging.Info("Job %s completed in %s: %s (%.1f%% saved)", jobID, elapsed.Round(time.Second), OutputName(job.Mode, job.Filename), ratio)
}

// fail drives the job to its failed terminal state. Failures are fully
// contained: they end this job only and surface through status and the
// log stream, never as an error to the upload caller.
func (w *Worker) fail(jobID string, mode jobs.Mode, msg string) {
	now := time.Now().UTC()
	_, err := w.store.Update(jobID, func(j *jobs.Job) {
		if j.State.Terminal() {
			return
		}
		j.State = jobs.StateFailed
		j.CompletedAt = &now
		j.Error = msg
	})
	if err == nil {
		metrics.TranscodesTotal.WithLabelValues(string(mode), "failed").Inc()
	}

	w.broadcaster.Append(jobID, "ERROR: "+msg)
	w.broadcaster.Close(jobID)

	logging.Error("Job %s failed: %s", jobID, msg)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove %s: %v", path, err)
	}
}
