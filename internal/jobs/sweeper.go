package jobs

import (
	"os"
	"time"

	"video-compressor/internal/logging"
	"video-compressor/internal/metrics"
)

// Sweeper evicts terminal jobs that were never downloaded. A completed
// job normally disappears when its artifact is downloaded; the sweeper
// is the backstop for abandoned jobs so temp and output files cannot
// accumulate indefinitely. Queued and running jobs are never touched.
type Sweeper struct {
	store       *Store
	broadcaster *Broadcaster
	retention   time.Duration
	interval    time.Duration
	stopChan    chan struct{}
}

// NewSweeper creates a sweeper over the given store and broadcaster.
func NewSweeper(store *Store, broadcaster *Broadcaster, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:       store,
		broadcaster: broadcaster,
		retention:   retention,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start() {
	go s.loop()
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.stopChan)
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep(time.Now().UTC())
		}
	}
}

// Sweep removes every terminal job whose terminal transition is older
// than the retention window, along with its files and log stream. It
// returns the number of jobs evicted.
func (s *Sweeper) Sweep(now time.Time) int {
	evicted := 0
	for _, job := range s.store.List() {
		if !job.State.Terminal() || job.CompletedAt == nil {
			continue
		}
		if now.Sub(*job.CompletedAt) < s.retention {
			continue
		}

		removeFile(job.InputPath)
		removeFile(job.OutputPath)
		s.broadcaster.Remove(job.ID)
		if err := s.store.Delete(job.ID); err == nil {
			evicted++
			metrics.JobsSweptTotal.Inc()
			logging.Info("Swept expired job %s (%s)", job.ID, job.State)
		}
	}
	return evicted
}

func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove %s: %v", path, err)
	}
}
