package metrics

import (
	"time"

	"video-compressor/internal/logging"
)

// StatsProvider reports the current job population. The jobs store
// satisfies this through a small adapter in main.
type StatsProvider interface {
	JobCounts() map[string]int
}

// Collector periodically refreshes the per-state job gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	counts := c.statsProvider.JobCounts()
	for _, state := range []string{"queued", "running", "completed", "failed"} {
		JobsInState.WithLabelValues(state).Set(float64(counts[state]))
	}

	logging.Debug("Metrics collected: queued=%d running=%d completed=%d failed=%d",
		counts["queued"], counts["running"], counts["completed"], counts["failed"])
}
