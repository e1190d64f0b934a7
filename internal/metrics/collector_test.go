package metrics

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeStatsProvider struct {
	counts map[string]int
	calls  atomic.Int64
}

func (f *fakeStatsProvider) JobCounts() map[string]int {
	f.calls.Add(1)
	return f.counts
}

func TestCollectorPollsProvider(t *testing.T) {
	provider := &fakeStatsProvider{counts: map[string]int{"queued": 2, "running": 1}}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	defer collector.Stop()

	deadline := time.After(time.Second)
	for provider.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("collector polled provider %d times, want at least 2", provider.calls.Load())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestCollectorNilProvider(t *testing.T) {
	collector := NewCollector(nil, 10*time.Millisecond)
	collector.Start()
	time.Sleep(30 * time.Millisecond)
	collector.Stop() // must not panic
}
