package jobs

import (
	"context"
	"sync"
)

// Broadcaster fans out per-job log lines to any number of subscribers.
// Every subscriber sees the complete backlog followed by live lines in
// production order, regardless of when it attached. Appending never
// blocks on slow subscribers: each subscriber drains the shared backlog
// at its own cursor.
type Broadcaster struct {
	mu      sync.Mutex
	streams map[string]*stream
}

type stream struct {
	mu    sync.Mutex
	cond  *sync.Cond
	lines []string
	done  bool
}

func newStream() *stream {
	st := &stream{}
	st.cond = sync.NewCond(&st.mu)
	return st
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{streams: make(map[string]*stream)}
}

// Open creates the log stream for a job. Opening twice is a no-op so
// the caller does not need to coordinate with retries.
func (b *Broadcaster) Open(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.streams[id]; !ok {
		b.streams[id] = newStream()
	}
}

// Append records a line and wakes all waiting subscribers. Appending
// to an unknown or closed stream is dropped silently; the job may have
// been purged mid-run.
func (b *Broadcaster) Append(id, line string) {
	b.mu.Lock()
	st, ok := b.streams[id]
	b.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	if !st.done {
		st.lines = append(st.lines, line)
	}
	st.mu.Unlock()
	st.cond.Broadcast()
}

// Close marks the stream finished. Subscribers drain whatever backlog
// remains and then terminate. Lines appended after Close are dropped.
func (b *Broadcaster) Close(id string) {
	b.mu.Lock()
	st, ok := b.streams[id]
	b.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	st.done = true
	st.mu.Unlock()
	st.cond.Broadcast()
}

// Remove drops the stream entirely, releasing its backlog. Any live
// subscribers are terminated as if the stream had closed.
func (b *Broadcaster) Remove(id string) {
	b.mu.Lock()
	st, ok := b.streams[id]
	delete(b.streams, id)
	b.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	st.done = true
	st.mu.Unlock()
	st.cond.Broadcast()
}

// Subscribe returns an ordered view of the job's log: the backlog so
// far, then live lines as they arrive. The channel closes once the
// stream is closed and fully drained, or when ctx is canceled.
// Subscribing to an unknown job yields an immediately closed channel,
// tolerating races between job creation and subscription.
func (b *Broadcaster) Subscribe(ctx context.Context, id string) <-chan string {
	out := make(chan string)

	b.mu.Lock()
	st, ok := b.streams[id]
	b.mu.Unlock()
	if !ok {
		close(out)
		return out
	}

	go st.feed(ctx, out)
	return out
}

// feed walks the backlog with a private cursor, sleeping on the stream
// condition while caught up.
func (st *stream) feed(ctx context.Context, out chan<- string) {
	defer close(out)

	// Wake the cond wait below when the subscriber goes away.
	stop := context.AfterFunc(ctx, st.cond.Broadcast)
	defer stop()

	cursor := 0
	for {
		st.mu.Lock()
		for cursor == len(st.lines) && !st.done && ctx.Err() == nil {
			st.cond.Wait()
		}
		if ctx.Err() != nil {
			st.mu.Unlock()
			return
		}
		if cursor == len(st.lines) {
			// done and fully drained
			st.mu.Unlock()
			return
		}
		line := st.lines[cursor]
		cursor++
		st.mu.Unlock()

		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}
}
