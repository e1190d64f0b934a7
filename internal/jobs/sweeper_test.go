package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestSweepEvictsExpiredTerminalJobs(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()
	bc := NewBroadcaster()
	sweeper := NewSweeper(store, bc, time.Hour, time.Minute)

	job := store.Create(ModeStandard, "old.mp4", writeTempFile(t, dir, "old.mp4"))
	output := writeTempFile(t, dir, "compressed_old.mp4")
	bc.Open(job.ID)

	finished := time.Now().UTC().Add(-2 * time.Hour)
	_, _ = store.Update(job.ID, func(j *Job) {
		j.State = StateCompleted
		j.CompletedAt = &finished
		j.OutputPath = output
	})

	if n := sweeper.Sweep(time.Now().UTC()); n != 1 {
		t.Fatalf("Sweep() evicted %d jobs, want 1", n)
	}

	if _, err := store.Get(job.ID); !errors.Is(err, ErrNotFound) {
		t.Error("swept job still in store")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("swept job's output file still exists")
	}
}

func TestSweepKeepsRecentAndActiveJobs(t *testing.T) {
	store := NewStore()
	bc := NewBroadcaster()
	sweeper := NewSweeper(store, bc, time.Hour, time.Minute)

	queued := store.Create(ModeStandard, "queued.mp4", "")
	running := store.Create(ModeStandard, "running.mp4", "")
	_, _, _ = store.Claim(running.ID)

	recent := store.Create(ModeStandard, "recent.mp4", "")
	finished := time.Now().UTC().Add(-time.Minute)
	_, _ = store.Update(recent.ID, func(j *Job) {
		j.State = StateCompleted
		j.CompletedAt = &finished
	})

	if n := sweeper.Sweep(time.Now().UTC()); n != 0 {
		t.Fatalf("Sweep() evicted %d jobs, want 0", n)
	}

	for _, id := range []string{queued.ID, running.ID, recent.ID} {
		if _, err := store.Get(id); err != nil {
			t.Errorf("job %s was swept but should have survived", id)
		}
	}
}

func TestSweepTreatsFailedJobsLikeCompleted(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()
	bc := NewBroadcaster()
	sweeper := NewSweeper(store, bc, time.Hour, time.Minute)

	input := writeTempFile(t, dir, "bad.mp4")
	job := store.Create(ModeDeep, "bad.mp4", input)
	finished := time.Now().UTC().Add(-90 * time.Minute)
	_, _ = store.Update(job.ID, func(j *Job) {
		j.State = StateFailed
		j.CompletedAt = &finished
		j.Error = "encode failed"
	})

	if n := sweeper.Sweep(time.Now().UTC()); n != 1 {
		t.Fatalf("Sweep() evicted %d jobs, want 1", n)
	}
	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Error("failed job's input file was not removed")
	}
}
