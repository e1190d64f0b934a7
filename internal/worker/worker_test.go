package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"video-compressor/internal/encoder"
	"video-compressor/internal/jobs"
)

// fakeRunner scripts the external encoder: it emits the configured
// lines, optionally writes the output file (the final argument), and
// exits with the configured error.
type fakeRunner struct {
	mu          sync.Mutex
	calls       int
	lines       []string
	exitErr     error
	spawnErr    error
	writeOutput []byte
	block       bool
}

func (f *fakeRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRunner) Run(ctx context.Context, args []string) (<-chan string, func() error, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.spawnErr != nil {
		return nil, nil, f.spawnErr
	}

	outputPath := args[len(args)-1]
	out := make(chan string)
	done := make(chan error, 1)

	go func() {
		defer close(out)
		for _, line := range f.lines {
			select {
			case out <- line:
			case <-ctx.Done():
				done <- ctx.Err()
				return
			}
		}
		if f.block {
			<-ctx.Done()
			done <- ctx.Err()
			return
		}
		if f.exitErr == nil && f.writeOutput != nil {
			_ = os.WriteFile(outputPath, f.writeOutput, 0o644)
		}
		done <- f.exitErr
	}()

	return out, func() error { return <-done }, nil
}

type fakeProber struct {
	duration float64
	err      error
}

func (f fakeProber) Duration(context.Context, string) (float64, error) {
	return f.duration, f.err
}

type fixture struct {
	worker *Worker
	store  *jobs.Store
	bc     *jobs.Broadcaster
	outDir string
}

func newFixture(t *testing.T, runner Runner, prober DurationProber) *fixture {
	t.Helper()
	store := jobs.NewStore()
	bc := jobs.NewBroadcaster()
	outDir := t.TempDir()

	w := New(encoder.Profile{Kind: encoder.SoftwareFallback, Encoder: "libx265", Label: "Software (CPU)"},
		store, bc, outDir, 2)
	w.runner = runner
	w.prober = prober

	return &fixture{worker: w, store: store, bc: bc, outDir: outDir}
}

func (f *fixture) createJob(t *testing.T, mode jobs.Mode) jobs.Job {
	t.Helper()
	input := filepath.Join(t.TempDir(), "input.mp4")
	if err := os.WriteFile(input, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	job := f.store.Create(mode, "input.mp4", input)
	f.bc.Open(job.ID)
	return job
}

func TestRunCompletesJob(t *testing.T) {
	runner := &fakeRunner{
		lines: []string{
			"Stream mapping: 0:0 -> 0:0",
			"time=00:00:05.00 bitrate=800k",
			"time=00:00:10.00 bitrate=800k",
		},
		writeOutput: []byte("tiny"),
	}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.run(context.Background(), job.ID)

	got, err := f.store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.State != jobs.StateCompleted {
		t.Fatalf("state = %v (error %q), want completed", got.State, got.Error)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %v, want 100", got.Progress)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if got.OriginalSize != int64(len("fake video bytes")) {
		t.Errorf("originalSize = %d", got.OriginalSize)
	}
	if got.CompressedSize != 4 {
		t.Errorf("compressedSize = %d, want 4", got.CompressedSize)
	}
	if got.CompressionRatio <= 0 {
		t.Errorf("compressionRatio = %v, want > 0", got.CompressionRatio)
	}

	if _, err := os.Stat(job.InputPath); !os.IsNotExist(err) {
		t.Error("input temp file not removed after completion")
	}
	if _, err := os.Stat(got.OutputPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunForwardsLogLinesInOrder(t *testing.T) {
	runner := &fakeRunner{
		lines:       []string{"first", "second", "third"},
		writeOutput: []byte("x"),
	}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	ch := f.bc.Subscribe(context.Background(), job.ID)
	f.worker.run(context.Background(), job.ID)

	var got []string
	for line := range ch {
		got = append(got, line)
	}

	// First line is the worker's start banner, then the process output
	// verbatim and in order, then the completion summary.
	var processLines []string
	for _, line := range got {
		switch line {
		case "first", "second", "third":
			processLines = append(processLines, line)
		}
	}
	if strings.Join(processLines, ",") != "first,second,third" {
		t.Errorf("process lines out of order or missing: %v", got)
	}
}

func TestRunFailsOnNonZeroExit(t *testing.T) {
	runner := &fakeRunner{
		lines:   []string{"some diagnostic", "moov atom not found"},
		exitErr: errors.New("exit status 1"),
	}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeDeep)

	f.worker.run(context.Background(), job.ID)

	got, _ := f.store.Get(job.ID)
	if got.State != jobs.StateFailed {
		t.Fatalf("state = %v, want failed", got.State)
	}
	if got.Error == "" {
		t.Error("errorMessage empty on failure")
	}
	if !strings.Contains(got.Error, "moov atom not found") {
		t.Errorf("error should carry the diagnostic tail, got %q", got.Error)
	}
	if got.CompletedAt == nil {
		t.Error("terminal time not set on failure")
	}

	if _, err := os.Stat(job.InputPath); !os.IsNotExist(err) {
		t.Error("input temp file not removed after failure")
	}
	if _, err := os.Stat(got.OutputPath); !os.IsNotExist(err) {
		t.Error("partial output left behind after failure")
	}
}

func TestRunFailsOnSpawnError(t *testing.T) {
	runner := &fakeRunner{spawnErr: errors.New("executable not found")}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.run(context.Background(), job.ID)

	got, _ := f.store.Get(job.ID)
	if got.State != jobs.StateFailed {
		t.Fatalf("state = %v, want failed", got.State)
	}
	if !strings.Contains(got.Error, "failed to start encoder") {
		t.Errorf("error = %q, want spawn diagnostic", got.Error)
	}
}

func TestRunFailsOnEmptyOutput(t *testing.T) {
	// Clean exit but no output file written.
	runner := &fakeRunner{lines: []string{"looks fine"}}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.run(context.Background(), job.ID)

	got, _ := f.store.Get(job.ID)
	if got.State != jobs.StateFailed {
		t.Fatalf("state = %v, want failed", got.State)
	}
	if !strings.Contains(got.Error, "no output") {
		t.Errorf("error = %q, want missing-output diagnostic", got.Error)
	}
}

func TestRunProgressNeverRegresses(t *testing.T) {
	runner := &fakeRunner{
		lines: []string{
			"time=00:00:08.00",
			"time=00:00:03.00", // spurious lower reading
			"time=00:00:06.00",
		},
		exitErr: errors.New("exit status 1"),
	}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.run(context.Background(), job.ID)

	got, _ := f.store.Get(job.ID)
	if got.Progress != 80 {
		t.Errorf("progress = %v, want 80 (highest reading)", got.Progress)
	}
}

func TestRunWithUnknownDurationStillCompletes(t *testing.T) {
	runner := &fakeRunner{
		lines:       []string{"time=00:00:05.00"},
		writeOutput: []byte("x"),
	}
	f := newFixture(t, runner, fakeProber{err: errors.New("probe failed")})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.run(context.Background(), job.ID)

	got, _ := f.store.Get(job.ID)
	if got.State != jobs.StateCompleted {
		t.Fatalf("state = %v, want completed despite probe failure", got.State)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %v, want 100", got.Progress)
	}
}

func TestDuplicateDispatchIsNoOp(t *testing.T) {
	runner := &fakeRunner{writeOutput: []byte("x")}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.run(context.Background(), job.ID)
	f.worker.run(context.Background(), job.ID) // job is terminal now

	if runner.Calls() != 1 {
		t.Errorf("encoder spawned %d times, want 1", runner.Calls())
	}
}

func TestCancelKillsRunningJob(t *testing.T) {
	runner := &fakeRunner{lines: []string{"running"}, block: true}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	done := make(chan struct{})
	go func() {
		f.worker.run(context.Background(), job.ID)
		close(done)
	}()

	// Wait for the job to reach running, then cancel it.
	deadline := time.After(2 * time.Second)
	for {
		got, _ := f.store.Get(job.ID)
		if got.State == jobs.StateRunning {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never reached running")
		case <-time.After(5 * time.Millisecond):
		}
	}
	f.worker.Cancel(job.ID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not settle after cancel")
	}

	got, _ := f.store.Get(job.ID)
	if got.State != jobs.StateFailed {
		t.Errorf("state after cancel = %v, want failed", got.State)
	}
}

func TestShutdownWaitsForDispatchedJobs(t *testing.T) {
	runner := &fakeRunner{lines: []string{"running"}, block: true}
	f := newFixture(t, runner, fakeProber{duration: 10})
	job := f.createJob(t, jobs.ModeStandard)

	f.worker.Dispatch(context.Background(), job.ID)

	deadline := time.After(2 * time.Second)
	for {
		got, _ := f.store.Get(job.ID)
		if got.State == jobs.StateRunning {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never reached running")
		case <-time.After(5 * time.Millisecond):
		}
	}

	settled := make(chan struct{})
	go func() {
		f.worker.Shutdown()
		close(settled)
	}()

	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown() did not terminate the running encoder")
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName(jobs.ModeStandard, "clip.mp4"); got != "compressed_clip.mp4" {
		t.Errorf("OutputName(standard) = %q", got)
	}
	if got := OutputName(jobs.ModeDeep, "clip.mp4"); got != "deepcompressed_clip.mp4" {
		t.Errorf("OutputName(deep) = %q", got)
	}
}
