package jobs

import (
	"fmt"
	"time"
)

// State is a job lifecycle state. Transitions follow
// Queued -> Running -> Completed|Failed; terminal states are final.
type State string

const (
	// StateQueued means the job is accepted but no worker has claimed it.
	StateQueued State = "queued"
	// StateRunning means the encoder process is active.
	StateRunning State = "running"
	// StateCompleted means the output file is ready for download.
	StateCompleted State = "completed"
	// StateFailed means the encode failed; Error holds the diagnostic.
	StateFailed State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Mode selects the compression profile for a job.
type Mode string

const (
	// ModeStandard balances quality and size.
	ModeStandard Mode = "standard"
	// ModeDeep trades encode time for a smaller file.
	ModeDeep Mode = "deep"
)

// ParseMode validates a client-supplied mode string. An empty string
// defaults to standard, matching the upload form's default.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStandard, "":
		return ModeStandard, nil
	case ModeDeep:
		return ModeDeep, nil
	default:
		return "", fmt.Errorf("invalid compression mode %q", s)
	}
}

// Job is one submitted transcode and its tracked lifecycle. The store
// hands out copies; only Store.Update mutates the canonical record.
type Job struct {
	ID       string `json:"jobId"`
	State    State  `json:"state"`
	Mode     Mode   `json:"mode"`
	Filename string `json:"filename"`

	InputPath  string `json:"-"`
	OutputPath string `json:"-"`

	// Progress is 0-100 and never regresses while running.
	Progress float64 `json:"progress"`

	CreatedAt time.Time `json:"createdAt"`
	// CompletedAt is the terminal transition time, set for both
	// completed and failed jobs. The sweeper keys retention off it.
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Error string `json:"error,omitempty"`

	// Size accounting, populated on successful completion.
	OriginalSize     int64   `json:"originalSize,omitempty"`
	CompressedSize   int64   `json:"compressedSize,omitempty"`
	CompressionRatio float64 `json:"compressionRatio,omitempty"`
}
