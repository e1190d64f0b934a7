package handlers

import (
	"context"

	"video-compressor/internal/encoder"
	"video-compressor/internal/jobs"
	"video-compressor/internal/startup"
)

// Dispatcher hands a queued job to the encode worker pool.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string)
}

type Handlers struct {
	profile     encoder.Profile
	store       *jobs.Store
	broadcaster *jobs.Broadcaster
	dispatcher  Dispatcher
	tempDir     string
	maxUpload   int64
}

func New(profile encoder.Profile, store *jobs.Store, broadcaster *jobs.Broadcaster, dispatcher Dispatcher, config *startup.Config) *Handlers {
	return &Handlers{
		profile:     profile,
		store:       store,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		tempDir:     config.TempDir,
		maxUpload:   config.MaxUploadBytes,
	}
}
