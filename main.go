// Video Compressor is a self-hosted HEVC compression service. Clients
// upload a video and a compression mode, the best available encoder on
// the host (VideoToolbox, Quick Sync, or libx265) transcodes it in the
// background, and the client follows progress by polling status or
// streaming the encoder log, then downloads the result exactly once.
//
// Startup sequence: memory limit configuration, environment config,
// encoder detection, job store and worker pool, retention sweeper,
// metrics collector, HTTP server. Shutdown reverses it: the listener
// drains, encoder processes are killed, background loops stop.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-compressor/internal/encoder"
	"video-compressor/internal/handlers"
	"video-compressor/internal/jobs"
	"video-compressor/internal/logging"
	"video-compressor/internal/memory"
	"video-compressor/internal/metrics"
	"video-compressor/internal/middleware"
	"video-compressor/internal/startup"
	"video-compressor/internal/worker"
	"video-compressor/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Size the Go heap before anything allocates; ffmpeg children need
	// the rest of the container's memory
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Detect the encoding backend once; every job uses the same profile
	startup.LogEncoderInit()
	detectCtx, detectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	profile := encoder.Detect(detectCtx, !config.DisableHWAccel)
	detectCancel()
	startup.LogEncoderSelected(profile.Label, profile.Encoder, profile.Hardware())

	// Job state and log streams
	store := jobs.NewStore()
	broadcaster := jobs.NewBroadcaster()

	// Worker pool sized by encode path: hardware encoders are serialized
	// per device, software encodes scale with CPU count
	concurrency := config.MaxHardwareJobs
	if !profile.Hardware() {
		concurrency = workers.ForEncode(config.MaxSoftwareJobs)
	}
	startup.LogWorkerInit(concurrency, profile.Hardware())
	pool := worker.New(profile, store, broadcaster, config.OutputDir, concurrency)

	// Retention sweeper for jobs that are never downloaded
	sweeper := jobs.NewSweeper(store, broadcaster, config.JobRetention, config.SweepInterval)
	sweeper.Start()
	startup.LogSweeperInit(config.JobRetention, config.SweepInterval)

	// Metrics
	var collector *metrics.Collector
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		collector = metrics.NewCollector(storeStats{store}, 15*time.Second)
		collector.Start()
	}

	// Initialize handlers
	h := handlers.New(profile, store, broadcaster, pool, config)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware (innermost, so it sees the final status)
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	// Create server. WriteTimeout stays 0 because log streams and large
	// downloads are open-ended; per-write deadlines are enforced by the
	// streaming writer instead.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, pool, sweeper, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// storeStats adapts the job store to the metrics collector.
type storeStats struct {
	store *jobs.Store
}

func (s storeStats) JobCounts() map[string]int {
	counts := s.store.Counts()
	out := make(map[string]int, len(counts))
	for state, n := range counts {
		out[string(state)] = n
	}
	return out
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Video compression API
	video := r.PathPrefix("/video").Subrouter()
	video.HandleFunc("/encoder-info", h.GetEncoderInfo).Methods("GET")
	video.HandleFunc("/upload", h.UploadVideo).Methods("POST")
	video.HandleFunc("/status/{id}", h.GetJobStatus).Methods("GET")
	video.HandleFunc("/logs/{id}", h.StreamJobLogs).Methods("GET")
	video.HandleFunc("/download/{id}", h.DownloadVideo).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	return r
}

func handleShutdown(srv *http.Server, pool *worker.Worker, sweeper *jobs.Sweeper, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping encode workers")
	pool.Shutdown()
	startup.LogShutdownStepComplete("Encode workers stopped")

	startup.LogShutdownStep("Stopping retention sweeper")
	sweeper.Stop()
	startup.LogShutdownStepComplete("Retention sweeper stopped")

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
}
