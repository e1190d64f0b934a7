package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"video-compressor/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port            string
	TempDir         string
	OutputDir       string
	MaxUploadBytes  int64
	MaxHardwareJobs int
	MaxSoftwareJobs int
	JobRetention    time.Duration
	SweepInterval   time.Duration
	DisableHWAccel  bool
	MetricsEnabled  bool
	LogHealthChecks bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	tempDir := getEnv("TEMP_DIR", "/tmp/video-compressor")
	outputDir := getEnv("OUTPUT_DIR", "/output")
	maxUploadBytes := getEnvInt64("MAX_UPLOAD_BYTES", 4<<30)
	maxHardwareJobs := getEnvInt("MAX_HARDWARE_JOBS", 1)
	maxSoftwareJobs := getEnvInt("MAX_SOFTWARE_JOBS", 0)
	retentionStr := getEnv("JOB_RETENTION", "1h")
	sweepIntervalStr := getEnv("SWEEP_INTERVAL", "5m")
	disableHWAccel := getEnvBool("DISABLE_HWACCEL", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)

	logging.Info("  PORT:               %s", port)
	logging.Info("  TEMP_DIR:           %s", tempDir)
	logging.Info("  OUTPUT_DIR:         %s", outputDir)
	logging.Info("  MAX_UPLOAD_BYTES:   %d", maxUploadBytes)
	logging.Info("  MAX_HARDWARE_JOBS:  %d", maxHardwareJobs)
	logging.Info("  MAX_SOFTWARE_JOBS:  %d (0 = derive from CPU count)", maxSoftwareJobs)
	logging.Info("  JOB_RETENTION:      %s", retentionStr)
	logging.Info("  SWEEP_INTERVAL:     %s", sweepIntervalStr)
	logging.Info("  DISABLE_HWACCEL:    %v", disableHWAccel)
	logging.Info("  METRICS_ENABLED:    %v", metricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:  %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	retention, err := time.ParseDuration(retentionStr)
	if err != nil {
		logging.Warn("  Invalid JOB_RETENTION, using default: 1h")
		retention = time.Hour
	}

	sweepInterval, err := time.ParseDuration(sweepIntervalStr)
	if err != nil {
		logging.Warn("  Invalid SWEEP_INTERVAL, using default: 5m")
		sweepInterval = 5 * time.Minute
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	tempDir, err = filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
	}
	logging.Info("  Temp directory (absolute):   %s", tempDir)

	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}
	logging.Info("  Output directory (absolute): %s", outputDir)

	// Both directories are required; uploads land in temp, encoded
	// results in output.
	if err := ensureDirectory(tempDir, "temp"); err != nil {
		return nil, fmt.Errorf("temp directory error: %w", err)
	}
	logging.Debug("  Testing temp directory write access...")
	if err := testWriteAccess(tempDir); err != nil {
		return nil, fmt.Errorf("temp directory is not writable (required for uploads): %w", err)
	}
	logging.Info("  [OK] Temp directory is writable")

	if err := ensureDirectory(outputDir, "output"); err != nil {
		return nil, fmt.Errorf("output directory error: %w", err)
	}
	logging.Debug("  Testing output directory write access...")
	if err := testWriteAccess(outputDir); err != nil {
		return nil, fmt.Errorf("output directory is not writable (required for encodes): %w", err)
	}
	logging.Info("  [OK] Output directory is writable")

	config := &Config{
		Port:            port,
		TempDir:         tempDir,
		OutputDir:       outputDir,
		MaxUploadBytes:  maxUploadBytes,
		MaxHardwareJobs: maxHardwareJobs,
		MaxSoftwareJobs: maxSoftwareJobs,
		JobRetention:    retention,
		SweepInterval:   sweepInterval,
		DisableHWAccel:  disableHWAccel,
		MetricsEnabled:  metricsEnabled,
		LogHealthChecks: logHealthChecks,
	}

	return config, nil
}

// LogEncoderInit logs encoder detection and checks the FFmpeg install
func LogEncoderInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENCODER DETECTION")
	logging.Info("------------------------------------------------------------")

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video compression will not work until ffmpeg is installed")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// LogEncoderSelected logs the chosen encoder profile
func LogEncoderSelected(label, encoder string, hardware bool) {
	if hardware {
		logging.Info("  [OK] Hardware encoder selected: %s (%s)", label, encoder)
	} else {
		logging.Info("  Software encoder selected: %s (%s)", label, encoder)
	}
}

// LogWorkerInit logs worker pool initialization
func LogWorkerInit(concurrency int, hardware bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WORKER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if hardware {
		logging.Info("  Concurrency: %d (hardware encode slots)", concurrency)
	} else {
		logging.Info("  Concurrency: %d (software encode workers)", concurrency)
	}
}

// LogSweeperInit logs retention sweeper initialization
func LogSweeperInit(retention, interval time.Duration) {
	logging.Info("  Job retention: %v (sweep every %v)", retention, interval)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "video" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "video/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
 _    ___     __             ______
| |  / (_)___/ /__  ____    / ____/___  ____ ___  ____
| | / / / __  / _ \/ __ \  / /   / __ \/ __ '__ \/ __ \
| |/ / / /_/ /  __/ /_/ / / /___/ /_/ / / / / / / /_/ /
|___/_/\__,_/\___/\____/  \____/\____/_/ /_/ /_/ .___/
                                              /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed, leftover file is harmless
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
