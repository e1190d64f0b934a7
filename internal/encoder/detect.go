package encoder

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"video-compressor/internal/logging"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Prober answers questions about what FFmpeg on this host can do.
// The production implementation shells out to ffmpeg; tests substitute
// a fake.
type Prober interface {
	// Encoders returns the output of `ffmpeg -encoders`.
	Encoders(ctx context.Context) (string, error)
	// TryEncode runs a tiny synthetic encode with the given encoder to
	// prove the hardware path is actually invocable.
	TryEncode(ctx context.Context, encoderName, hwaccel string) error
}

// platform captures the host signals detection keys off.
type platform struct {
	goos     string
	goarch   string
	cpuModel string
}

var (
	detectOnce sync.Once
	detected   Profile
)

// Detect returns the encoding profile for this host. The first call
// probes the system; subsequent calls return the cached result. Detect
// never fails: any probing problem resolves to the software fallback,
// because compression must always be possible.
func Detect(ctx context.Context, allowHardware bool) Profile {
	detectOnce.Do(func() {
		detected = detect(ctx, ffmpegProber{}, hostPlatform(), allowHardware)
		logging.Info("Encoder detection: %s (%s)", detected.Label, detected.Encoder)
	})
	return detected
}

// detect is the testable core of Detect.
func detect(ctx context.Context, p Prober, host platform, allowHardware bool) Profile {
	if !allowHardware {
		return profileFor(SoftwareFallback)
	}

	encoders, err := p.Encoders(ctx)
	if err != nil {
		logging.Warn("ffmpeg encoder listing failed, using software encoding: %v", err)
		return profileFor(SoftwareFallback)
	}

	for _, kind := range candidates(host) {
		candidate := profileFor(kind)
		if !strings.Contains(encoders, candidate.Encoder) {
			logging.Debug("Encoder %s not advertised by ffmpeg, skipping", candidate.Encoder)
			continue
		}
		if err := p.TryEncode(ctx, candidate.Encoder, candidate.HWAccel); err != nil {
			logging.Warn("Probe encode with %s failed, demoting: %v", candidate.Encoder, err)
			continue
		}
		return candidate
	}

	return profileFor(SoftwareFallback)
}

// candidates returns hardware tiers worth probing for the host, best
// first. The software fallback is implicit and always last.
func candidates(host platform) []Kind {
	var kinds []Kind

	if host.goos == "darwin" && (host.goarch == "arm64" || host.goarch == "aarch64") {
		kinds = append(kinds, AppleHardware)
	}

	// Quick Sync only exists on Intel x86 parts. ARM Linux (commonly
	// Docker on Apple hosts) goes straight to software.
	if (host.goos == "linux" || host.goos == "windows") && host.goarch == "amd64" {
		if strings.Contains(strings.ToLower(host.cpuModel), "intel") {
			kinds = append(kinds, IntelQuickSync)
		}
	}

	return kinds
}

func hostPlatform() platform {
	host := platform{goos: runtime.GOOS, goarch: runtime.GOARCH}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		host.cpuModel = cpus[0].ModelName
	}
	return host
}

// ffmpegProber shells out to the ffmpeg binary on PATH.
type ffmpegProber struct{}

func (ffmpegProber) Encoders(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (ffmpegProber) TryEncode(ctx context.Context, encoderName, hwaccel string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "error"}
	if hwaccel != "" {
		args = append(args, "-hwaccel", hwaccel)
	}
	// One tenth of a second of black frames into the null muxer proves
	// the encoder initializes without touching the filesystem.
	args = append(args,
		"-f", "lavfi",
		"-i", "color=c=black:s=128x128:d=0.1",
		"-c:v", encoderName,
		"-f", "null", "-",
	)

	return exec.CommandContext(ctx, "ffmpeg", args...).Run()
}
