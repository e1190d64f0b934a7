package encoder

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Kind identifies an encoding backend tier.
type Kind string

const (
	// AppleHardware is VideoToolbox encoding on Apple Silicon.
	AppleHardware Kind = "apple_hardware"
	// IntelQuickSync is Quick Sync encoding on Intel silicon.
	IntelQuickSync Kind = "intel_quicksync"
	// SoftwareFallback is CPU-only libx265 encoding.
	SoftwareFallback Kind = "software"
)

// FFmpeg encoder and hwaccel identifiers per tier.
const (
	encoderVideoToolbox = "hevc_videotoolbox"
	encoderQuickSync    = "hevc_qsv"
	encoderSoftware     = "libx265"

	hwaccelVideoToolbox = "videotoolbox"
	hwaccelQuickSync    = "qsv"
)

// Profile describes the encoding backend selected for this host.
// Exactly one profile is active per process; it is computed once at
// startup and never re-evaluated.
type Profile struct {
	Kind    Kind   `json:"kind"`
	Encoder string `json:"encoder"`
	HWAccel string `json:"hwaccel,omitempty"`
	Label   string `json:"label"`
}

// Hardware reports whether the profile uses a hardware encode path.
func (p Profile) Hardware() bool {
	return p.Kind != SoftwareFallback
}

func profileFor(kind Kind) Profile {
	switch kind {
	case AppleHardware:
		return Profile{
			Kind:    AppleHardware,
			Encoder: encoderVideoToolbox,
			HWAccel: hwaccelVideoToolbox,
			Label:   "Apple VideoToolbox",
		}
	case IntelQuickSync:
		return Profile{
			Kind:    IntelQuickSync,
			Encoder: encoderQuickSync,
			HWAccel: hwaccelQuickSync,
			Label:   "Intel Quick Sync",
		}
	default:
		return Profile{
			Kind:    SoftwareFallback,
			Encoder: encoderSoftware,
			Label:   "Software (CPU)",
		}
	}
}

// HostInfo summarizes the host hardware for diagnostics endpoints.
type HostInfo struct {
	CPUModel string `json:"cpuModel"`
	NumCPU   int    `json:"numCpu"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
}

// Host gathers static hardware facts. Failures degrade to partial info
// rather than erroring since this is diagnostic data only.
func Host() HostInfo {
	info := HostInfo{
		CPUModel: "unknown",
		NumCPU:   runtime.NumCPU(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	return info
}
