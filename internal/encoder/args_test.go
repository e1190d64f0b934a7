package encoder

import (
	"strings"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		deep        bool
		wantParts   []string
		forbidParts []string
	}{
		{
			name:      "videotoolbox standard",
			kind:      AppleHardware,
			wantParts: []string{"-hwaccel videotoolbox", "-c:v hevc_videotoolbox", "-b:v 2M", "-q:v 65"},
		},
		{
			name:      "videotoolbox deep lowers bitrate",
			kind:      AppleHardware,
			deep:      true,
			wantParts: []string{"-b:v 1M", "-q:v 50"},
		},
		{
			name:      "quicksync standard",
			kind:      IntelQuickSync,
			wantParts: []string{"-hwaccel qsv", "-c:v hevc_qsv", "-global_quality 25", "-preset slow"},
		},
		{
			name:      "quicksync deep",
			kind:      IntelQuickSync,
			deep:      true,
			wantParts: []string{"-global_quality 30", "-preset veryslow"},
		},
		{
			name:        "software standard has no hwaccel",
			kind:        SoftwareFallback,
			wantParts:   []string{"-c:v libx265", "-crf 26", "-preset medium"},
			forbidParts: []string{"-hwaccel"},
		},
		{
			name:      "software deep",
			kind:      SoftwareFallback,
			deep:      true,
			wantParts: []string{"-crf 30", "-preset veryslow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := BuildArgs(profileFor(tt.kind), tt.deep, "/tmp/in.mp4", "/out/compressed_in.mp4")
			joined := strings.Join(args, " ")

			for _, part := range tt.wantParts {
				if !strings.Contains(joined, part) {
					t.Errorf("args missing %q: %s", part, joined)
				}
			}
			for _, part := range tt.forbidParts {
				if strings.Contains(joined, part) {
					t.Errorf("args must not contain %q: %s", part, joined)
				}
			}
		})
	}
}

func TestBuildArgsCommonTail(t *testing.T) {
	for _, kind := range []Kind{AppleHardware, IntelQuickSync, SoftwareFallback} {
		args := BuildArgs(profileFor(kind), false, "/tmp/in.mp4", "/out/compressed_in.mp4")
		joined := strings.Join(args, " ")

		for _, part := range []string{
			"-i /tmp/in.mp4",
			"-c:a aac",
			"-b:a 128k",
			"-tag:v hvc1",
			"-movflags +faststart",
		} {
			if !strings.Contains(joined, part) {
				t.Errorf("%s: args missing %q: %s", kind, part, joined)
			}
		}

		if args[len(args)-1] != "/out/compressed_in.mp4" {
			t.Errorf("%s: output path must be the final argument, got %q", kind, args[len(args)-1])
		}
		if args[len(args)-2] != "-y" {
			t.Errorf("%s: -y must precede the output path", kind)
		}
	}
}

func TestBuildArgsHWAccelPrecedesInput(t *testing.T) {
	args := BuildArgs(profileFor(AppleHardware), false, "in.mp4", "out.mp4")
	joined := strings.Join(args, " ")
	if !strings.HasPrefix(joined, "-hwaccel videotoolbox -i ") {
		t.Errorf("-hwaccel must come before -i: %s", joined)
	}
}
