package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
)

// Runner abstracts spawning the external encoder. Run starts the
// process and returns its diagnostic output as a line channel plus a
// wait function reporting the exit status. The channel closes when the
// process stops producing output.
type Runner interface {
	Run(ctx context.Context, args []string) (lines <-chan string, wait func() error, err error)
}

// DurationProber reports a media file's duration in seconds, used to
// turn FFmpeg's time= readings into a percentage.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ffmpegRunner spawns the real ffmpeg binary. FFmpeg writes all
// diagnostics, including progress, to stderr.
type ffmpegRunner struct {
	binPath string
}

func (r ffmpegRunner) Run(ctx context.Context, args []string) (<-chan string, func() error, error) {
	cmd := exec.CommandContext(ctx, r.binPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanCarriageOrNewline)
		for scanner.Scan() {
			if text := scanner.Text(); text != "" {
				lines <- text
			}
		}
	}()

	return lines, cmd.Wait, nil
}

// scanCarriageOrNewline splits on \n or \r. FFmpeg rewrites its
// progress line with bare carriage returns; treating them as line
// boundaries turns every progress update into its own log line.
func scanCarriageOrNewline(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ffprobeProber asks ffprobe for the container duration.
type ffprobeProber struct {
	binPath string
}

func (p ffprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}
	output, err := exec.CommandContext(ctx, p.binPath, args...).Output()
	if err != nil {
		return 0, err
	}

	var res struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &res); err != nil {
		return 0, err
	}

	return strconv.ParseFloat(res.Format.Duration, 64)
}
