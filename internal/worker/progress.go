package worker

import (
	"regexp"
	"strconv"
)

// Matches FFmpeg's "time=00:01:23.45" stderr readings.
var timeRe = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// progressFrom extracts a completion percentage from one FFmpeg output
// line. totalSec is the probed input duration; with an unknown duration
// no percentage can be derived.
func progressFrom(line string, totalSec float64) (float64, bool) {
	if totalSec <= 0 {
		return 0, false
	}

	m := timeRe.FindStringSubmatch(line)
	if len(m) != 4 {
		return 0, false
	}

	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.ParseFloat(m[3], 64)
	currentSec := float64(h*3600+min*60) + s

	pct := currentSec / totalSec * 100
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
