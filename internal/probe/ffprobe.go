// Package probe measures audio durations by shelling out to ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

const defaultProbeTimeout = 30 * time.Second

// ErrDurationMissing is returned when ffprobe output carries no duration.
var ErrDurationMissing = errors.New("probe output has no duration")

// probeFormat mirrors the "format" object of ffprobe's JSON output. ffprobe
// reports the duration as a decimal string.
type probeFormat struct {
	Duration string `json:"duration"`
}

type probeOutput struct {
	Format probeFormat `json:"format"`
}

// FFProbe measures durations by invoking the ffprobe binary.
type FFProbe struct {
	timeout time.Duration
}

// NewFFProbe creates a prober. A non-positive timeout selects the default.
func NewFFProbe(timeout time.Duration) *FFProbe {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	return &FFProbe{timeout: timeout}
}

// Duration returns the duration of the audio file at path, in seconds.
func (p *FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	data, err := ffmpeggo.ProbeWithTimeout(path, p.probeTimeout(ctx), nil)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %q: %w", path, err)
	}

	return parseDuration(data)
}

// probeTimeout bounds the probe by the context deadline when one is set and
// sooner than the configured timeout.
func (p *FFProbe) probeTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return p.timeout
	}

	remaining := time.Until(deadline)
	if remaining <= 0 || remaining >= p.timeout {
		return p.timeout
	}

	return remaining
}

func parseDuration(data string) (float64, error) {
	var out probeOutput

	err := json.Unmarshal([]byte(data), &out)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if out.Format.Duration == "" {
		return 0, ErrDurationMissing
	}

	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf(
			"invalid duration %q in ffprobe output: %w",
			out.Format.Duration,
			err,
		)
	}

	return seconds, nil
}
