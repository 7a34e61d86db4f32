// Package media wraps the external audio tool behind a small capability interface.
package media

import (
	"context"
	"fmt"
)

// Toolkit is the set of audio operations the merge pipeline needs.
// FFmpegToolkit is the production implementation.
type Toolkit interface {
	// Normalize resamples src to 44.1 kHz with the given channel count, writing PCM WAV to dst.
	Normalize(ctx context.Context, src, dst string, channels int) error
	// ProbeDuration returns the duration of path in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
	// Fade applies a fade-in and a fade-out of fade seconds to a clip of duration seconds.
	Fade(ctx context.Context, src, dst string, duration, fade float64) error
	// Silence writes seconds of silence to dst.
	Silence(ctx context.Context, dst string, seconds float64, channels int) error
	// Concat joins job.Inputs in order into job.Output.
	Concat(ctx context.Context, job ConcatJob) error
}

// ConcatMode selects how segments are joined.
type ConcatMode int

const (
	// ConcatManifest uses the concat demuxer over a generated manifest file.
	ConcatManifest ConcatMode = iota
	// ConcatFilterGraph uses the concat filter over N labelled inputs.
	ConcatFilterGraph
)

func (m ConcatMode) String() string {
	switch m {
	case ConcatManifest:
		return "manifest"
	case ConcatFilterGraph:
		return "filter"
	default:
		return fmt.Sprintf("ConcatMode(%d)", int(m))
	}
}

// ConcatJob is one assemble invocation.
type ConcatJob struct {
	Mode     ConcatMode
	Inputs   []string
	Output   string
	Encoding Encoding
	// Manifest is where the segment list is written in ConcatManifest mode.
	Manifest string
	// Compressor is chained after the concat filter when set (ConcatFilterGraph only).
	Compressor *CompressorPreset
}

// ToolError reports a failed external tool run together with its diagnostic output.
type ToolError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed (exit code %d): %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s failed (exit code %d): %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
