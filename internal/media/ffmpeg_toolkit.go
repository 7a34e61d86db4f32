package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/houzhh15/audiomerge/internal/executor"
)

const (
	ffmpegCommand  = "ffmpeg"
	ffprobeCommand = "ffprobe"

	// maxStderr keeps the tail of the tool's diagnostics; ffmpeg prints the cause last.
	maxStderr = 2048
)

// Commands lists the aliases FFmpegToolkit executes.
var Commands = []string{ffmpegCommand, ffprobeCommand}

// FFmpegToolkit implements Toolkit by running ffmpeg and ffprobe through an Executor.
type FFmpegToolkit struct {
	exec    executor.Executor
	builder *CommandBuilder
}

func NewFFmpegToolkit(exec executor.Executor) *FFmpegToolkit {
	return &FFmpegToolkit{exec: exec, builder: NewCommandBuilder()}
}

func (t *FFmpegToolkit) Normalize(ctx context.Context, src, dst string, channels int) error {
	_, err := t.run(ctx, ffmpegCommand, t.builder.Normalize(src, dst, channels))
	return err
}

func (t *FFmpegToolkit) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := t.run(ctx, ffprobeCommand, t.builder.Probe(path))
	if err != nil {
		return 0, err
	}
	return parseDuration(out)
}

func (t *FFmpegToolkit) Fade(ctx context.Context, src, dst string, duration, fade float64) error {
	_, err := t.run(ctx, ffmpegCommand, t.builder.Fade(src, dst, duration, fade))
	return err
}

func (t *FFmpegToolkit) Silence(ctx context.Context, dst string, seconds float64, channels int) error {
	_, err := t.run(ctx, ffmpegCommand, t.builder.Silence(dst, seconds, channels))
	return err
}

func (t *FFmpegToolkit) Concat(ctx context.Context, job ConcatJob) error {
	if len(job.Inputs) == 0 {
		return errors.New("concat: no inputs")
	}

	var args []string
	switch job.Mode {
	case ConcatManifest:
		if job.Manifest == "" {
			return errors.New("concat: manifest path required")
		}
		if err := WriteManifest(job.Manifest, job.Inputs); err != nil {
			return err
		}
		args = t.builder.ConcatCopy(job.Manifest, job.Output, job.Encoding)
	case ConcatFilterGraph:
		args = t.builder.ConcatFilter(job.Inputs, job.Output, job.Encoding, job.Compressor)
	default:
		return fmt.Errorf("concat: unknown mode %v", job.Mode)
	}

	_, err := t.run(ctx, ffmpegCommand, args)
	return err
}

func (t *FFmpegToolkit) run(ctx context.Context, command string, args []string) (string, error) {
	resp, err := t.exec.ExecuteCommand(ctx, executor.CommandRequest{Command: command, Args: args})
	if err == nil && (!resp.Success || resp.ExitCode != 0) {
		err = fmt.Errorf("exit code %d", resp.ExitCode)
	}
	if err != nil {
		return "", &ToolError{
			Command:  command,
			ExitCode: resp.ExitCode,
			Stderr:   tail(strings.TrimSpace(resp.Stderr), maxStderr),
			Err:      err,
		}
	}
	return resp.Stdout, nil
}

func parseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("duration unavailable (probe output %q)", s)
	}
	// ffprobe may print one line per entry; the first is the format duration.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("invalid duration %v", d)
	}
	return d, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
