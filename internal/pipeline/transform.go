package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/audiomerge/internal/media"
	"github.com/houzhh15/audiomerge/internal/workspace"
	"github.com/houzhh15/audiomerge/pkg/logger"
)

// transformer prepares downloaded inputs for filtered concatenation.
type transformer struct {
	toolkit     media.Toolkit
	ws          *workspace.Workspace
	opts        Options
	parallelism int
	logger      *slog.Logger
}

// run normalizes, probes and fades every input, then returns the ordered
// segment list with silence interleaved when configured.
func (t *transformer) run(ctx context.Context, inputs []string) ([]string, error) {
	var silence string
	if t.opts.SilenceMs > 0 && len(inputs) > 1 {
		silence = t.ws.Path("silence.wav")
		seconds := float64(t.opts.SilenceMs) / 1000
		if err := t.toolkit.Silence(ctx, silence, seconds, t.opts.Channels); err != nil {
			return nil, NewTransformError(-1, err)
		}
	}

	clips := make([]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.parallelism, 1))
	for i, in := range inputs {
		g.Go(func() error {
			out, err := t.prepare(gctx, i, in)
			if err != nil {
				return err
			}
			clips[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return interleave(clips, silence), nil
}

// prepare runs normalize, probe and fade for one input. Each step needs the previous one's output.
func (t *transformer) prepare(ctx context.Context, index int, src string) (string, error) {
	start := time.Now()

	normalized := t.ws.Path(fmt.Sprintf("norm%d.wav", index))
	if err := t.toolkit.Normalize(ctx, src, normalized, t.opts.Channels); err != nil {
		return "", NewTransformError(index, err)
	}

	if t.opts.FadeMs == 0 {
		logger.LogStage(t.logger, "transform", "success", index, time.Since(start).Milliseconds(), "")
		return normalized, nil
	}

	duration, err := t.toolkit.ProbeDuration(ctx, normalized)
	if err != nil {
		return "", NewProbeError(index, err)
	}

	faded := t.ws.Path(fmt.Sprintf("fade%d.wav", index))
	fade := float64(t.opts.FadeMs) / 1000
	if err := t.toolkit.Fade(ctx, normalized, faded, duration, fade); err != nil {
		return "", NewTransformError(index, err)
	}

	t.logger.Debug("input prepared",
		"index", index,
		"duration_s", duration,
		"fade_out_start_s", media.FadeOutStart(duration, fade),
	)
	logger.LogStage(t.logger, "transform", "success", index, time.Since(start).Milliseconds(), "")
	return faded, nil
}
