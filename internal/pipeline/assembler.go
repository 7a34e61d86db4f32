package pipeline

import (
	"context"
	"errors"

	"github.com/houzhh15/audiomerge/internal/media"
	"github.com/houzhh15/audiomerge/internal/workspace"
)

// Assembler joins ordered segments into the final artifact.
type Assembler interface {
	Assemble(ctx context.Context, segments []string, output string) error
	Name() string
}

// copyAssembler serves the no-processing path: concat demuxer over a manifest,
// stream copy when the inputs already match the output encoding.
type copyAssembler struct {
	toolkit  media.Toolkit
	manifest string
	encoding media.Encoding
}

func (a *copyAssembler) Name() string { return "copy" }

func (a *copyAssembler) Assemble(ctx context.Context, segments []string, output string) error {
	if len(segments) == 0 {
		return NewAssembleError(errors.New("no segments"))
	}
	err := a.toolkit.Concat(ctx, media.ConcatJob{
		Mode:     media.ConcatManifest,
		Inputs:   segments,
		Output:   output,
		Manifest: a.manifest,
		Encoding: a.encoding,
	})
	if err != nil {
		return NewAssembleError(err)
	}
	return nil
}

// filterAssembler serves the processing path: concat filter over transformed
// segments, optionally followed by a compressor.
type filterAssembler struct {
	toolkit    media.Toolkit
	encoding   media.Encoding
	compressor *media.CompressorPreset
}

func (a *filterAssembler) Name() string { return "filter" }

func (a *filterAssembler) Assemble(ctx context.Context, segments []string, output string) error {
	if len(segments) == 0 {
		return NewAssembleError(errors.New("no segments"))
	}
	err := a.toolkit.Concat(ctx, media.ConcatJob{
		Mode:       media.ConcatFilterGraph,
		Inputs:     segments,
		Output:     output,
		Encoding:   a.encoding,
		Compressor: a.compressor,
	})
	if err != nil {
		return NewAssembleError(err)
	}
	return nil
}

// newAssembler picks the strategy once per request.
func newAssembler(toolkit media.Toolkit, ws *workspace.Workspace, opts Options) Assembler {
	encoding := media.Encoding{
		Format:   opts.Format,
		Bitrate:  opts.Bitrate,
		Channels: opts.Channels,
		Resample: true,
	}

	if !opts.Processing {
		if opts.CopyStreams {
			encoding = media.Encoding{Copy: true}
		}
		return &copyAssembler{
			toolkit:  toolkit,
			manifest: ws.Path("concat.txt"),
			encoding: encoding,
		}
	}

	return &filterAssembler{
		toolkit:    toolkit,
		encoding:   encoding,
		compressor: opts.Compressor,
	}
}
