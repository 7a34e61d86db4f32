// Package pipeline sequences a merge: workspace, fetch, transform, assemble,
// publish, purge and cleanup.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/houzhh15/audiomerge/internal/audit"
	"github.com/houzhh15/audiomerge/internal/config"
	"github.com/houzhh15/audiomerge/internal/media"
	"github.com/houzhh15/audiomerge/internal/workspace"
	"github.com/houzhh15/audiomerge/pkg/logger"
	"github.com/houzhh15/audiomerge/pkg/metrics"
)

// Fetcher downloads one remote file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Publisher stores the artifact and purges temporary hosted assets.
type Publisher interface {
	Publish(ctx context.Context, localPath, identifier string) (string, error)
	Purge(ctx context.Context) error
}

// Auditor receives one entry per finished merge.
type Auditor interface {
	Record(audit.Entry)
}

// Limits bound a single merge.
type Limits struct {
	MaxFiles       int
	RequestTimeout time.Duration
}

// Dependencies wires a Controller. Auditor and Observer are optional.
type Dependencies struct {
	Workspaces *workspace.Manager
	Fetcher    Fetcher
	Toolkit    media.Toolkit
	Publisher  Publisher
	Settings   config.Settings
	Limits     Limits
	Logger     *slog.Logger
	Auditor    Auditor
	Observer   Observer
}

// Result describes a published merge.
type Result struct {
	FinalURL  string        `json:"finalUrl"`
	PublicID  string        `json:"publicId"`
	Format    string        `json:"format"`
	Segments  int           `json:"segments"`
	Assembler string        `json:"assembler"`
	Elapsed   time.Duration `json:"-"`
}

// Controller runs merges. It holds no per-request state and is safe for concurrent use.
type Controller struct {
	deps Dependencies
}

func NewController(deps Dependencies) *Controller {
	return &Controller{deps: deps}
}

// Merge runs the full pipeline for req. Once started, a merge is not cancelled
// by ctx; it is bounded by Limits.RequestTimeout instead. The workspace is
// removed on every path.
func (c *Controller) Merge(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	rid := RequestIDFromContext(ctx)
	log := c.deps.Logger.With("rid", rid, "output_name", req.OutputName)

	entry := audit.Entry{RequestID: rid, OutputName: req.OutputName, Inputs: len(req.Files)}
	defer func() {
		entry.Duration = time.Since(start)
		c.finish(log, entry, res, err)
	}()

	if err := req.Validate(c.deps.Limits.MaxFiles); err != nil {
		return nil, err
	}
	opts := req.Resolve(c.deps.Settings)
	entry.Format = opts.Format
	entry.Processing = opts.Processing

	ctx = context.WithoutCancel(ctx)
	if c.deps.Limits.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deps.Limits.RequestTimeout)
		defer cancel()
	}

	c.transition(log, StateIdle)

	ws, err := c.deps.Workspaces.Create()
	if err != nil {
		c.transition(log, StateCleanup)
		c.transition(log, StateFailed)
		return nil, NewWorkspaceError(err)
	}
	defer func() {
		c.transition(log, StateCleanup)
		c.deps.Workspaces.Destroy(ws)
		if err != nil {
			c.transition(log, StateFailed)
		} else {
			c.transition(log, StateDone)
		}
	}()
	c.transition(log, StateWorkspaceReady)

	c.transition(log, StateFetching)
	var inputs []string
	if err := c.stage(log, "fetch", func() error {
		var ferr error
		inputs, ferr = c.fetchAll(ctx, log, ws, req.Files)
		return ferr
	}); err != nil {
		return nil, err
	}

	segments := inputs
	if opts.Processing {
		c.transition(log, StateTransforming)
		t := &transformer{
			toolkit:     c.deps.Toolkit,
			ws:          ws,
			opts:        opts,
			parallelism: c.deps.Settings.TransformParallelism,
			logger:      log,
		}
		if err := c.stage(log, "transform", func() error {
			var terr error
			segments, terr = t.run(ctx, inputs)
			return terr
		}); err != nil {
			return nil, err
		}
	}
	entry.Segments = len(segments)

	c.transition(log, StateAssembling)
	assembler := newAssembler(c.deps.Toolkit, ws, opts)
	output := ws.Path(opts.Identifier + "." + opts.Format)
	if err := c.stage(log, "assemble", func() error {
		return assembler.Assemble(ctx, segments, output)
	}); err != nil {
		return nil, err
	}

	c.transition(log, StatePublishing)
	var finalURL string
	if err := c.stage(log, "publish", func() error {
		var perr error
		finalURL, perr = c.deps.Publisher.Publish(ctx, output, opts.Identifier)
		if perr != nil {
			return NewPublishError(perr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	c.purge(ctx, log)

	return &Result{
		FinalURL:  finalURL,
		PublicID:  opts.Identifier,
		Format:    opts.Format,
		Segments:  len(segments),
		Assembler: assembler.Name(),
		Elapsed:   time.Since(start),
	}, nil
}

// fetchAll downloads inputs in request order. Local names keep a whitelisted
// extension so the demuxer can recognise the container.
func (c *Controller) fetchAll(ctx context.Context, log *slog.Logger, ws *workspace.Workspace, files []string) ([]string, error) {
	paths := make([]string, len(files))
	for i, url := range files {
		name := fmt.Sprintf("part%d", i)
		if ext := media.FormatFromPath(urlPath(url)); ext != "" {
			name += "." + ext
		}
		dest := ws.Path(name)

		start := time.Now()
		if err := c.deps.Fetcher.Fetch(ctx, url, dest); err != nil {
			return nil, NewFetchError(i, url, err)
		}
		logger.LogStage(log, "fetch", "success", i, time.Since(start).Milliseconds(), "")
		paths[i] = dest
	}
	return paths, nil
}

// purge is best effort: failures are logged and counted, never returned.
func (c *Controller) purge(ctx context.Context, log *slog.Logger) {
	start := time.Now()
	err := c.deps.Publisher.Purge(ctx)
	metrics.RecordStageDuration("purge", time.Since(start).Seconds())
	if err != nil {
		perr := NewPurgeError(err)
		metrics.RecordPurgeFailure()
		log.Warn("purge failed, continuing", "error", perr)
	}
}

func (c *Controller) stage(log *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.RecordStageDuration(name, elapsed.Seconds())
	if err != nil {
		logger.LogStage(log, name, "error", -1, elapsed.Milliseconds(), string(KindOf(err)))
		return err
	}
	logger.LogStage(log, name, "success", -1, elapsed.Milliseconds(), "")
	return nil
}

func (c *Controller) transition(log *slog.Logger, s State) {
	log.Debug("merge state", "state", string(s))
	if c.deps.Observer != nil {
		c.deps.Observer(s)
	}
}

func (c *Controller) finish(log *slog.Logger, entry audit.Entry, res *Result, err error) {
	status := "success"
	switch {
	case err == nil:
		entry.Result = "success"
		entry.FinalURL = res.FinalURL
		log.Info("merge completed",
			"final_url", res.FinalURL,
			"segments", res.Segments,
			"assembler", res.Assembler,
			"duration_ms", entry.Duration.Milliseconds(),
		)
	default:
		kind := KindOf(err)
		status = string(kind)
		entry.ErrorKind = string(kind)
		entry.Error = err.Error()
		entry.Result = "failed"
		if kind == KindValidation {
			entry.Result = "rejected"
			log.Info("merge rejected", "error", err)
		} else {
			log.Error("merge failed", "error_kind", string(kind), "error", err, "duration_ms", entry.Duration.Milliseconds())
		}
	}

	metrics.RecordMergeRequest(status)
	if c.deps.Auditor != nil {
		c.deps.Auditor.Record(entry)
	}
}
