package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/houzhh15/audiomerge/internal/audit"
	"github.com/houzhh15/audiomerge/internal/config"
	"github.com/houzhh15/audiomerge/internal/media"
	"github.com/houzhh15/audiomerge/internal/workspace"
)

// fakeToolkit records every call and writes placeholder outputs.
type fakeToolkit struct {
	mu sync.Mutex

	durations  map[string]float64 // by normalized path basename
	delay      func(src string) time.Duration
	normErr    map[int]error
	probeErr   map[int]error
	silenceErr error
	concatErr  error

	normalized []string
	fades      []fadeCall
	silences   []float64
	jobs       []media.ConcatJob
}

type fadeCall struct {
	src, dst       string
	duration, fade float64
}

func newFakeToolkit() *fakeToolkit {
	return &fakeToolkit{durations: map[string]float64{}, normErr: map[int]error{}, probeErr: map[int]error{}}
}

func indexOf(path string) int {
	var i int
	base := filepath.Base(path)
	for _, pattern := range []string{"part%d", "norm%d.wav"} {
		if _, err := fmt.Sscanf(base, pattern, &i); err == nil {
			return i
		}
	}
	return -1
}

func touch(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}

func (f *fakeToolkit) Normalize(ctx context.Context, src, dst string, channels int) error {
	if f.delay != nil {
		time.Sleep(f.delay(src))
	}
	f.mu.Lock()
	f.normalized = append(f.normalized, src)
	err := f.normErr[indexOf(src)]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return touch(dst)
}

func (f *fakeToolkit) ProbeDuration(ctx context.Context, path string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.probeErr[indexOf(path)]; err != nil {
		return 0, err
	}
	if d, ok := f.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return 10, nil
}

func (f *fakeToolkit) Fade(ctx context.Context, src, dst string, duration, fade float64) error {
	f.mu.Lock()
	f.fades = append(f.fades, fadeCall{src: src, dst: dst, duration: duration, fade: fade})
	f.mu.Unlock()
	return touch(dst)
}

func (f *fakeToolkit) Silence(ctx context.Context, dst string, seconds float64, channels int) error {
	f.mu.Lock()
	f.silences = append(f.silences, seconds)
	f.mu.Unlock()
	if f.silenceErr != nil {
		return f.silenceErr
	}
	return touch(dst)
}

func (f *fakeToolkit) Concat(ctx context.Context, job media.ConcatJob) error {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if f.concatErr != nil {
		return f.concatErr
	}
	return touch(job.Output)
}

func (f *fakeToolkit) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.normalized) + len(f.fades) + len(f.silences) + len(f.jobs)
}

// fakeFetcher writes a small file per URL unless an error is configured.
type fakeFetcher struct {
	errs    map[string]error
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, dest string) error {
	f.fetched = append(f.fetched, url)
	if err := f.errs[url]; err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("audio:"+url), 0o644)
}

type fakePublisher struct {
	url        string
	publishErr error
	purgeErr   error

	published []string
	purges    int
}

func (f *fakePublisher) Publish(ctx context.Context, localPath, identifier string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("artifact missing: %w", err)
	}
	f.published = append(f.published, identifier)
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return f.url, nil
}

func (f *fakePublisher) Purge(ctx context.Context) error {
	f.purges++
	return f.purgeErr
}

type memoryAuditor struct {
	entries []audit.Entry
}

func (m *memoryAuditor) Record(e audit.Entry) {
	m.entries = append(m.entries, e)
}

// harness bundles a controller with its fakes.
type harness struct {
	baseDir   string
	toolkit   *fakeToolkit
	fetcher   *fakeFetcher
	publisher *fakePublisher
	auditor   *memoryAuditor
	states    []State
	ctrl      *Controller
}

func newHarness(t *testing.T, settings config.Settings) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		baseDir:   t.TempDir(),
		toolkit:   newFakeToolkit(),
		fetcher:   &fakeFetcher{errs: map[string]error{}},
		publisher: &fakePublisher{url: "https://res.cloudinary.com/demo/video/upload/merged-audio/out.mp3"},
		auditor:   &memoryAuditor{},
	}
	ws, err := workspace.NewManager(h.baseDir, logger)
	require.NoError(t, err)

	var mu sync.Mutex
	h.ctrl = NewController(Dependencies{
		Workspaces: ws,
		Fetcher:    h.fetcher,
		Toolkit:    h.toolkit,
		Publisher:  h.publisher,
		Settings:   settings,
		Limits:     Limits{MaxFiles: 10, RequestTimeout: time.Minute},
		Logger:     logger,
		Auditor:    h.auditor,
		Observer: func(s State) {
			mu.Lock()
			h.states = append(h.states, s)
			mu.Unlock()
		},
	})
	return h
}

// workspaceEntries lists what is left under the workspace base directory.
func (h *harness) workspaceEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.baseDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
