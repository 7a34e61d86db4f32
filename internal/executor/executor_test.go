package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeExecutor is a test double that records executed commands and returns preset results.
type FakeExecutor struct {
	ResponseToReturn CommandResponse
	ErrorToReturn    error
	Delay            time.Duration

	mu               sync.Mutex
	ExecutedCommands []CommandRequest
	inFlight         int32
	MaxInFlight      int32
}

func (f *FakeExecutor) ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	f.mu.Lock()
	f.ExecutedCommands = append(f.ExecutedCommands, req)
	f.mu.Unlock()

	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&f.MaxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&f.MaxInFlight, cur, n) {
			break
		}
	}
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	return f.ResponseToReturn, f.ErrorToReturn
}

func (f *FakeExecutor) HealthCheck(ctx context.Context) error {
	return f.ErrorToReturn
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalExecutor_ExecuteCommand(t *testing.T) {
	tests := []struct {
		name         string
		req          CommandRequest
		wantErr      bool
		wantExitCode int
		wantTimeout  bool
		wantStdout   string
	}{
		{
			name:       "echo succeeds",
			req:        CommandRequest{Command: "echo", Args: []string{"hello", "world"}, Timeout: 5 * time.Second},
			wantStdout: "hello world\n",
		},
		{
			name:    "missing binary",
			req:     CommandRequest{Command: "nonexistent_command_12345_xyz", Timeout: 5 * time.Second},
			wantErr: true,
		},
		{
			name:         "nonzero exit",
			req:          CommandRequest{Command: "false", Timeout: 5 * time.Second},
			wantErr:      true,
			wantExitCode: 1,
		},
		{
			name:        "timeout",
			req:         CommandRequest{Command: "sleep", Args: []string{"3"}, Timeout: 100 * time.Millisecond},
			wantErr:     true,
			wantTimeout: true,
		},
	}

	executor := NewLocalExecutor(Config{DefaultTimeout: 5 * time.Second})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := executor.ExecuteCommand(context.Background(), tt.req)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.True(t, resp.Success)
				assert.Equal(t, 0, resp.ExitCode)
				assert.Equal(t, tt.wantStdout, resp.Stdout)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantTimeout, errors.Is(err, ErrTimeout), "unexpected timeout classification: %v", err)
			if tt.wantExitCode != 0 {
				assert.Equal(t, tt.wantExitCode, resp.ExitCode)
				assert.False(t, resp.Success)
			}
		})
	}
}

func TestLocalExecutor_CapturesStderr(t *testing.T) {
	executor := NewLocalExecutor(Config{DefaultTimeout: 5 * time.Second})

	resp, err := executor.ExecuteCommand(context.Background(), CommandRequest{
		Command: "ls",
		Args:    []string{"/definitely/not/here/audiomerge"},
	})

	require.Error(t, err)
	assert.NotZero(t, resp.ExitCode)
	assert.NotEmpty(t, resp.Stderr)
}

func TestLocalExecutor_ArgumentsAreNotShellExpanded(t *testing.T) {
	executor := NewLocalExecutor(Config{DefaultTimeout: 5 * time.Second})

	resp, err := executor.ExecuteCommand(context.Background(), CommandRequest{
		Command: "echo",
		Args:    []string{"$HOME; rm -rf /"},
	})

	require.NoError(t, err)
	assert.Equal(t, "$HOME; rm -rf /\n", resp.Stdout)
}

func TestLocalExecutor_HealthCheck(t *testing.T) {
	ok := NewLocalExecutor(Config{BinaryPaths: map[string]string{"echo": "echo"}})
	assert.NoError(t, ok.HealthCheck(context.Background()))

	missing := NewLocalExecutor(Config{BinaryPaths: map[string]string{"ffmpeg": "/nonexistent/ffmpeg_xyz"}})
	err := missing.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg")
}

func TestValidateCommandRequest(t *testing.T) {
	cfg := Config{AllowedCommands: []string{"ffmpeg", "ffprobe"}}

	tests := []struct {
		name    string
		req     CommandRequest
		wantErr string
	}{
		{name: "allowed", req: CommandRequest{Command: "ffmpeg", Args: []string{"-i", "/tmp/ws/in.mp3", "/tmp/ws/out.wav"}}},
		{name: "not whitelisted", req: CommandRequest{Command: "bash"}, wantErr: "not in whitelist"},
		{name: "path traversal", req: CommandRequest{Command: "ffmpeg", Args: []string{"-i", "/tmp/../etc/passwd"}}, wantErr: "path traversal"},
		{name: "system dir", req: CommandRequest{Command: "ffprobe", Args: []string{"/proc/self/environ"}}, wantErr: "forbidden system directory"},
		{name: "system dir itself", req: CommandRequest{Command: "ffprobe", Args: []string{"/dev"}}, wantErr: "forbidden system directory"},
		{name: "parent element at start", req: CommandRequest{Command: "ffmpeg", Args: []string{"../secret.wav"}}, wantErr: "path traversal"},
		{name: "dotted file name", req: CommandRequest{Command: "ffmpeg", Args: []string{"-i", "/tmp/merge-1/part0.mp3", "/tmp/merge-1/final..mix.mp3"}}},
		{name: "tmpfs work dir", req: CommandRequest{Command: "ffmpeg", Args: []string{"-i", "/dev/shm/merge-1/part0.mp3", "/dev/shm/merge-1/out.mp3"}}},
		{name: "prefix without separator", req: CommandRequest{Command: "ffmpeg", Args: []string{"/devices/out.mp3", "/etcetera/a.wav"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommandRequest(tt.req, cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConcurrencyLimiter(t *testing.T) {
	l := NewConcurrencyLimiter([]string{"ffmpeg"}, 1, 50*time.Millisecond)

	require.NoError(t, l.Acquire(context.Background(), "ffmpeg"))

	err := l.Acquire(context.Background(), "ffmpeg")
	require.Error(t, err, "second acquire should time out while the slot is held")

	l.Release("ffmpeg")
	require.NoError(t, l.Acquire(context.Background(), "ffmpeg"))
	l.Release("ffmpeg")

	err = l.Acquire(context.Background(), "sox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no semaphore configured")
}

func TestLimitedExecutor_RejectsInvalidRequest(t *testing.T) {
	fake := &FakeExecutor{ResponseToReturn: CommandResponse{Success: true}}
	e := NewLimitedExecutor(fake, Config{AllowedCommands: []string{"ffmpeg"}}, discardLogger())

	_, err := e.ExecuteCommand(context.Background(), CommandRequest{Command: "curl"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "command validation failed")
	assert.Empty(t, fake.ExecutedCommands)
}

func TestLimitedExecutor_CapsConcurrency(t *testing.T) {
	fake := &FakeExecutor{ResponseToReturn: CommandResponse{Success: true}, Delay: 20 * time.Millisecond}
	e := NewLimitedExecutor(fake, Config{
		AllowedCommands: []string{"ffmpeg"},
		MaxConcurrent:   2,
		AcquireTimeout:  5 * time.Second,
	}, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ExecuteCommand(context.Background(), CommandRequest{Command: "ffmpeg"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, fake.ExecutedCommands, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&fake.MaxInFlight), int32(2))
}

func TestLimitedExecutor_PropagatesErrors(t *testing.T) {
	fake := &FakeExecutor{
		ResponseToReturn: CommandResponse{ExitCode: 1, Stderr: "Invalid data found when processing input"},
		ErrorToReturn:    errors.New("ffmpeg exited with code 1"),
	}
	e := NewLimitedExecutor(fake, Config{AllowedCommands: []string{"ffmpeg"}}, discardLogger())

	resp, err := e.ExecuteCommand(context.Background(), CommandRequest{Command: "ffmpeg"})

	require.Error(t, err)
	assert.Equal(t, 1, resp.ExitCode)
	assert.Contains(t, resp.Stderr, "Invalid data")
}
