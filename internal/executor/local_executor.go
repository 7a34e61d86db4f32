package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// LocalExecutor executes commands directly on the local system using exec.CommandContext.
// No shell is involved; arguments reach the binary exactly as given.
type LocalExecutor struct {
	config Config
}

// NewLocalExecutor creates a new LocalExecutor with the given configuration.
func NewLocalExecutor(config Config) *LocalExecutor {
	return &LocalExecutor{config: config}
}

// ExecuteCommand executes a command locally and returns the result.
func (e *LocalExecutor) ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	// 1. Resolve binary path (from config or PATH)
	binaryPath, err := e.resolveBinaryPath(req.Command)
	if err != nil {
		return CommandResponse{}, fmt.Errorf("failed to resolve binary path for %s: %w", req.Command, err)
	}

	// 2. Create timeout context
	timeout := req.Timeout
	if timeout == 0 {
		timeout = e.config.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 3. Build command; the whole process group is killed on cancellation
	cmd := exec.CommandContext(ctx, binaryPath, req.Args...)
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	// 4. Execute command and capture output
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	resp := CommandResponse{
		Success:  err == nil,
		ExitCode: getExitCode(err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	// 5. Handle timeout error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return resp, fmt.Errorf("%w (%v): %s", ErrTimeout, timeout, req.Command)
	}
	if err != nil {
		return resp, fmt.Errorf("%s exited with code %d: %w", req.Command, resp.ExitCode, err)
	}

	return resp, nil
}

// HealthCheck verifies that all configured local binaries are available.
func (e *LocalExecutor) HealthCheck(ctx context.Context) error {
	for cmd, path := range e.config.BinaryPaths {
		if _, err := exec.LookPath(path); err != nil {
			return fmt.Errorf("local command %s not available at %s: %w", cmd, path, err)
		}
	}
	return nil
}

// resolveBinaryPath resolves the binary path from config or PATH environment.
func (e *LocalExecutor) resolveBinaryPath(command string) (string, error) {
	if path, ok := e.config.BinaryPaths[command]; ok {
		return exec.LookPath(path)
	}
	return exec.LookPath(command)
}

// getExitCode extracts exit code from error.
func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1 // Unable to determine exit code
}
