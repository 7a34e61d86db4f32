package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/houzhh15/audiomerge/pkg/metrics"
)

// ConcurrencyLimiter controls the maximum number of concurrent executions per command.
type ConcurrencyLimiter struct {
	max        int64
	timeout    time.Duration
	semaphores map[string]*semaphore.Weighted
}

// NewConcurrencyLimiter creates one semaphore of size max for each command.
func NewConcurrencyLimiter(commands []string, max int, timeout time.Duration) *ConcurrencyLimiter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	l := &ConcurrencyLimiter{
		max:        int64(max),
		timeout:    timeout,
		semaphores: make(map[string]*semaphore.Weighted, len(commands)),
	}
	for _, cmd := range commands {
		l.semaphores[cmd] = semaphore.NewWeighted(int64(max))
	}
	return l
}

// Acquire blocks until a slot for commandName is free or the acquire timeout is reached.
func (l *ConcurrencyLimiter) Acquire(ctx context.Context, commandName string) error {
	sem, exists := l.semaphores[commandName]
	if !exists {
		return fmt.Errorf("no semaphore configured for command: %s", commandName)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := sem.Acquire(timeoutCtx, 1); err != nil {
		return fmt.Errorf("failed to acquire slot for command %s: %w", commandName, err)
	}
	return nil
}

// Release releases a slot for the given command.
func (l *ConcurrencyLimiter) Release(commandName string) {
	if sem, exists := l.semaphores[commandName]; exists {
		sem.Release(1)
	}
}

// LimitedExecutor wraps an Executor with request validation, the concurrency
// limiter and execution metrics.
type LimitedExecutor struct {
	next    Executor
	config  Config
	limiter *ConcurrencyLimiter
	logger  *slog.Logger
}

// NewLimitedExecutor builds a LimitedExecutor. A limiter is only installed when
// config.MaxConcurrent is positive and config.AllowedCommands is non-empty.
func NewLimitedExecutor(next Executor, config Config, logger *slog.Logger) *LimitedExecutor {
	e := &LimitedExecutor{next: next, config: config, logger: logger}
	if config.MaxConcurrent > 0 && len(config.AllowedCommands) > 0 {
		e.limiter = NewConcurrencyLimiter(config.AllowedCommands, config.MaxConcurrent, config.AcquireTimeout)
	}
	return e
}

// ExecuteCommand validates the request, waits for a slot and delegates.
func (e *LimitedExecutor) ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	if err := ValidateCommandRequest(req, e.config); err != nil {
		metrics.RecordToolExecution(req.Command, "rejected")
		return CommandResponse{}, fmt.Errorf("command validation failed: %w", err)
	}

	if e.limiter != nil {
		if err := e.limiter.Acquire(ctx, req.Command); err != nil {
			metrics.RecordToolExecution(req.Command, "throttled")
			return CommandResponse{}, err
		}
		defer e.limiter.Release(req.Command)
	}

	e.logger.Debug("executing command", "command", req.Command, "args", req.Args)

	resp, err := e.next.ExecuteCommand(ctx, req)

	status := "success"
	switch {
	case errors.Is(err, ErrTimeout):
		status = "timeout"
	case err != nil || !resp.Success:
		status = "failed"
	}
	metrics.RecordToolExecution(req.Command, status)
	metrics.RecordToolDuration(req.Command, resp.Duration.Seconds())

	if err != nil {
		e.logger.Warn("command failed",
			"command", req.Command,
			"exit_code", resp.ExitCode,
			"duration_ms", resp.Duration.Milliseconds(),
			"error", err,
		)
	}
	return resp, err
}

// HealthCheck delegates to the wrapped executor.
func (e *LimitedExecutor) HealthCheck(ctx context.Context) error {
	return e.next.HealthCheck(ctx)
}
