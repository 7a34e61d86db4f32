package executor

import "context"

// Executor defines the interface for executing external commands.
//
// Implementations:
//   - LocalExecutor: runs the binary directly using exec.CommandContext
//   - LimitedExecutor: validates, rate-bounds and instruments another Executor
type Executor interface {
	// ExecuteCommand executes a command with the given request.
	// A nonzero exit status is reported both in the response and as an error.
	// If the context is cancelled, the command is terminated promptly.
	ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error)

	// HealthCheck verifies that the executor is ready to handle requests.
	HealthCheck(ctx context.Context) error
}
