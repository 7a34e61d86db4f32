// Package executor runs external media tools (ffmpeg, ffprobe) as subprocesses
// with structured argv, per-call timeouts and a process-wide concurrency cap.
package executor

import (
	"errors"
	"time"
)

// ErrTimeout is returned (wrapped) when a command exceeds its deadline.
var ErrTimeout = errors.New("command execution timeout")

// CommandRequest encapsulates all information needed to execute a command.
type CommandRequest struct {
	// Command is the binary alias (e.g., "ffmpeg", "ffprobe").
	Command string `json:"command"`

	// Args are the command-line arguments, passed to the binary verbatim.
	Args []string `json:"args"`

	// WorkingDir is the directory to execute the command in (default: current dir).
	WorkingDir string `json:"working_dir,omitempty"`

	// Timeout is the maximum execution duration (0 means Config.DefaultTimeout).
	Timeout time.Duration `json:"timeout"`
}

// CommandResponse contains the result of a command execution.
type CommandResponse struct {
	Success  bool          `json:"success"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration_ms"`
}

// Config defines how commands are resolved and bounded.
type Config struct {
	// BinaryPaths maps command aliases to binaries
	// (e.g., {"ffmpeg": "/usr/local/bin/ffmpeg"}). Unmapped aliases are looked up in PATH.
	BinaryPaths map[string]string

	// DefaultTimeout applies when a request carries no timeout.
	DefaultTimeout time.Duration

	// AllowedCommands is the command whitelist. Empty list means allow all.
	AllowedCommands []string

	// MaxConcurrent caps simultaneous executions per command (0 means unlimited).
	MaxConcurrent int

	// AcquireTimeout bounds the wait for a concurrency slot (default 30s).
	AcquireTimeout time.Duration
}
