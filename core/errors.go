package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExecutorClosed is returned for work submitted after shutdown began.
	ErrExecutorClosed = errors.New("affinity executor closed")

	// ErrPoisoned is returned for pending and future work once the executor's
	// worker loop has failed unrecoverably. It wraps the poisoning cause.
	ErrPoisoned = errors.New("affinity executor poisoned")

	// ErrSendFromWorker is returned when the synchronous hand-off primitive is
	// invoked from code already running on the worker, which would deadlock
	// against the single-consumer FIFO.
	ErrSendFromWorker = errors.New("send invoked from worker thread")

	// ErrCaptureActive is returned by Begin when another capture scope is
	// still installed as the active output listener.
	ErrCaptureActive = errors.New("capture scope already active")

	// ErrNoOutput indicates a command produced no text on the channel a
	// consumer needed (e.g. an object-model query with an empty response).
	ErrNoOutput = errors.New("command produced no output")
)

// CommandError carries the error and warning channel text of a completed
// command. It is a diagnostic surfaced alongside, not instead of, the normal
// output: the command itself executed, but the engine flagged problems.
type CommandError struct {
	ErrorText   string
	WarningText string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	var parts []string
	if e.ErrorText != "" {
		parts = append(parts, fmt.Sprintf("engine error output: %s", strings.TrimSpace(e.ErrorText)))
	}
	if e.WarningText != "" {
		parts = append(parts, fmt.Sprintf("engine warning output: %s", strings.TrimSpace(e.WarningText)))
	}
	if len(parts) == 0 {
		return "engine diagnostic output"
	}
	return strings.Join(parts, "; ")
}
