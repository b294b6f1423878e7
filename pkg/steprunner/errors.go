package steprunner

import "errors"

var (
	// ErrToolUnavailable wraps failures to start a tool process: missing
	// binary, permission denied, broken interpreter.
	ErrToolUnavailable = errors.New("tool unavailable")

	// ErrInterrupted indicates the tool was stopped by a signal or by
	// cancellation of the run context.
	ErrInterrupted = errors.New("tool interrupted")
)

// IsUnavailable returns true if the error is ErrToolUnavailable
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrToolUnavailable)
}

// IsInterrupted returns true if the error is ErrInterrupted
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}
