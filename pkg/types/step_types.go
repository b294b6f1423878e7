package types

import "time"

// StepResult is what a runner reports once the tool process has exited.
// A nonzero ExitCode means the tool ran and reported findings.
type StepResult struct {
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the tool exited with a nonzero status.
func (r *StepResult) Failed() bool {
	return r != nil && r.ExitCode != 0
}
