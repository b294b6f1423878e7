package core

import (
	"fmt"
	"time"
)

// StepReport records what happened to one step during a pipeline run.
type StepReport struct {
	ID       string
	Title    string
	Policy   Policy
	Status   StepStatus
	ExitCode int
	Duration time.Duration
	Err      error
}

// PipelineResult is built up while the pipeline runs and read once at the end.
type PipelineResult struct {
	RunID   string
	Reports []StepReport
	Outcome Outcome
	// DecidedBy is the step that halted the run, empty when it proceeded.
	DecidedBy string
	Reason    string
	// Overridden is set when the operator accepted unresolved lint findings.
	Overridden bool
	Duration   time.Duration
}

func (r *PipelineResult) ExitCode() int {
	return r.Outcome.ExitCode()
}

// Report returns the report for the step with the given ID.
func (r *PipelineResult) Report(id string) (StepReport, bool) {
	for _, rep := range r.Reports {
		if rep.ID == id {
			return rep, true
		}
	}
	return StepReport{}, false
}

// Ran reports whether the step was executed at all.
func (r *PipelineResult) Ran(id string) bool {
	rep, ok := r.Report(id)
	return ok && rep.Status != StatusSkipped
}

// SummaryLine renders one human-readable line for a step.
func (rep StepReport) SummaryLine() string {
	title := rep.Title
	if title == "" {
		title = rep.ID
	}
	switch rep.Status {
	case StatusPassed:
		return fmt.Sprintf("%-14s passed (%s)", title, rep.Duration.Round(time.Millisecond))
	case StatusFinding:
		return fmt.Sprintf("%-14s reported issues, exit %d (%s)", title, rep.ExitCode, rep.Policy)
	case StatusOverridden:
		return fmt.Sprintf("%-14s reported issues, exit %d, overridden by operator", title, rep.ExitCode)
	case StatusFailed:
		return fmt.Sprintf("%-14s failed, exit %d", title, rep.ExitCode)
	case StatusInfraError:
		return fmt.Sprintf("%-14s could not run: %v", title, rep.Err)
	case StatusCancelled:
		return fmt.Sprintf("%-14s cancelled", title)
	default:
		return fmt.Sprintf("%-14s skipped", title)
	}
}

// FinalMessage is the closing line shown to the operator.
func (r *PipelineResult) FinalMessage() string {
	switch r.Outcome {
	case OutcomeProceed:
		if r.Overridden {
			return "All gates passed or were overridden, commit may proceed"
		}
		return "All gates passed, commit may proceed"
	case OutcomeAborted:
		return fmt.Sprintf("Commit blocked: %s", r.Reason)
	default:
		return fmt.Sprintf("Commit refused: step %q failed fatally: %s", r.DecidedBy, r.Reason)
	}
}
