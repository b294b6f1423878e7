package core

import (
	"fmt"
	"strings"

	"github.com/arnavsurve/devgate/pkg/types"
	"gopkg.in/yaml.v3"
)

// Policy decides how a step's nonzero exit affects the pipeline.
type Policy int

const (
	// PolicyAdvisory logs findings and continues.
	PolicyAdvisory Policy = iota
	// PolicyGateWithConfirmation asks the operator whether to continue.
	PolicyGateWithConfirmation
	// PolicyFatal halts the pipeline.
	PolicyFatal
)

func (p Policy) String() string {
	switch p {
	case PolicyAdvisory:
		return "advisory"
	case PolicyGateWithConfirmation:
		return "confirm"
	case PolicyFatal:
		return "fatal"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Outcome is the pipeline's final verdict.
type Outcome int

const (
	OutcomeProceed Outcome = iota
	OutcomeAborted
	OutcomeFatal
)

// Exit statuses handed back to the commit hook.
const (
	ExitProceed = 0
	ExitAborted = 1
	ExitFatal   = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProceed:
		return "proceed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ExitCode maps the outcome onto a process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeProceed:
		return ExitProceed
	case OutcomeAborted:
		return ExitAborted
	default:
		return ExitFatal
	}
}

// StepStatus is the per-step verdict recorded in a StepReport.
type StepStatus string

const (
	StatusPassed     StepStatus = "passed"
	StatusFinding    StepStatus = "finding"
	StatusOverridden StepStatus = "overridden"
	StatusFailed     StepStatus = "failed"
	StatusInfraError StepStatus = "infra_error"
	StatusCancelled  StepStatus = "cancelled"
	StatusSkipped    StepStatus = "skipped"
)

// StatusSource selects whose exit status a step reports.
type StatusSource string

const (
	// StatusFromTool invokes the tools directly.
	StatusFromTool StatusSource = "tool"
	// StatusFromWrapper invokes the configured wrapper and trusts its status.
	StatusFromWrapper StatusSource = "wrapper"
)

func (s *StatusSource) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := StatusSource(strings.ToLower(strings.TrimSpace(raw))); v {
	case "", StatusFromTool, StatusFromWrapper:
		*s = v
		return nil
	default:
		return fmt.Errorf("line %d: unknown status_from %q (want %q or %q)", node.Line, raw, StatusFromTool, StatusFromWrapper)
	}
}

// Invocation is a single runner call: a kind plus its command block.
type Invocation struct {
	Kind string             `yaml:"kind"`
	Run  types.CommandBlock `yaml:"run"`
}

// Step is one gate in the pipeline.
type Step struct {
	ID         string
	Title      string
	Policy     Policy
	Kind       string
	Run        []types.CommandBlock
	StatusFrom StatusSource
	Wrapper    *Invocation
}

// Invocations expands the step into the runner calls it makes, in order.
func (s Step) Invocations() []types.Step {
	if s.StatusFrom == StatusFromWrapper && s.Wrapper != nil {
		cmd := s.Wrapper.Run
		return []types.Step{{ID: s.ID, Kind: s.Wrapper.Kind, Command: &cmd}}
	}

	steps := make([]types.Step, 0, len(s.Run))
	for i := range s.Run {
		cmd := s.Run[i]
		steps = append(steps, types.Step{ID: s.ID, Kind: s.Kind, Command: &cmd})
	}
	return steps
}
