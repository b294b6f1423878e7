package core

import (
	"fmt"

	"github.com/arnavsurve/devgate/pkg/types"
)

// Gate step identifiers, in pipeline order.
const (
	StepFormat    = "format"
	StepLintFix   = "lint-fix"
	StepLint      = "lint"
	StepTypeCheck = "typecheck"
)

// GateOrder is the fixed execution order of the pre-commit pipeline.
var GateOrder = []string{StepFormat, StepLintFix, StepLint, StepTypeCheck}

// DefaultSteps returns the pre-commit pipeline with the stock Python toolchain:
// black and isort, ruff fix, ruff check, mypy.
func DefaultSteps() []Step {
	return []Step{
		{
			ID:     StepFormat,
			Title:  "Format",
			Policy: PolicyAdvisory,
			Kind:   "python",
			Run: []types.CommandBlock{
				{Module: "black", Args: []string{"."}},
				{Module: "isort", Args: []string{"--profile", "black", "."}},
			},
		},
		{
			ID:     StepLintFix,
			Title:  "Auto-fix lint",
			Policy: PolicyAdvisory,
			Kind:   "python",
			Run:    []types.CommandBlock{{Module: "ruff", Args: []string{"check", "--fix", "."}}},
		},
		{
			ID:     StepLint,
			Title:  "Lint check",
			Policy: PolicyGateWithConfirmation,
			Kind:   "python",
			Run:    []types.CommandBlock{{Module: "ruff", Args: []string{"check", "."}}},
		},
		{
			ID:     StepTypeCheck,
			Title:  "Type check",
			Policy: PolicyFatal,
			Kind:   "python",
			Run:    []types.CommandBlock{{Module: "mypy", Args: []string{"."}}},
		},
	}
}

// GateSteps applies the configured overrides to DefaultSteps. Order and
// policies are fixed; only how each tool is invoked can change.
func (c *Config) GateSteps() ([]Step, error) {
	steps := DefaultSteps()
	for id := range c.Gate {
		if !isGateStep(id) {
			return nil, fmt.Errorf("unknown gate step %q (known: %v)", id, GateOrder)
		}
	}

	for i := range steps {
		override, ok := c.Gate[steps[i].ID]
		if !ok {
			continue
		}
		if override.Kind != "" {
			steps[i].Kind = override.Kind
		}
		if override.Run != nil {
			steps[i].Run = override.Run
		}
		if override.StatusFrom != "" {
			steps[i].StatusFrom = override.StatusFrom
		}
		if override.Wrapper != nil {
			w := *override.Wrapper
			steps[i].Wrapper = &w
		}
	}
	return steps, nil
}

// Step returns a single gate step by ID, with overrides applied.
func (c *Config) Step(id string) (Step, error) {
	steps, err := c.GateSteps()
	if err != nil {
		return Step{}, err
	}
	for _, s := range steps {
		if s.ID == id {
			return s, nil
		}
	}
	return Step{}, fmt.Errorf("unknown gate step %q", id)
}

func isGateStep(id string) bool {
	for _, known := range GateOrder {
		if known == id {
			return true
		}
	}
	return false
}

// StepWarnings flags configurations that can hide findings: a non-advisory
// step trusting a wrapper's exit status will never fail if the wrapper
// swallows the tool's status.
func StepWarnings(steps []Step) []string {
	var warnings []string
	for _, s := range steps {
		if s.StatusFrom == StatusFromWrapper && s.Policy != PolicyAdvisory {
			warnings = append(warnings, fmt.Sprintf(
				"step %q (%s) takes its status from a wrapper; if the wrapper suppresses the tool's exit status, findings will never block the commit",
				s.ID, s.Policy))
		}
	}
	return warnings
}
