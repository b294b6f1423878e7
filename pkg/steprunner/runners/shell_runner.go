package runners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/devgate/pkg/fileutil"
	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
)

const defaultShell = "/bin/bash"

type ShellRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory("shell", func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &ShellRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (sr *ShellRunner) Validate() error {
	step := sr.StepCtx.Step

	if step.Command == nil {
		return fmt.Errorf("shell step %q must define 'run'", step.ID)
	}
	if step.Command.Module != "" {
		return fmt.Errorf("shell step %q must not define 'module'", step.ID)
	}
	if step.Command.Inline != "" && step.Command.Path != "" {
		return fmt.Errorf("shell step %q must only define either 'inline' or 'path'", step.ID)
	}
	if step.Command.Inline == "" && step.Command.Path == "" {
		return fmt.Errorf("shell step %q must define either 'inline' or 'path'", step.ID)
	}
	if step.Command.Inline != "" && len(step.Command.Args) > 0 {
		return fmt.Errorf("shell step %q may only pass 'args' to a script 'path'", step.ID)
	}

	return nil
}

func (sr *ShellRunner) Run(ctx context.Context) (*types.StepResult, error) {
	if err := sr.Validate(); err != nil {
		return nil, err
	}
	step := sr.StepCtx.Step
	logger := sr.StepCtx.Logger

	interpreter := defaultShell
	if step.Command.Interpreter != "" {
		interpreter = step.Command.Interpreter
	}

	var args []string
	if step.Command.Inline != "" {
		if len(step.Command.Inline) > 1000 && logger != nil {
			logger.Warn().Msgf("Long script in 'inline' - consider passing a script file as 'path' for maintainability.")
		}
		args = []string{"-c", sr.inlineScript(interpreter)}
	} else {
		resolvedPath, err := fileutil.ResolvePath(sr.StepCtx.ProjectDir, step.Command.Path)
		if err != nil {
			return nil, fmt.Errorf("error resolving script path: %w", err)
		}
		if _, err := os.Stat(resolvedPath); err != nil {
			return nil, fmt.Errorf("%w: script file not found at %q: %w", steprunner.ErrToolUnavailable, resolvedPath, err)
		}
		args = append([]string{resolvedPath}, step.Command.Args...)
	}

	return steprunner.RunProcess(ctx, sr.StepCtx, steprunner.Process{
		Tool: filepath.Base(interpreter),
		Name: interpreter,
		Args: args,
	})
}

// inlineScript enables bash strict mode so a failing tool inside the script
// is not masked by a later command.
func (sr *ShellRunner) inlineScript(interpreter string) string {
	script := sr.StepCtx.Step.Command.Inline
	if filepath.Base(interpreter) == "bash" {
		return "set -euo pipefail\n" + script
	}
	return script
}
