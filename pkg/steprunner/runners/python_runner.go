package runners

import (
	"context"
	"fmt"
	"os"

	"github.com/arnavsurve/devgate/pkg/fileutil"
	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
)

// PythonRunner runs a module, script or snippet with the project's
// virtualenv interpreter.
type PythonRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory("python", func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &PythonRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (pr *PythonRunner) Validate() error {
	step := pr.StepCtx.Step

	if step.Command == nil {
		return fmt.Errorf("python step %q must define 'run'", step.ID)
	}

	defined := 0
	for _, v := range []string{step.Command.Module, step.Command.Path, step.Command.Inline} {
		if v != "" {
			defined++
		}
	}
	if defined == 0 {
		return fmt.Errorf("python step %q must define one of 'module', 'path' or 'inline'", step.ID)
	}
	if defined > 1 {
		return fmt.Errorf("python step %q must only define one of 'module', 'path' or 'inline'", step.ID)
	}
	if step.Command.Inline != "" && len(step.Command.Args) > 0 {
		return fmt.Errorf("python step %q may not pass 'args' to 'inline'", step.ID)
	}

	return nil
}

// Interpreter is the explicit interpreter if configured, else the virtualenv's.
func (pr *PythonRunner) Interpreter() string {
	if pr.StepCtx.Step.Command != nil && pr.StepCtx.Step.Command.Interpreter != "" {
		return pr.StepCtx.Step.Command.Interpreter
	}
	return steprunner.VenvPython(pr.StepCtx.VenvDir)
}

func (pr *PythonRunner) Run(ctx context.Context) (*types.StepResult, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	command := pr.StepCtx.Step.Command

	interpreter, err := steprunner.ResolveBinary(pr.StepCtx.VenvDir, pr.Interpreter())
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(interpreter); err != nil {
		return nil, fmt.Errorf("%w: python interpreter %q not found, run 'devgate init' to create the environment: %w",
			steprunner.ErrToolUnavailable, interpreter, err)
	}

	tool := "python"
	var args []string
	switch {
	case command.Module != "":
		if err := steprunner.CheckModule(ctx, pr.StepCtx, interpreter, command.Module); err != nil {
			return nil, err
		}
		tool = command.Module
		args = append([]string{"-m", command.Module}, command.Args...)
	case command.Path != "":
		resolvedPath, err := fileutil.ResolvePath(pr.StepCtx.ProjectDir, command.Path)
		if err != nil {
			return nil, fmt.Errorf("error resolving script path: %w", err)
		}
		if _, err := os.Stat(resolvedPath); err != nil {
			return nil, fmt.Errorf("%w: script file not found at %q: %w", steprunner.ErrToolUnavailable, resolvedPath, err)
		}
		args = append([]string{resolvedPath}, command.Args...)
	default:
		args = []string{"-c", command.Inline}
	}

	return steprunner.RunProcess(ctx, pr.StepCtx, steprunner.Process{
		Tool: tool,
		Name: interpreter,
		Args: args,
	})
}
