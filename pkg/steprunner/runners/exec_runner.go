package runners

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
)

// ExecRunner invokes a binary directly with an argv, so the exit status it
// reports is the tool's own.
type ExecRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory("exec", func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &ExecRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (er *ExecRunner) Validate() error {
	step := er.StepCtx.Step

	if step.Command == nil {
		return fmt.Errorf("exec step %q must define 'run'", step.ID)
	}
	if step.Command.Module != "" {
		return fmt.Errorf("exec step %q must not define 'module'", step.ID)
	}
	if step.Command.Inline != "" {
		return fmt.Errorf("exec step %q must not define 'inline'", step.ID)
	}
	if step.Command.Path != "" {
		return fmt.Errorf("exec step %q must not define 'path'", step.ID)
	}
	if step.Command.Interpreter != "" {
		return fmt.Errorf("exec step %q must not define 'interpreter'", step.ID)
	}
	if len(step.Command.Args) == 0 || step.Command.Args[0] == "" {
		return fmt.Errorf("exec step %q must define 'args' with the binary first", step.ID)
	}

	return nil
}

func (er *ExecRunner) Run(ctx context.Context) (*types.StepResult, error) {
	if err := er.Validate(); err != nil {
		return nil, err
	}
	args := er.StepCtx.Step.Command.Args

	binary, err := steprunner.ResolveBinary(er.StepCtx.VenvDir, args[0])
	if err != nil {
		return nil, err
	}

	return steprunner.RunProcess(ctx, er.StepCtx, steprunner.Process{
		Tool: filepath.Base(args[0]),
		Name: binary,
		Args: args[1:],
	})
}
