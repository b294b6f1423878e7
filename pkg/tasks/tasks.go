// Package tasks implements the project lifecycle commands: environment
// setup, the dev server, the standalone gate steps, tests and cleanup.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/arnavsurve/devgate/pkg/core"
	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
)

// Tasks runs lifecycle commands for one project.
type Tasks struct {
	Config  *core.Config
	Logger  types.Logger
	Resolve core.RunnerResolver
	Env     []string

	// Streams for attached processes. Nil means the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New(cfg *core.Config, logger types.Logger) *Tasks {
	if logger == nil {
		logger = log.Nop()
	}
	return &Tasks{
		Config:  cfg,
		Logger:  logger,
		Resolve: steprunner.GetRunner,
	}
}

// invoke runs a single command through the runner registry.
func (t *Tasks) invoke(ctx context.Context, id, kind string, cmd types.CommandBlock, attach bool) (*types.StepResult, error) {
	resolve := t.Resolve
	if resolve == nil {
		resolve = steprunner.GetRunner
	}

	execCtx := types.ExecutionContext{
		Step:       types.Step{ID: id, Kind: kind, Command: &cmd},
		Logger:     t.Logger.With().Str("task", id).Logger(),
		ProjectDir: t.Config.Dir,
		VenvDir:    t.Config.VenvDir(),
		Env:        t.Env,
		Attach:     attach,
		Stdin:      t.Stdin,
		Stdout:     t.Stdout,
		Stderr:     t.Stderr,
	}

	runner, err := resolve(execCtx)
	if err != nil {
		return nil, fmt.Errorf("getting runner for %q: %w", id, err)
	}
	if err := runner.Validate(); err != nil {
		return nil, fmt.Errorf("validating %q: %w", id, err)
	}
	return runner.Run(ctx)
}

// engine builds a gate engine for running single steps outside the pipeline.
func (t *Tasks) engine() *core.GateEngine {
	e := core.NewGateEngine(t.Logger, nil)
	if t.Resolve != nil {
		e.Resolve = t.Resolve
	}
	e.ProjectDir = t.Config.Dir
	e.VenvDir = t.Config.VenvDir()
	e.Env = t.Env
	return e
}

// RunGateStep runs one gate step on its own. The first nonzero tool exit
// status is returned as the command's status; policies do not apply.
func (t *Tasks) RunGateStep(ctx context.Context, id string) (int, error) {
	step, err := t.Config.Step(id)
	if err != nil {
		return core.ExitFatal, err
	}

	report := t.engine().ExecuteStep(ctx, step)
	switch report.Status {
	case core.StatusInfraError, core.StatusCancelled:
		return core.ExitFatal, report.Err
	case core.StatusPassed:
		t.Logger.Info().Msgf("%s passed", step.Title)
	default:
		t.Logger.Warn().Int("exit_code", report.ExitCode).Msgf("%s reported issues", step.Title)
	}
	return report.ExitCode, nil
}

// Test runs the configured test command with extra arguments appended.
// Output goes straight to the terminal.
func (t *Tasks) Test(ctx context.Context, args []string) (int, error) {
	inv := t.Config.Test
	if inv == nil {
		inv = &core.Invocation{Kind: "python", Run: types.CommandBlock{Module: "pytest"}}
	}

	cmd := inv.Run
	cmd.Args = append(append([]string(nil), inv.Run.Args...), args...)

	res, err := t.invoke(ctx, "test", inv.Kind, cmd, true)
	if err != nil {
		return core.ExitFatal, err
	}
	if res.Failed() {
		t.Logger.Warn().Int("exit_code", res.ExitCode).Msg("Tests failed")
	} else {
		t.Logger.Info().Dur("duration", res.Duration).Msg("Tests passed")
	}
	return res.ExitCode, nil
}
