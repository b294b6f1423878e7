package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/arnavsurve/devgate/pkg/core"
	"github.com/arnavsurve/devgate/pkg/tasks"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (g *Globals) tasks(fileLog bool) (*tasks.Tasks, *session, error) {
	s, err := g.open(fileLog)
	if err != nil {
		return nil, s, err
	}
	return tasks.New(s.cfg, s.logger), s, nil
}

type InitCmd struct {
	NoHook    bool `help:"Do not install the git pre-commit hook."`
	ForceHook bool `help:"Replace an existing pre-commit hook not written by devgate."`
}

func (c *InitCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	t, s, err := g.tasks(true)
	defer s.Close()
	if err != nil {
		return err
	}

	if err := t.Init(ctx, tasks.InitOptions{NoHook: c.NoHook, ForceHook: c.ForceHook}); err != nil {
		s.logger.Error().Err(err).Msg("Environment setup failed")
		return err
	}
	s.logger.Info().Msg("Environment ready")
	return nil
}

type BackendCmd struct {
	App    string `help:"ASGI application (module:attribute)."`
	Host   string `help:"Interface to bind."`
	Port   string `help:"Port to listen on."`
	Reload bool   `help:"Restart the server when code changes."`
}

func (c *BackendCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	t, s, err := g.tasks(false)
	defer s.Close()
	if err != nil {
		return err
	}

	opts := tasks.BackendOptions{App: c.App, Host: c.Host, Port: c.Port}
	if c.Reload {
		opts.Reload = &c.Reload
	}
	return t.Backend(ctx, opts)
}

// gateStepCmd runs a single gate step with its tool's exit status.
func gateStepCmd(g *Globals, id string) error {
	ctx, stop := signalContext()
	defer stop()

	t, s, err := g.tasks(false)
	defer s.Close()
	if err != nil {
		return err
	}

	code, err := t.RunGateStep(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Could not run %s", id)
		return &ExitError{Code: code, Err: err}
	}
	return exitStatus(code)
}

type FormatCmd struct{}

func (c *FormatCmd) Run(g *Globals) error { return gateStepCmd(g, core.StepFormat) }

type LintFixCmd struct{}

func (c *LintFixCmd) Run(g *Globals) error { return gateStepCmd(g, core.StepLintFix) }

type LintCmd struct{}

func (c *LintCmd) Run(g *Globals) error { return gateStepCmd(g, core.StepLint) }

type TestCmd struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments passed to the test runner."`
}

func (c *TestCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	t, s, err := g.tasks(false)
	defer s.Close()
	if err != nil {
		return err
	}

	code, err := t.Test(ctx, c.Args)
	if err != nil {
		return &ExitError{Code: code, Err: err}
	}
	return exitStatus(code)
}

type CleanCmd struct {
	Venv   bool `help:"Also remove the virtual environment."`
	DryRun bool `help:"List what would be removed without removing it."`
}

func (c *CleanCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	t, s, err := g.tasks(false)
	defer s.Close()
	if err != nil {
		return err
	}

	_, err = t.Clean(ctx, tasks.CleanOptions{Venv: c.Venv, DryRun: c.DryRun})
	return err
}

type HelpCmd struct{}

func (c *HelpCmd) Run(ctx *kong.Context) error {
	return ctx.PrintUsage(false)
}
