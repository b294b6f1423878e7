package tasks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
)

// BackendOptions override the configured server settings when non-empty.
type BackendOptions struct {
	App    string
	Host   string
	Port   string
	Reload *bool
}

// BackendArgs builds the uvicorn argument list.
func (t *Tasks) BackendArgs(opts BackendOptions) ([]string, error) {
	cfg := t.Config.Backend
	if opts.App != "" {
		cfg.App = opts.App
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.Reload != nil {
		cfg.Reload = *opts.Reload
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("port %q is not a valid TCP port", cfg.Port)
	}

	args := []string{cfg.App, "--host", cfg.Host, "--port", cfg.Port}
	if cfg.Reload {
		args = append(args, "--reload")
	}
	return args, nil
}

// Backend runs the development server attached to the terminal until it
// exits or is interrupted. Interruption is a normal stop.
func (t *Tasks) Backend(ctx context.Context, opts BackendOptions) error {
	args, err := t.BackendArgs(opts)
	if err != nil {
		return err
	}

	t.Logger.Info().Str("app", args[0]).Str("address", args[2]+":"+args[4]).Msg("Starting development server")
	res, err := t.invoke(ctx, "backend", "python", types.CommandBlock{Module: "uvicorn", Args: args}, true)
	if err != nil {
		if steprunner.IsInterrupted(err) {
			t.Logger.Info().Msg("Development server stopped")
			return nil
		}
		return err
	}
	if res.Failed() {
		return fmt.Errorf("development server exited with status %d", res.ExitCode)
	}
	return nil
}
