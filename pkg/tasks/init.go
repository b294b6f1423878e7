package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/arnavsurve/devgate/pkg/fileutil"
	"github.com/arnavsurve/devgate/pkg/hook"
	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
)

type InitOptions struct {
	NoHook    bool
	ForceHook bool
	// HookBinary is the executable the hook calls; empty means this one.
	HookBinary string
}

// Init creates the virtualenv, upgrades pip, installs the requirements file
// when present and installs the pre-commit hook. An existing virtualenv is
// reused.
func (t *Tasks) Init(ctx context.Context, opts InitOptions) error {
	venvDir := t.Config.VenvDir()

	if _, err := os.Stat(steprunner.VenvPython(venvDir)); err == nil {
		t.Logger.Info().Str("venv", venvDir).Msg("Virtual environment already exists")
	} else {
		t.Logger.Info().Str("venv", venvDir).Msgf("Creating virtual environment with %s", t.Config.Python)
		if err := t.mustSucceed(ctx, "venv", "exec", types.CommandBlock{
			Args: []string{t.Config.Python, "-m", "venv", venvDir},
		}); err != nil {
			return err
		}
	}

	t.Logger.Info().Msg("Upgrading pip")
	if err := t.mustSucceed(ctx, "pip", "python", types.CommandBlock{
		Module: "pip",
		Args:   []string{"install", "--upgrade", "pip"},
	}); err != nil {
		return err
	}

	requirements, err := fileutil.ResolvePath(t.Config.Dir, t.Config.Requirements)
	if err != nil {
		return err
	}
	if _, err := os.Stat(requirements); err == nil {
		t.Logger.Info().Str("file", requirements).Msg("Installing requirements")
		if err := t.mustSucceed(ctx, "requirements", "python", types.CommandBlock{
			Module: "pip",
			Args:   []string{"install", "-r", requirements},
		}); err != nil {
			return err
		}
	} else {
		t.Logger.Warn().Str("file", requirements).Msg("Requirements file not found, skipping dependency install")
	}

	if opts.NoHook {
		return nil
	}

	path, err := hook.Install(ctx, hook.Options{
		Dir:        t.Config.Dir,
		Binary:     opts.HookBinary,
		ConfigPath: t.Config.FilePath,
		Force:      opts.ForceHook,
	})
	switch {
	case err == nil:
		t.Logger.Info().Str("path", path).Msg("Installed pre-commit hook")
	case errors.Is(err, hook.ErrForeignHook):
		t.Logger.Warn().Err(err).Msg("Leaving existing pre-commit hook in place")
	default:
		t.Logger.Warn().Err(err).Msg("Could not install pre-commit hook")
	}
	return nil
}

func (t *Tasks) mustSucceed(ctx context.Context, id, kind string, cmd types.CommandBlock) error {
	res, err := t.invoke(ctx, id, kind, cmd, false)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	if res.Failed() {
		return fmt.Errorf("%s: exited with status %d", id, res.ExitCode)
	}
	return nil
}
