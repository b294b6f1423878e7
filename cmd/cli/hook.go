package cli

import (
	"context"

	"github.com/arnavsurve/devgate/pkg/hook"
)

type InstallHookCmd struct {
	Force bool `help:"Replace an existing pre-commit hook not written by devgate."`
}

func (c *InstallHookCmd) Run(g *Globals) error {
	s, err := g.open(false)
	defer s.Close()
	if err != nil {
		return err
	}

	path, err := hook.Install(context.Background(), hook.Options{
		Dir:        s.cfg.Dir,
		ConfigPath: s.cfg.FilePath,
		Force:      c.Force,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Could not install pre-commit hook")
		return err
	}
	s.logger.Info().Str("path", path).Msg("Installed pre-commit hook")
	return nil
}
