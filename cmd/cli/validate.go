package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arnavsurve/devgate/pkg/core"
	"github.com/arnavsurve/devgate/pkg/hook"
	"github.com/arnavsurve/devgate/pkg/types"
)

type ValidateCmd struct{}

func (v *ValidateCmd) Run(g *Globals) error {
	s, err := g.open(false)
	defer s.Close()
	if err != nil {
		return err
	}
	cmdLogger := s.logger

	if s.cfg.FilePath == "" {
		cmdLogger.Info().Msgf("No %s found, validating defaults", core.DefaultConfigFile)
	} else {
		cmdLogger.Info().Msgf("Validating %s", s.cfg.FilePath)
	}

	steps, err := s.cfg.GateSteps()
	if err != nil {
		cmdLogger.Error().Err(err).Msg("Gate configuration is invalid")
		return err
	}

	cmdLogger.Info().Msg("Validating gate steps...")
	if err := core.ValidateRunners(steps, nil, s.cfg.Dir, s.cfg.VenvDir()); err != nil {
		cmdLogger.Error().Err(err).Msg("Step configuration validation failed")
		return err
	}
	for _, w := range core.StepWarnings(steps) {
		cmdLogger.Warn().Msg(w)
	}

	if s.cfg.Test != nil {
		testStep := core.Step{ID: "test", Kind: s.cfg.Test.Kind, Run: []types.CommandBlock{s.cfg.Test.Run}}
		if err := core.ValidateRunners([]core.Step{testStep}, nil, s.cfg.Dir, s.cfg.VenvDir()); err != nil {
			cmdLogger.Error().Err(err).Msg("Test command is invalid")
			return err
		}
	}

	if _, err := os.Stat(s.cfg.VenvDir()); err != nil {
		cmdLogger.Warn().Msgf("Virtual environment %s does not exist, run 'devgate init'", s.cfg.VenvDir())
	}

	if hooksDir, err := hook.HooksDir(context.Background(), s.cfg.Dir); err != nil {
		cmdLogger.Warn().Err(err).Msg("Not a git repository, the pre-commit hook cannot be checked")
	} else if content, err := os.ReadFile(filepath.Join(hooksDir, "pre-commit")); err != nil || !hook.IsManaged(content) {
		cmdLogger.Warn().Msg("The devgate pre-commit hook is not installed, run 'devgate install-hook'")
	}

	cmdLogger.Info().Msgf("Configuration is valid (%d gate steps)", len(steps))
	return nil
}
