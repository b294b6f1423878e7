package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/bmatcuk/doublestar/v4"
)

var validLogFormats = map[string]bool{
	"console": true,
	"tint":    true,
	"json":    true,
}

// ValidateConfig checks the configuration structure: gate overrides, backend
// address, log settings and clean patterns. Runner-specific checks happen in
// ValidateRunners.
func ValidateConfig(cfg *Config) error {
	if cfg.Venv == "" {
		return fmt.Errorf("config is missing 'venv'")
	}

	steps, err := cfg.GateSteps()
	if err != nil {
		return err
	}
	for _, step := range steps {
		if err := validateStep(step); err != nil {
			return err
		}
	}

	if cfg.Test != nil && cfg.Test.Kind == "" {
		return fmt.Errorf("test is missing 'kind'")
	}

	if cfg.Backend.App == "" {
		return fmt.Errorf("backend is missing 'app'")
	}
	port, err := strconv.Atoi(cfg.Backend.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("backend port %q is not a valid TCP port", cfg.Backend.Port)
	}

	if !validLogFormats[cfg.Log.Format] {
		return fmt.Errorf("log format %q is invalid (want console, tint or json)", cfg.Log.Format)
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}

	for _, pattern := range cfg.Clean.Patterns {
		if err := ValidateCleanPattern(pattern); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.StatusFrom {
	case "", StatusFromTool:
		if len(step.Run) == 0 {
			return fmt.Errorf("gate step %q must define at least one command in 'run'", step.ID)
		}
		if step.Kind == "" {
			return fmt.Errorf("gate step %q is missing 'kind'", step.ID)
		}
	case StatusFromWrapper:
		if step.Wrapper == nil {
			return fmt.Errorf("gate step %q takes its status from a wrapper but defines no 'wrapper'", step.ID)
		}
		if step.Wrapper.Kind == "" {
			return fmt.Errorf("gate step %q wrapper is missing 'kind'", step.ID)
		}
	default:
		return fmt.Errorf("gate step %q has unknown status_from %q", step.ID, step.StatusFrom)
	}
	return nil
}

// ValidateCleanPattern rejects patterns that are malformed or could reach
// outside the project directory.
func ValidateCleanPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("clean pattern must not be empty")
	}
	if filepath.IsAbs(pattern) || strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("clean pattern %q must be relative to the project directory", pattern)
	}
	for _, segment := range strings.Split(filepath.ToSlash(pattern), "/") {
		if segment == ".." {
			return fmt.Errorf("clean pattern %q must not contain '..'", pattern)
		}
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("clean pattern %q is not a valid glob", pattern)
	}
	return nil
}

// ValidateRunners resolves a runner for every invocation of every step and
// runs its static validation.
func ValidateRunners(steps []Step, resolve RunnerResolver, projectDir, venvDir string) error {
	if resolve == nil {
		resolve = steprunner.GetRunner
	}
	for _, step := range steps {
		for _, inv := range step.Invocations() {
			ctx := types.ExecutionContext{
				Step:       inv,
				ProjectDir: projectDir,
				VenvDir:    venvDir,
			}

			runner, err := resolve(ctx)
			if err != nil {
				return fmt.Errorf("getting runner for step %q: %w", step.ID, err)
			}

			if err = runner.Validate(); err != nil {
				return fmt.Errorf("validating step %q: %w", step.ID, err)
			}
		}
	}

	return nil
}
