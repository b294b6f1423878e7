package core

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arnavsurve/devgate/pkg/types"
	"gopkg.in/yaml.v3"
)

// VarContext holds the variables available to {{ name }} placeholders.
type VarContext map[string]string

// EnvLookup matches os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// varRegex is a package-level compiled regular expression for matching {{ varName }} placeholders.
var varRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9\._-]+)\s*\}\}`)

const envPrefix = "env."

// ResolveStringWithContext replaces every placeholder in input. Keys with the
// env. prefix are read from the environment; anything else must be in vars.
func ResolveStringWithContext(input string, vars VarContext, lookupEnv EnvLookup) (string, error) {
	var firstErr error
	output := varRegex.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match // Stop processing if an error has occurred
		}

		key := varRegex.FindStringSubmatch(match)[1]
		val, err := FindValueInContext(key, vars, lookupEnv)
		if err != nil {
			firstErr = err
			return match
		}
		return val
	})

	if firstErr != nil {
		return "", firstErr
	}
	return output, nil
}

// FindValueInContext looks a single placeholder key up.
func FindValueInContext(key string, vars VarContext, lookupEnv EnvLookup) (string, error) {
	if strings.HasPrefix(key, envPrefix) {
		envKey := strings.TrimPrefix(key, envPrefix)
		if lookupEnv == nil {
			return "", fmt.Errorf("environment variable %q is not available", envKey)
		}
		val, ok := lookupEnv(envKey)
		if !ok {
			return "", fmt.Errorf("environment variable %q is not set", envKey)
		}
		return val, nil
	}

	if val, ok := vars[key]; ok {
		return val, nil
	}
	return "", fmt.Errorf("undefined variable: %s", key)
}

// BuildVarContext resolves the user's vars against the built-ins and the
// environment. User vars may not reference each other.
func BuildVarContext(cfg *Config, lookupEnv EnvLookup) (VarContext, error) {
	builtins := VarContext{
		"project_dir": cfg.Dir,
		"python":      cfg.Python,
		"name":        cfg.Name,
	}
	venv, err := ResolveStringWithContext(cfg.Venv, builtins, lookupEnv)
	if err != nil {
		return nil, fmt.Errorf("resolving venv: %w", err)
	}
	if !filepath.IsAbs(venv) {
		venv = filepath.Join(cfg.Dir, venv)
	}
	builtins["venv"] = venv

	ctx := make(VarContext, len(builtins)+len(cfg.Vars))
	for k, v := range builtins {
		ctx[k] = v
	}
	for k, v := range cfg.Vars {
		if _, reserved := builtins[k]; reserved {
			return nil, fmt.Errorf("var %q shadows a built-in variable", k)
		}
		resolved, err := ResolveStringWithContext(v, builtins, lookupEnv)
		if err != nil {
			return nil, fmt.Errorf("resolving var %q: %w", k, err)
		}
		ctx[k] = resolved
	}
	return ctx, nil
}

// ResolveConfig returns a copy of cfg with every templated string resolved.
func ResolveConfig(cfg *Config, lookupEnv EnvLookup) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("resolving variables in nil config")
	}

	vars, err := BuildVarContext(cfg, lookupEnv)
	if err != nil {
		return nil, err
	}

	// Create a deep copy
	var resolved Config
	buf := new(bytes.Buffer)
	if err := yaml.NewEncoder(buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("deep copying config: %w", err)
	}
	if err := yaml.NewDecoder(buf).Decode(&resolved); err != nil {
		return nil, fmt.Errorf("deep copying config: %w", err)
	}
	resolved.Dir = cfg.Dir
	resolved.FilePath = cfg.FilePath
	resolved.Vars = vars

	resolver := func(field, input string) (string, error) {
		out, err := ResolveStringWithContext(input, vars, lookupEnv)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", field, err)
		}
		return out, nil
	}

	for _, f := range []struct {
		name string
		ptr  *string
	}{
		{"venv", &resolved.Venv},
		{"python", &resolved.Python},
		{"requirements", &resolved.Requirements},
		{"log.dir", &resolved.Log.Dir},
		{"backend.app", &resolved.Backend.App},
		{"backend.host", &resolved.Backend.Host},
		{"backend.port", &resolved.Backend.Port},
	} {
		if *f.ptr, err = resolver(f.name, *f.ptr); err != nil {
			return nil, err
		}
	}

	for id, override := range resolved.Gate {
		for i := range override.Run {
			if err := resolveCommand(&override.Run[i], fmt.Sprintf("gate.%s.run[%d]", id, i), resolver); err != nil {
				return nil, err
			}
		}
		if override.Wrapper != nil {
			if err := resolveCommand(&override.Wrapper.Run, fmt.Sprintf("gate.%s.wrapper", id), resolver); err != nil {
				return nil, err
			}
		}
		resolved.Gate[id] = override
	}

	if resolved.Test != nil {
		if err := resolveCommand(&resolved.Test.Run, "test.run", resolver); err != nil {
			return nil, err
		}
	}

	for i, p := range resolved.Clean.Patterns {
		if resolved.Clean.Patterns[i], err = resolver(fmt.Sprintf("clean.patterns[%d]", i), p); err != nil {
			return nil, err
		}
	}

	return &resolved, nil
}

func resolveCommand(cmd *types.CommandBlock, field string, resolver func(field, input string) (string, error)) error {
	var err error
	if cmd.Module, err = resolver(field+".module", cmd.Module); err != nil {
		return err
	}
	if cmd.Path, err = resolver(field+".path", cmd.Path); err != nil {
		return err
	}
	if cmd.Inline, err = resolver(field+".inline", cmd.Inline); err != nil {
		return err
	}
	if cmd.Interpreter, err = resolver(field+".interpreter", cmd.Interpreter); err != nil {
		return err
	}
	for i, arg := range cmd.Args {
		if cmd.Args[i], err = resolver(fmt.Sprintf("%s.args[%d]", field, i), arg); err != nil {
			return err
		}
	}
	return nil
}
