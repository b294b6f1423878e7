package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/devgate/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the project directory when no config
// path is given.
const DefaultConfigFile = "devgate.yml"

// Config is the optional devgate.yml project file.
type Config struct {
	Name         string                  `yaml:"name"`
	Venv         string                  `yaml:"venv"`
	Python       string                  `yaml:"python"`
	Requirements string                  `yaml:"requirements"`
	Log          LogConfig               `yaml:"log"`
	RedactEnv    []string                `yaml:"redact_env,omitempty"`
	Vars         map[string]string       `yaml:"vars,omitempty"`
	Gate         map[string]StepOverride `yaml:"gate,omitempty"`
	Backend      BackendConfig           `yaml:"backend"`
	Test         *Invocation             `yaml:"test,omitempty"`
	Clean        CleanConfig             `yaml:"clean"`

	// Set by the loader, not from YAML.
	Dir      string `yaml:"-"`
	FilePath string `yaml:"-"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
	Dir    string `yaml:"dir"`
}

// StepOverride changes how a gate step invokes its tools.
type StepOverride struct {
	Kind       string               `yaml:"kind,omitempty"`
	Run        []types.CommandBlock `yaml:"run,omitempty"`
	StatusFrom StatusSource         `yaml:"status_from,omitempty"`
	Wrapper    *Invocation          `yaml:"wrapper,omitempty"`
}

type BackendConfig struct {
	App    string `yaml:"app"`
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	Reload bool   `yaml:"reload"`
}

type CleanConfig struct {
	Patterns []string `yaml:"patterns"`
}

// DefaultCleanPatterns are removed by `devgate clean`.
var DefaultCleanPatterns = []string{
	"**/__pycache__",
	"**/*.pyc",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
}

// DefaultConfig is used when the project has no devgate.yml.
func DefaultConfig(dir string) *Config {
	cfg := &Config{Dir: dir}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = filepath.Base(c.Dir)
	}
	if c.Venv == "" {
		c.Venv = ".venv"
	}
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.Requirements == "" {
		c.Requirements = "requirements.txt"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = filepath.Join(".devgate", "logs")
	}
	if c.Backend.App == "" {
		c.Backend.App = "main:app"
	}
	if c.Backend.Host == "" {
		c.Backend.Host = "0.0.0.0"
	}
	if c.Backend.Port == "" {
		c.Backend.Port = "5000"
	}
	if c.Test == nil {
		c.Test = &Invocation{Kind: "python", Run: types.CommandBlock{Module: "pytest"}}
	}
	if c.Clean.Patterns == nil {
		c.Clean.Patterns = append([]string(nil), DefaultCleanPatterns...)
	}
}

// VenvDir is the absolute virtualenv directory.
func (c *Config) VenvDir() string {
	if filepath.IsAbs(c.Venv) {
		return c.Venv
	}
	return filepath.Join(c.Dir, c.Venv)
}

// LoadConfigFromFile parses a devgate.yml. The project directory is the
// directory containing the file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("determining absolute path for config file %q: %w", path, err)
	}
	cfg.FilePath = absPath
	cfg.Dir = filepath.Dir(absPath)
	cfg.ApplyDefaults()

	return &cfg, nil
}

// LoadProjectConfig loads, resolves and validates the project configuration.
// With an empty path it looks for devgate.yml in dir and falls back to the
// defaults when there is none.
func LoadProjectConfig(dir, path string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("determining absolute path for project directory %q: %w", dir, err)
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(absDir, DefaultConfigFile)
	}

	var cfg *Config
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) && !explicit {
		cfg = DefaultConfig(absDir)
	} else {
		cfg, err = LoadConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		if explicit {
			// An explicit config path does not move the project root.
			cfg.Dir = absDir
		}
	}

	resolved, err := ResolveConfig(cfg, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("resolving config variables: %w", err)
	}

	if err := ValidateConfig(resolved); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return resolved, nil
}
