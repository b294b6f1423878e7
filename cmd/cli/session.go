package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/devgate/pkg/core"
	"github.com/arnavsurve/devgate/pkg/fileutil"
	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/log/sinks"
	"github.com/arnavsurve/devgate/pkg/security"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	// Ensure all runner implementations are initialized
	_ "github.com/arnavsurve/devgate/pkg/steprunner/runners"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `help:"Path to the project config file (default: devgate.yml in --dir)." type:"path" env:"DEVGATE_CONFIG"`
	Dir       string `help:"Project directory." default:"." type:"existingdir" env:"DEVGATE_DIR"`
	LogLevel  string `help:"Minimum log level: debug, info, warn, error." env:"DEVGATE_LOG_LEVEL"`
	LogFormat string `help:"Console log format: console, tint, json." env:"DEVGATE_LOG_FORMAT"`
}

// ExitError carries a specific process exit status back to main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// session is the per-command setup: config, run ID and the log router.
type session struct {
	cfg     *core.Config
	logger  types.Logger
	router  *log.Router
	runID   string
	logFile string
}

// open loads .env and the project config and builds the logger. With
// fileLog set, the run is also written as JSON lines under the log dir.
func (g *Globals) open(fileLog bool) (*session, error) {
	s := &session{runID: uuid.New().String()}

	dir, err := filepath.Abs(g.Dir)
	if err != nil {
		return nil, fmt.Errorf("determining absolute path for %q: %w", g.Dir, err)
	}

	envErr := godotenv.Load(filepath.Join(dir, ".env"))
	cfg, cfgErr := core.LoadProjectConfig(dir, g.Config)
	if cfgErr != nil {
		cfg = core.DefaultConfig(dir)
	}
	s.cfg = cfg

	format := cfg.Log.Format
	if g.LogFormat != "" {
		format = g.LogFormat
	}
	console, err := sinks.NewConsole(format, os.Stderr)
	if err != nil {
		return nil, err
	}
	s.router = log.NewRouter(console)
	s.logger = log.NewLogger(s.router)

	levelName := cfg.Log.Level
	if g.LogLevel != "" {
		levelName = g.LogLevel
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	s.router.SetMinLevel(level)
	s.router.SetRedactor(security.NewEnvRedactor(cfg.RedactEnv, os.LookupEnv))

	if envErr != nil {
		if errors.Is(envErr, os.ErrNotExist) {
			s.logger.Warn().Msg("No .env file found, relying on the existing environment")
		} else {
			s.logger.Warn().Err(envErr).Msg("Could not load .env file, relying on the existing environment")
		}
	}
	if cfgErr != nil {
		s.logger.Error().Err(cfgErr).Msg("Failed to load project configuration")
		return s, cfgErr
	}

	if fileLog {
		logsDir, err := fileutil.ResolvePath(cfg.Dir, cfg.Log.Dir)
		if err != nil {
			return s, err
		}
		fileSink, err := sinks.NewFileSink(filepath.Join(logsDir, s.runID+".json"))
		if err != nil {
			return s, fmt.Errorf("creating file log sink: %w", err)
		}
		s.router.AddSink(fileSink)
		s.logFile = fileSink.Path()
		s.logger.Debug().Msgf("Logs will be saved to %q", s.logFile)
	}

	if cfg.FilePath != "" {
		s.logger.Debug().Msgf("Loaded config %s", cfg.FilePath)
	}
	return s, nil
}

func (s *session) Close() {
	if s == nil || s.router == nil {
		return
	}
	if err := s.router.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during log shutdown: %v\n", err)
	}
}

// exitStatus turns a tool's exit status into a command result.
func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}
