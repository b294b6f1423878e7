package steprunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/types"
)

// Process is a fully resolved tool invocation.
type Process struct {
	Tool string // short label used in log lines
	Name string
	Args []string
}

// VenvBinDir returns the directory holding executables inside a virtualenv.
func VenvBinDir(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts")
	}
	return filepath.Join(venvDir, "bin")
}

// VenvPython returns the interpreter path inside a virtualenv.
func VenvPython(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(VenvBinDir(venvDir), "python.exe")
	}
	return filepath.Join(VenvBinDir(venvDir), "python")
}

// Environ builds the child environment: the current environment with the
// virtualenv's bin directory first on PATH, plus the context's extra entries.
func Environ(sc types.ExecutionContext) []string {
	env := os.Environ()
	if sc.VenvDir != "" {
		binDir := VenvBinDir(sc.VenvDir)
		found := false
		for i, kv := range env {
			if strings.HasPrefix(kv, "PATH=") {
				env[i] = "PATH=" + binDir + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
				found = true
				break
			}
		}
		if !found {
			env = append(env, "PATH="+binDir)
		}
		env = append(env, "VIRTUAL_ENV="+sc.VenvDir)
	}
	return append(env, sc.Env...)
}

// ResolveBinary prefers an executable of that name inside the virtualenv and
// otherwise defers to PATH lookup.
func ResolveBinary(venvDir, name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}
	if venvDir != "" {
		candidate := filepath.Join(VenvBinDir(venvDir), name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in virtualenv or PATH: %w", ErrToolUnavailable, name, err)
	}
	return path, nil
}

// RunProcess starts the process and waits for it. A nonzero exit is reported
// through StepResult.ExitCode, not as an error.
func RunProcess(ctx context.Context, sc types.ExecutionContext, p Process) (*types.StepResult, error) {
	var logger types.Logger = log.Nop()
	if sc.Logger != nil {
		logger = sc.Logger
	}

	// #nosec G204
	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Dir = sc.ProjectDir
	cmd.Env = Environ(sc)
	cmd.WaitDelay = 5 * time.Second

	var output syncBuffer
	var stdoutLines, stderrLines *lineLogger
	if sc.Attach {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		if sc.Stdin != nil {
			cmd.Stdin = sc.Stdin
		}
		if sc.Stdout != nil {
			cmd.Stdout = sc.Stdout
		}
		if sc.Stderr != nil {
			cmd.Stderr = sc.Stderr
		}
	} else {
		stdoutLines = &lineLogger{logger: logger, source: "STDOUT", tool: p.Tool, sink: &output}
		stderrLines = &lineLogger{logger: logger, source: "STDERR", tool: p.Tool, sink: &output}
		cmd.Stdout = stdoutLines
		cmd.Stderr = stderrLines
	}

	logger.Debug().Str("tool", p.Tool).Str("command", strings.Join(append([]string{p.Name}, p.Args...), " ")).Msg("Starting tool")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
		return nil, fmt.Errorf("%w: starting %s: %w", ErrToolUnavailable, p.Tool, err)
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	if stdoutLines != nil {
		stdoutLines.Flush()
		stderrLines.Flush()
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInterrupted, p.Tool, ctx.Err())
	}

	result := &types.StepResult{Output: output.String(), Duration: duration}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("%w: waiting for %s: %w", ErrToolUnavailable, p.Tool, waitErr)
		}
		if exitErr.ExitCode() < 0 {
			if operatorSignal(exitErr) {
				return nil, fmt.Errorf("%w: %s terminated by signal: %w", ErrInterrupted, p.Tool, waitErr)
			}
			return nil, fmt.Errorf("%w: %s crashed: %w", ErrToolUnavailable, p.Tool, waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	logger.Debug().Str("tool", p.Tool).Int("exit_code", result.ExitCode).Dur("duration", duration).Msg("Tool finished")
	return result, nil
}

// operatorSignal reports whether the process died from a signal an operator
// sends to stop work. Any other signal is a crash.
func operatorSignal(exitErr *exec.ExitError) bool {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return false
	}
	switch status.Signal() {
	case syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP:
		return true
	default:
		return false
	}
}

// moduleCheck exits 0 when the module named by argv[1] is importable.
const moduleCheck = "import importlib.util, sys; sys.exit(0 if importlib.util.find_spec(sys.argv[1]) else 3)"

// CheckModule verifies that interpreter can import module. A module that is
// not installed is ErrToolUnavailable, not a finding from the tool.
func CheckModule(ctx context.Context, sc types.ExecutionContext, interpreter, module string) error {
	// #nosec G204
	cmd := exec.CommandContext(ctx, interpreter, "-c", moduleCheck, module)
	cmd.Dir = sc.ProjectDir
	cmd.Env = Environ(sc)
	cmd.WaitDelay = 5 * time.Second

	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return fmt.Errorf("%w: checking for %s: %w", ErrInterrupted, module, ctx.Err())
	}
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 3 {
		return fmt.Errorf("%w: python module %q is not installed in %s, add it to the requirements and run 'devgate init'",
			ErrToolUnavailable, module, interpreter)
	}
	return fmt.Errorf("%w: checking for python module %q with %s: %w: %s",
		ErrToolUnavailable, module, interpreter, err, strings.TrimSpace(string(out)))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// lineLogger streams tool output to the structured logger one line at a
// time and keeps a copy in sink.
type lineLogger struct {
	logger  types.Logger
	source  string
	tool    string
	sink    *syncBuffer
	partial []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	_, _ = l.sink.Write(p)
	l.partial = append(l.partial, p...)
	for {
		idx := bytes.IndexByte(l.partial, '\n')
		if idx < 0 {
			break
		}
		l.emit(string(bytes.TrimRight(l.partial[:idx], "\r")))
		l.partial = l.partial[idx+1:]
	}
	return len(p), nil
}

func (l *lineLogger) Flush() {
	if len(l.partial) > 0 {
		l.emit(string(l.partial))
		l.partial = nil
	}
}

func (l *lineLogger) emit(line string) {
	l.logger.Info().
		Str("source", l.source).
		Str("tool", l.tool).
		Str("tool_line", line).
		Msg("Tool output")
}
