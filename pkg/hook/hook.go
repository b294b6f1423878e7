// Package hook installs the git pre-commit hook that runs the gate.
package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// Marker identifies hooks written by devgate. A hook without it is never
// overwritten unless forced.
const Marker = "# managed-by: devgate"

// ErrForeignHook is returned when a pre-commit hook exists that devgate did
// not write.
var ErrForeignHook = errors.New("pre-commit hook was not installed by devgate")

const scriptTemplate = `#!/bin/sh
{{ .Marker }}
# Installed {{ .Installed | date "2006-01-02" }}. Delete this file to disable the gate.
{{- if .ConfigPath }}
exec {{ .Binary | shellquote }} --config {{ .ConfigPath | shellquote }} pre-commit
{{- else }}
exec {{ .Binary | shellquote }} pre-commit
{{- end }}
`

var script = template.Must(template.New("pre-commit").
	Funcs(sprig.TxtFuncMap()).
	Funcs(template.FuncMap{"shellquote": shellQuote}).
	Parse(scriptTemplate))

// Options controls hook installation.
type Options struct {
	// Dir is any directory inside the repository.
	Dir string
	// Binary is the devgate executable the hook calls. Defaults to the
	// running executable.
	Binary string
	// ConfigPath is passed through as --config when set.
	ConfigPath string
	Force      bool
}

type scriptData struct {
	Marker     string
	Binary     string
	ConfigPath string
	Installed  time.Time
}

// Render produces the hook script.
func Render(binary, configPath string) (string, error) {
	var buf bytes.Buffer
	err := script.Execute(&buf, scriptData{
		Marker:     Marker,
		Binary:     binary,
		ConfigPath: configPath,
		Installed:  time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering hook script: %w", err)
	}
	return buf.String(), nil
}

// HooksDir asks git where the repository keeps its hooks. This honours
// core.hooksPath and linked worktrees.
func HooksDir(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--git-path", "hooks")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("locating git hooks directory in %q: %w: %s", dir, err, strings.TrimSpace(stderr.String()))
	}

	hooks := strings.TrimSpace(string(out))
	if !filepath.IsAbs(hooks) {
		hooks = filepath.Join(dir, hooks)
	}
	return hooks, nil
}

// Install writes the pre-commit hook and returns its path.
func Install(ctx context.Context, opts Options) (string, error) {
	hooksDir, err := HooksDir(ctx, opts.Dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(hooksDir, "pre-commit")

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if !IsManaged(existing) && !opts.Force {
			return path, fmt.Errorf("%w: %s (use --force to replace it)", ErrForeignHook, path)
		}
	case !errors.Is(err, os.ErrNotExist):
		return path, fmt.Errorf("reading existing hook %q: %w", path, err)
	}

	binary := opts.Binary
	if binary == "" {
		if binary, err = os.Executable(); err != nil {
			binary = "devgate"
		}
	}

	content, err := Render(binary, opts.ConfigPath)
	if err != nil {
		return path, err
	}

	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return path, fmt.Errorf("creating hooks directory %q: %w", hooksDir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return path, fmt.Errorf("writing hook %q: %w", path, err)
	}
	// WriteFile keeps the mode of a file it overwrites.
	if err := os.Chmod(path, 0755); err != nil {
		return path, fmt.Errorf("making hook %q executable: %w", path, err)
	}
	return path, nil
}

// IsManaged reports whether hook content was written by devgate.
func IsManaged(content []byte) bool {
	return bytes.Contains(content, []byte(Marker))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
