package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arnavsurve/devgate/pkg/fileutil"
	"github.com/bmatcuk/doublestar/v4"
)

type CleanOptions struct {
	// Venv also removes the virtual environment.
	Venv   bool
	DryRun bool
}

// CleanTargets expands the clean patterns against the project directory.
// Matches inside the virtualenv and .git are left alone, and a match nested
// under another match is dropped. Paths are relative, slash-separated and
// sorted.
func (t *Tasks) CleanTargets() ([]string, error) {
	root := t.Config.Dir
	fsys := os.DirFS(root)
	venvRel, venvInside := relativeTo(root, t.Config.VenvDir())

	seen := map[string]bool{}
	var matches []string
	for _, pattern := range t.Config.Clean.Patterns {
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithNoFollow())
		if err != nil {
			return nil, fmt.Errorf("expanding clean pattern %q: %w", pattern, err)
		}
		for _, m := range found {
			if seen[m] || m == "." || isUnder(m, ".git") || (venvInside && isUnder(m, venvRel)) {
				continue
			}
			if !fileutil.Within(root, filepath.Join(root, filepath.FromSlash(m))) {
				continue
			}
			seen[m] = true
			matches = append(matches, m)
		}
	}

	sort.Strings(matches)
	var targets []string
	for _, m := range matches {
		if len(targets) > 0 && isUnder(m, targets[len(targets)-1]) {
			continue
		}
		targets = append(targets, m)
	}
	return targets, nil
}

// Clean removes the cache artefacts matched by the clean patterns and,
// when asked, the virtualenv. It returns what was (or would be) removed.
func (t *Tasks) Clean(ctx context.Context, opts CleanOptions) ([]string, error) {
	targets, err := t.CleanTargets()
	if err != nil {
		return nil, err
	}

	root := t.Config.Dir
	paths := make([]string, 0, len(targets)+1)
	for _, rel := range targets {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
	}

	if opts.Venv {
		venvDir := t.Config.VenvDir()
		if !fileutil.Within(root, venvDir) || venvDir == root {
			return nil, fmt.Errorf("refusing to remove virtualenv %q outside the project directory", venvDir)
		}
		if _, err := os.Lstat(venvDir); err == nil {
			paths = append(paths, venvDir)
		}
	}

	removed := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if opts.DryRun {
			t.Logger.Info().Str("path", p).Msg("Would remove")
			removed = append(removed, p)
			continue
		}
		// RemoveAll on a symlink removes the link, not its target.
		if err := os.RemoveAll(p); err != nil {
			return removed, fmt.Errorf("removing %q: %w", p, err)
		}
		t.Logger.Debug().Str("path", p).Msg("Removed")
		removed = append(removed, p)
	}

	t.Logger.Info().Int("count", len(removed)).Msg("Clean finished")
	return removed, nil
}

func relativeTo(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || !fileutil.Within(root, target) || rel == "." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// isUnder reports whether slash path p is dir or inside it.
func isUnder(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}
