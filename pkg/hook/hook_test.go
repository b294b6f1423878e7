package hook_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/arnavsurve/devgate/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name       string
		binary     string
		configPath string
		wantExec   string
	}{
		{
			name:     "plain",
			binary:   "/usr/local/bin/devgate",
			wantExec: "exec '/usr/local/bin/devgate' pre-commit\n",
		},
		{
			name:       "with config",
			binary:     "/opt/devgate",
			configPath: "/repo/ci/devgate.yml",
			wantExec:   "exec '/opt/devgate' --config '/repo/ci/devgate.yml' pre-commit\n",
		},
		{
			name:     "quote in path",
			binary:   "/home/o'neil/bin/devgate",
			wantExec: `exec '/home/o'\''neil/bin/devgate' pre-commit` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := hook.Render(tt.binary, tt.configPath)
			require.NoError(t, err)
			assert.Contains(t, out, "#!/bin/sh\n"+hook.Marker+"\n")
			assert.Contains(t, out, tt.wantExec)
			assert.True(t, hook.IsManaged([]byte(out)))
		})
	}
}

func gitRepo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping git test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	out, err := exec.Command("git", "init", "-q", dir).CombinedOutput()
	require.NoError(t, err, string(out))
	return dir
}

func TestInstall(t *testing.T) {
	dir := gitRepo(t)
	ctx := context.Background()

	path, err := hook.Install(ctx, hook.Options{Dir: dir, Binary: "/bin/devgate"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".git", "hooks", "pre-commit"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "exec '/bin/devgate' pre-commit")

	// Reinstalling over our own hook is allowed.
	_, err = hook.Install(ctx, hook.Options{Dir: dir, Binary: "/usr/bin/devgate"})
	require.NoError(t, err)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "/usr/bin/devgate")
}

func TestInstall_ForeignHook(t *testing.T) {
	dir := gitRepo(t)
	ctx := context.Background()

	hooksDir, err := hook.HooksDir(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(hooksDir, 0755))
	path := filepath.Join(hooksDir, "pre-commit")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nnpm test\n"), 0644))

	_, err = hook.Install(ctx, hook.Options{Dir: dir, Binary: "/bin/devgate"})
	require.ErrorIs(t, err, hook.ErrForeignHook)
	content, _ := os.ReadFile(path)
	assert.Equal(t, "#!/bin/sh\nnpm test\n", string(content))

	_, err = hook.Install(ctx, hook.Options{Dir: dir, Binary: "/bin/devgate", Force: true})
	require.NoError(t, err)
	content, _ = os.ReadFile(path)
	assert.True(t, hook.IsManaged(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestHooksDir_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	// A directory outside any repository.
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	_, err := hook.HooksDir(context.Background(), dir)
	assert.Error(t, err)
}
