package tasks_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/arnavsurve/devgate/pkg/core"
	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/tasks"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every invocation instead of running a process.
type recorder struct {
	calls []types.ExecutionContext
	exits map[string]int
	errs  map[string]error
}

func (r *recorder) resolve(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
	return &recordedRunner{rec: r, ctx: ctx}, nil
}

type recordedRunner struct {
	rec *recorder
	ctx types.ExecutionContext
}

func (r *recordedRunner) Validate() error { return nil }

func (r *recordedRunner) Run(ctx context.Context) (*types.StepResult, error) {
	r.rec.calls = append(r.rec.calls, r.ctx)
	if err := r.rec.errs[r.ctx.Step.ID]; err != nil {
		return nil, err
	}
	return &types.StepResult{ExitCode: r.rec.exits[r.ctx.Step.ID]}, nil
}

func newTasks(t *testing.T, rec *recorder) (*tasks.Tasks, *core.Config) {
	t.Helper()
	cfg := core.DefaultConfig(t.TempDir())
	tk := tasks.New(cfg, log.Nop())
	tk.Resolve = rec.resolve
	return tk, cfg
}

func TestInit(t *testing.T) {
	t.Run("fresh project with requirements", func(t *testing.T) {
		rec := &recorder{}
		tk, cfg := newTasks(t, rec)
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "requirements.txt"), []byte("fastapi\n"), 0644))

		require.NoError(t, tk.Init(context.Background(), tasks.InitOptions{NoHook: true}))

		require.Len(t, rec.calls, 3)
		assert.Equal(t, "exec", rec.calls[0].Step.Kind)
		assert.Equal(t, []string{"python3", "-m", "venv", cfg.VenvDir()}, rec.calls[0].Step.Command.Args)

		assert.Equal(t, "pip", rec.calls[1].Step.Command.Module)
		assert.Equal(t, []string{"install", "--upgrade", "pip"}, rec.calls[1].Step.Command.Args)

		assert.Equal(t, "pip", rec.calls[2].Step.Command.Module)
		assert.Equal(t, []string{"install", "-r", filepath.Join(cfg.Dir, "requirements.txt")}, rec.calls[2].Step.Command.Args)

		for _, c := range rec.calls {
			assert.Equal(t, cfg.Dir, c.ProjectDir)
			assert.False(t, c.Attach)
		}
	})

	t.Run("existing venv and no requirements", func(t *testing.T) {
		rec := &recorder{}
		tk, cfg := newTasks(t, rec)
		python := steprunner.VenvPython(cfg.VenvDir())
		require.NoError(t, os.MkdirAll(filepath.Dir(python), 0755))
		require.NoError(t, os.WriteFile(python, nil, 0755))

		require.NoError(t, tk.Init(context.Background(), tasks.InitOptions{NoHook: true}))

		require.Len(t, rec.calls, 1)
		assert.Equal(t, "pip", rec.calls[0].Step.ID)
	})

	t.Run("venv creation failure stops init", func(t *testing.T) {
		rec := &recorder{exits: map[string]int{"venv": 1}}
		tk, _ := newTasks(t, rec)

		err := tk.Init(context.Background(), tasks.InitOptions{NoHook: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exited with status 1")
		assert.Len(t, rec.calls, 1)
	})

	t.Run("missing bootstrap python", func(t *testing.T) {
		rec := &recorder{errs: map[string]error{"venv": steprunner.ErrToolUnavailable}}
		tk, _ := newTasks(t, rec)

		err := tk.Init(context.Background(), tasks.InitOptions{NoHook: true})
		assert.ErrorIs(t, err, steprunner.ErrToolUnavailable)
	})

	t.Run("hook failure outside a repository is not fatal", func(t *testing.T) {
		rec := &recorder{}
		tk, cfg := newTasks(t, rec)
		t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(cfg.Dir))

		assert.NoError(t, tk.Init(context.Background(), tasks.InitOptions{}))
	})
}

func TestRunGateStep(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		exits    map[string]int
		errs     map[string]error
		wantCode int
		wantErr  bool
		wantRuns int
	}{
		{name: "format clean", id: core.StepFormat, wantCode: 0, wantRuns: 2},
		{name: "format findings", id: core.StepFormat, exits: map[string]int{core.StepFormat: 1}, wantCode: 1, wantRuns: 2},
		{name: "lint findings", id: core.StepLint, exits: map[string]int{core.StepLint: 1}, wantCode: 1, wantRuns: 1},
		{name: "lint-fix", id: core.StepLintFix, wantCode: 0, wantRuns: 1},
		{name: "tool missing", id: core.StepLint, errs: map[string]error{core.StepLint: steprunner.ErrToolUnavailable}, wantCode: core.ExitFatal, wantErr: true, wantRuns: 1},
		{name: "unknown step", id: "deploy", wantCode: core.ExitFatal, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{exits: tt.exits, errs: tt.errs}
			tk, _ := newTasks(t, rec)

			code, err := tk.RunGateStep(context.Background(), tt.id)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, rec.calls, tt.wantRuns)
		})
	}
}

func TestTest(t *testing.T) {
	rec := &recorder{exits: map[string]int{"test": 5}}
	tk, cfg := newTasks(t, rec)
	cfg.Test.Run.Args = []string{"-q"}

	code, err := tk.Test(context.Background(), []string{"-k", "health"})
	require.NoError(t, err)
	assert.Equal(t, 5, code)

	require.Len(t, rec.calls, 1)
	call := rec.calls[0]
	assert.True(t, call.Attach)
	assert.Equal(t, "python", call.Step.Kind)
	assert.Equal(t, "pytest", call.Step.Command.Module)
	assert.Equal(t, []string{"-q", "-k", "health"}, call.Step.Command.Args)
	assert.Equal(t, []string{"-q"}, cfg.Test.Run.Args, "configured args are not modified")
}

func TestBackend(t *testing.T) {
	reload := true
	tests := []struct {
		name     string
		opts     tasks.BackendOptions
		wantArgs []string
		wantErr  bool
	}{
		{
			name:     "defaults",
			wantArgs: []string{"main:app", "--host", "0.0.0.0", "--port", "5000"},
		},
		{
			name:     "flag overrides",
			opts:     tasks.BackendOptions{App: "api.main:app", Host: "127.0.0.1", Port: "8000", Reload: &reload},
			wantArgs: []string{"api.main:app", "--host", "127.0.0.1", "--port", "8000", "--reload"},
		},
		{
			name:    "bad port",
			opts:    tasks.BackendOptions{Port: "eighty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tk, _ := newTasks(t, rec)

			err := tk.Backend(context.Background(), tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, rec.calls)
				return
			}
			require.NoError(t, err)
			require.Len(t, rec.calls, 1)
			assert.True(t, rec.calls[0].Attach)
			assert.Equal(t, "uvicorn", rec.calls[0].Step.Command.Module)
			assert.Equal(t, tt.wantArgs, rec.calls[0].Step.Command.Args)
		})
	}
}

func TestBackend_InterruptIsNormalStop(t *testing.T) {
	rec := &recorder{errs: map[string]error{"backend": steprunner.ErrInterrupted}}
	tk, _ := newTasks(t, rec)
	assert.NoError(t, tk.Backend(context.Background(), tasks.BackendOptions{}))

	rec = &recorder{exits: map[string]int{"backend": 1}}
	tk, _ = newTasks(t, rec)
	assert.Error(t, tk.Backend(context.Background(), tasks.BackendOptions{}))

	boom := errors.New("boom")
	rec = &recorder{errs: map[string]error{"backend": boom}}
	tk, _ = newTasks(t, rec)
	assert.ErrorIs(t, tk.Backend(context.Background(), tasks.BackendOptions{}), boom)
}
