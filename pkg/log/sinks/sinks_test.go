package sinks_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/log/sinks"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func event(level types.Level, msg string, fields map[string]any) *log.LogEvent {
	if fields == nil {
		fields = map[string]any{}
	}
	return &log.LogEvent{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestConsoleSink_Write(t *testing.T) {
	tests := []struct {
		name  string
		event *log.LogEvent
		want  string
	}{
		{
			name:  "plain message",
			event: event(types.InfoLevel, "Running gate", nil),
			want:  "[INFO 15:04:05] devgate: Running gate\n",
		},
		{
			name:  "step scoped",
			event: event(types.WarnLevel, "Formatter reported issues", map[string]any{"step_id": "format"}),
			want:  "[WARN 15:04:05] format: Formatter reported issues\n",
		},
		{
			name: "tool output line",
			event: event(types.InfoLevel, "Tool output", map[string]any{
				"step_id":   "lint",
				"source":    "STDOUT",
				"tool":      "ruff",
				"tool_line": "main.py:1:1: F401 unused import",
			}),
			want: "[INFO 15:04:05] lint: [ruff/STDOUT]: main.py:1:1: F401 unused import\n",
		},
		{
			name:  "error with message",
			event: event(types.ErrorLevel, "Step failed", map[string]any{"error": "exit status 1"}),
			want:  "[ERROR 15:04:05] devgate: Step failed: exit status 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := sinks.NewConsoleSinkTo(&buf)
			require.NoError(t, sink.Write(tt.event))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFileSink_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.json")
	sink, err := sinks.NewFileSink(path)
	require.NoError(t, err)
	assert.Equal(t, path, sink.Path())

	require.NoError(t, sink.Write(event(types.InfoLevel, "first", map[string]any{"step_id": "format"})))
	require.NoError(t, sink.Write(event(types.ErrorLevel, "second", nil)))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "format", lines[0]["step_id"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "second", lines[1]["message"])
}

func TestSlogSinks(t *testing.T) {
	var buf bytes.Buffer
	sink := sinks.NewJSONSink(&buf)
	require.NoError(t, sink.Write(event(types.WarnLevel, "lint findings", map[string]any{"step_id": "lint", "exit_code": float64(1)})))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "lint findings", entry["msg"])
	assert.Equal(t, "lint", entry["step_id"])

	buf.Reset()
	tintSink := sinks.NewTintSink(&buf)
	require.NoError(t, tintSink.Write(event(types.ErrorLevel, "type check failed", map[string]any{"error": "exit status 1"})))
	assert.Contains(t, buf.String(), "type check failed")
	assert.Contains(t, buf.String(), "exit status 1")
}

func TestNewConsole(t *testing.T) {
	for _, format := range []string{"", sinks.FormatConsole, sinks.FormatTint, sinks.FormatJSON} {
		sink, err := sinks.NewConsole(format, &bytes.Buffer{})
		require.NoError(t, err, format)
		assert.NotNil(t, sink)
	}

	_, err := sinks.NewConsole("xml", nil)
	assert.Error(t, err)
}
