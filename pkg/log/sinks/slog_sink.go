package sinks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/lmittmann/tint"
)

// SlogSink forwards router events to a slog.Handler.
type SlogSink struct {
	handler slog.Handler
}

func NewSlogSink(handler slog.Handler) *SlogSink {
	return &SlogSink{handler: handler}
}

// NewTintSink renders events with tint's colorized handler.
func NewTintSink(w io.Writer) *SlogSink {
	if w == nil {
		w = os.Stderr
	}
	return NewSlogSink(tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	}))
}

// NewJSONSink renders events as slog JSON lines, for CI logs.
func NewJSONSink(w io.Writer) *SlogSink {
	if w == nil {
		w = os.Stderr
	}
	return NewSlogSink(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (s *SlogSink) Write(event *log.LogEvent) error {
	lvl := toSlogLevel(event.Level)
	ctx := context.Background()
	if !s.handler.Enabled(ctx, lvl) {
		return nil
	}

	rec := slog.NewRecord(event.Timestamp, lvl, event.Message, 0)

	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "error" {
			rec.AddAttrs(tint.Err(fmt.Errorf("%v", event.Fields[k])))
			continue
		}
		rec.AddAttrs(slog.Any(k, event.Fields[k]))
	}

	return s.handler.Handle(ctx, rec)
}

func (s *SlogSink) Close() error {
	return nil
}

func toSlogLevel(l types.Level) slog.Level {
	switch l {
	case types.DebugLevel:
		return slog.LevelDebug
	case types.WarnLevel:
		return slog.LevelWarn
	case types.ErrorLevel, types.FatalLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
