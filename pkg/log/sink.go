package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/arnavsurve/devgate/pkg/security"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/rs/zerolog"
)

// LogEvent represents a log event that will be written to sinks
type LogEvent struct {
	Level     types.Level
	Message   string
	Fields    map[string]any
	Timestamp time.Time
}

// Sink defines the interface for log output destinations
type Sink interface {
	Write(event *LogEvent) error
	io.Closer
}

// Router routes log events to multiple sinks. It implements io.Writer so it can
// sit underneath a zerolog.Logger.
type Router struct {
	mu       sync.Mutex
	sinks    []Sink
	minLevel types.Level
	redactor *security.Redactor
}

func NewRouter(sinks ...Sink) *Router {
	return &Router{sinks: sinks, minLevel: types.DebugLevel}
}

// SetMinLevel drops events below lvl before they reach any sink.
func (r *Router) SetMinLevel(lvl types.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minLevel = lvl
}

// SetRedactor masks secret values in messages and string fields.
func (r *Router) SetRedactor(redactor *security.Redactor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redactor = redactor
}

func (r *Router) Write(p []byte) (n int, err error) {
	var zerologOutput map[string]any
	if err := json.Unmarshal(p, &zerologOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Router: Error unmarshaling log line: %v, data: %s\n", err, string(p))
		return len(p), nil
	}

	evt := &LogEvent{
		Level:  types.InfoLevel,
		Fields: make(map[string]any),
	}

	if lvlStr, ok := zerologOutput[zerolog.LevelFieldName].(string); ok {
		zlLevel, err := zerolog.ParseLevel(lvlStr)
		if err == nil {
			evt.Level = ConvertZerologLevel(zlLevel)
		}
	}
	if msg, ok := zerologOutput[zerolog.MessageFieldName].(string); ok {
		evt.Message = msg
	}
	if tsStr, ok := zerologOutput[zerolog.TimestampFieldName].(string); ok {
		evt.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	reservedFields := map[string]struct{}{
		zerolog.LevelFieldName:     {},
		zerolog.MessageFieldName:   {},
		zerolog.TimestampFieldName: {},
	}
	for k, v := range zerologOutput {
		if _, isReserved := reservedFields[k]; !isReserved {
			evt.Fields[k] = v
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.Level < r.minLevel {
		return len(p), nil
	}

	if r.redactor != nil {
		evt.Message = r.redactor.Redact(evt.Message)
		for k, v := range evt.Fields {
			evt.Fields[k] = redactValue(r.redactor, v)
		}
	}

	for _, sink := range r.sinks {
		if err := sink.Write(evt); err != nil {
			fmt.Fprintf(os.Stderr, "Router: Error writing to sink: %v\n", err)
		}
	}

	return len(p), nil
}

func redactValue(redactor *security.Redactor, v any) any {
	switch typed := v.(type) {
	case string:
		return redactor.Redact(typed)
	case map[string]any:
		for k, vv := range typed {
			typed[k] = redactValue(redactor, vv)
		}
		return typed
	case []any:
		for i, vv := range typed {
			typed[i] = redactValue(redactor, vv)
		}
		return typed
	default:
		return v
	}
}

func ConvertZerologLevel(zl zerolog.Level) types.Level {
	switch zl {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return types.DebugLevel
	case zerolog.InfoLevel:
		return types.InfoLevel
	case zerolog.WarnLevel:
		return types.WarnLevel
	case zerolog.ErrorLevel:
		return types.ErrorLevel
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return types.FatalLevel
	default:
		return types.InfoLevel
	}
}

// ParseLevel maps a level name such as "warn" onto a types.Level.
func ParseLevel(name string) (types.Level, error) {
	zl, err := zerolog.ParseLevel(name)
	if err != nil {
		return types.InfoLevel, fmt.Errorf("parsing log level %q: %w", name, err)
	}
	if zl == zerolog.NoLevel {
		return types.InfoLevel, nil
	}
	return ConvertZerologLevel(zl), nil
}

func (r *Router) AddSink(sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, sink)
}

func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewLogger builds the zerolog instance every command logs through.
func NewLogger(router *Router) *ZerologAdapter {
	zl := zerolog.New(router).With().Timestamp().Logger()
	return NewZerologAdapter(zl)
}
