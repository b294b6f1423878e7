package sinks

import (
	"fmt"
	"io"

	"github.com/arnavsurve/devgate/pkg/log"
)

const (
	FormatConsole = "console"
	FormatTint    = "tint"
	FormatJSON    = "json"
)

// NewConsole returns the terminal-facing sink for the given format.
func NewConsole(format string, w io.Writer) (log.Sink, error) {
	switch format {
	case "", FormatConsole:
		if w == nil {
			return NewConsoleSink(), nil
		}
		return NewConsoleSinkTo(w), nil
	case FormatTint:
		return NewTintSink(w), nil
	case FormatJSON:
		return NewJSONSink(w), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}
