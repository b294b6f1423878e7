package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/fatih/color"
)

type ConsoleSink struct {
	out io.Writer
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stderr}
}

// NewConsoleSinkTo writes to w instead of stderr.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

var levelColorMap = map[types.Level]*color.Color{
	types.DebugLevel: color.New(color.FgCyan),
	types.InfoLevel:  color.New(color.FgGreen),
	types.WarnLevel:  color.New(color.FgYellow),
	types.ErrorLevel: color.New(color.FgRed),
	types.FatalLevel: color.New(color.FgRed, color.Bold),
}

func (c *ConsoleSink) Write(event *log.LogEvent) error {
	stepID := getStringField(event.Fields, "step_id")
	msg := event.Message
	source := getStringField(event.Fields, "source")
	toolLine := getStringField(event.Fields, "tool_line")
	tool := getStringField(event.Fields, "tool")
	errorMsg := getStringField(event.Fields, "error")
	levelStr := strings.ToUpper(event.Level.String())
	timestampStr := event.Timestamp.Format(time.TimeOnly)

	levelFmt := color.New(color.FgWhite).SprintFunc()
	if lc, ok := levelColorMap[event.Level]; ok {
		levelFmt = lc.SprintFunc()
	}

	timestampFmt := color.New(color.FgWhite).SprintFunc()
	stepLabel := stepID
	if stepLabel == "" {
		stepLabel = "devgate"
	}

	var output string
	commonPrefix := fmt.Sprintf("[%s %s] %s: ",
		levelFmt(levelStr),
		timestampFmt(timestampStr),
		color.CyanString(stepLabel),
	)

	switch {
	case toolLine != "" && source != "":
		label := source
		if tool != "" {
			label = tool + "/" + source
		}
		output = fmt.Sprintf("%s[%s]: %s", commonPrefix, color.BlueString(label), toolLine)
	case errorMsg != "" && msg != "":
		output = fmt.Sprintf("%s%s: %s", commonPrefix, msg, errorMsg)
	case errorMsg != "":
		output = fmt.Sprintf("%s%s", commonPrefix, errorMsg)
	case msg != "":
		output = fmt.Sprintf("%s%s", commonPrefix, msg)
	default:
		fieldsStr, _ := json.MarshalIndent(event.Fields, "", "  ")
		output = fmt.Sprintf("%s%s", commonPrefix, string(fieldsStr))
	}
	_, err := fmt.Fprintln(c.out, output)
	return err
}

// Helper to safely get string field from LogEvent.Fields
func getStringField(fields map[string]any, key string) string {
	if val, ok := fields[key]; ok {
		if strVal, isStr := val.(string); isStr {
			return strVal
		}
	}
	return ""
}

func (c *ConsoleSink) Close() error {
	return nil // Console doesn't need closing
}
