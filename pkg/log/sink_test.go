package log_test

import (
	"testing"

	"github.com/arnavsurve/devgate/pkg/log"
	"github.com/arnavsurve/devgate/pkg/security"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	events []*log.LogEvent
	closed bool
}

func (c *captureSink) Write(event *log.LogEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

func TestRouter_FansOutToSinks(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	router := log.NewRouter(a)
	router.AddSink(b)

	logger := log.NewLogger(router)
	logger.With().Str("step_id", "format").Logger().Info().Msg("running")

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, types.InfoLevel, a.events[0].Level)
	assert.Equal(t, "running", a.events[0].Message)
	assert.Equal(t, "format", a.events[0].Fields["step_id"])
	assert.False(t, a.events[0].Timestamp.IsZero())

	require.NoError(t, router.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRouter_MinLevel(t *testing.T) {
	sink := &captureSink{}
	router := log.NewRouter(sink)
	router.SetMinLevel(types.WarnLevel)

	logger := log.NewLogger(router)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden too")
	logger.Warn().Msg("shown")
	logger.Error().Msg("shown too")

	require.Len(t, sink.events, 2)
	assert.Equal(t, "shown", sink.events[0].Message)
	assert.Equal(t, types.ErrorLevel, sink.events[1].Level)
}

func TestRouter_Redacts(t *testing.T) {
	sink := &captureSink{}
	router := log.NewRouter(sink)
	router.SetRedactor(security.NewRedactor([]string{"hunter2"}))

	logger := log.NewLogger(router)
	logger.Info().Str("tool_line", "password=hunter2").Msg("got hunter2")

	require.Len(t, sink.events, 1)
	assert.Equal(t, "got ********", sink.events[0].Message)
	assert.Equal(t, "password=********", sink.events[0].Fields["tool_line"])
}

func TestParseLevel(t *testing.T) {
	lvl, err := log.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, types.WarnLevel, lvl)

	lvl, err = log.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, types.InfoLevel, lvl)

	_, err = log.ParseLevel("bogus")
	assert.Error(t, err)
}
