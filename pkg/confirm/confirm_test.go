package confirm_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/arnavsurve/devgate/pkg/confirm"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAffirmative(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y", true},
		{"Y", true},
		{"yes", true},
		{"YES", true},
		{"  yes\n", true},
		{"", false},
		{"\n", false},
		{"n", false},
		{"no", false},
		{"yep", false},
		{"sure", false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, confirm.IsAffirmative(tt.answer))
		})
	}
}

func TestTerminal_Confirm(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full word", input: "Yes\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "anything else", input: "maybe\n", want: false},
		{name: "answer without newline", input: "yes", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := &confirm.Terminal{In: strings.NewReader(tt.input), Out: &out}

			got, err := term.Confirm(context.Background(), "Commit anyway? [y/N] ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Commit anyway? [y/N] ", out.String())
		})
	}
}

func TestTerminal_EOF(t *testing.T) {
	term := &confirm.Terminal{In: strings.NewReader(""), Out: io.Discard}

	got, err := term.Confirm(context.Background(), "? ")
	assert.False(t, got)
	assert.ErrorIs(t, err, confirm.ErrNoInput)
}

func TestTerminal_ReadError(t *testing.T) {
	r, w := io.Pipe()
	w.CloseWithError(errors.New("device gone"))
	term := &confirm.Terminal{In: r, Out: io.Discard}

	_, err := term.Confirm(context.Background(), "? ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
	assert.NotErrorIs(t, err, confirm.ErrNoInput)
}

func TestTerminal_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := &confirm.Terminal{In: r, Out: io.Discard}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got, err := term.Confirm(ctx, "? ")
	assert.False(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatic(t *testing.T) {
	yes, err := confirm.ParseAssume("YES")
	require.NoError(t, err)
	ok, err := yes.Confirm(context.Background(), "ignored")
	require.NoError(t, err)
	assert.True(t, ok)

	no, err := confirm.ParseAssume("n")
	require.NoError(t, err)
	ok, err = no.Confirm(context.Background(), "ignored")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = confirm.ParseAssume("later")
	assert.Error(t, err)
}
