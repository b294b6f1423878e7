package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const ttyPath = "/dev/tty"

// Terminal asks the operator on the controlling terminal. Git runs hooks
// with stdin detached, so when stdin is not a terminal the answer is read
// from /dev/tty instead. There is no timeout.
type Terminal struct {
	// In overrides terminal discovery when set.
	In io.Reader
	// Out receives the prompt. Defaults to stderr.
	Out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{Out: os.Stderr}
}

type answer struct {
	line string
	err  error
}

func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	in, closeInput, err := t.input()
	if err != nil {
		return false, err
	}
	defer closeInput()

	out := t.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprint(out, color.New(color.FgYellow, color.Bold).Sprint(prompt))

	// The read blocks until a line arrives; closing the input on return
	// releases it when the context wins. Stdin cannot be closed, so that
	// reader stays blocked until the process exits right after.
	answers := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false, fmt.Errorf("waiting for confirmation: %w", ctx.Err())
	case a := <-answers:
		if a.err != nil && a.line == "" {
			fmt.Fprintln(out)
			if errors.Is(a.err, io.EOF) {
				return false, ErrNoInput
			}
			return false, fmt.Errorf("reading confirmation: %w", a.err)
		}
		return IsAffirmative(a.line), nil
	}
}

func (t *Terminal) input() (io.Reader, func(), error) {
	if t.In != nil {
		return t.In, func() {}, nil
	}

	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return os.Stdin, func() {}, nil
	}

	tty, err := os.Open(ttyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stdin is not a terminal and %s is unavailable: %v", ErrNoInput, ttyPath, err)
	}
	return tty, func() { tty.Close() }, nil
}
