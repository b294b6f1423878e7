// Package confirm provides the yes/no answer sources used by the lint gate.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoInput is returned when no answer can be read, for example when the
// input is closed or no terminal is attached.
var ErrNoInput = errors.New("no confirmation input")

// IsAffirmative reports whether an answer means yes. Only "y" and "yes"
// count, in any case; everything else, including an empty line, is no.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Static answers every question the same way without prompting.
type Static struct {
	Answer bool
}

func (s Static) Confirm(_ context.Context, _ string) (bool, error) {
	return s.Answer, nil
}

// ParseAssume turns an --assume flag value into a canned answer.
func ParseAssume(value string) (Static, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes":
		return Static{Answer: true}, nil
	case "n", "no":
		return Static{Answer: false}, nil
	default:
		return Static{}, fmt.Errorf("invalid answer %q (want yes or no)", value)
	}
}
