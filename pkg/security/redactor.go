package security

import (
	"sort"
	"strings"
)

const mask = "********"

// minSecretLength guards against masking every "1" in a log when an env var
// holds a trivially short value.
const minSecretLength = 4

type Redactor struct {
	Secrets []string
}

// NewRedactor keeps the non-empty secrets, longest first so that overlapping
// values are replaced before their substrings.
func NewRedactor(secrets []string) *Redactor {
	var kept []string
	for _, s := range secrets {
		if s != "" {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i]) > len(kept[j])
	})
	return &Redactor{Secrets: kept}
}

// NewEnvRedactor collects the values of the named environment variables.
// Unset variables and values shorter than minSecretLength are skipped.
func NewEnvRedactor(names []string, lookup func(string) (string, bool)) *Redactor {
	var secrets []string
	for _, name := range names {
		val, ok := lookup(name)
		if !ok || len(val) < minSecretLength {
			continue
		}
		secrets = append(secrets, val)
	}
	return NewRedactor(secrets)
}

func (r *Redactor) Redact(s string) string {
	if r == nil || len(r.Secrets) == 0 {
		return s
	}

	for _, secret := range r.Secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, mask)
	}
	return s
}
