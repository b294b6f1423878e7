package security_test

import (
	"testing"

	"github.com/arnavsurve/devgate/pkg/security"
	"github.com/stretchr/testify/assert"
)

func TestRedactor_Redact(t *testing.T) {
	tests := []struct {
		name    string
		secrets []string
		input   string
		want    string
	}{
		{
			name:    "exact match",
			secrets: []string{"supersecret"},
			input:   "The password is supersecret",
			want:    "The password is ********",
		},
		{
			name:    "multiple occurrences",
			secrets: []string{"abcdef"},
			input:   "API key: abcdef is being used. Backup key: abcdef should be stored.",
			want:    "API key: ******** is being used. Backup key: ******** should be stored.",
		},
		{
			name:    "multiple secrets",
			secrets: []string{"pass123", "key456"},
			input:   "Password: pass123, API Key: key456",
			want:    "Password: ********, API Key: ********",
		},
		{
			name:    "empty secret is skipped",
			secrets: []string{"", "valid"},
			input:   "Empty: , Valid: valid",
			want:    "Empty: , Valid: ********",
		},
		{
			name:    "no secrets returns original string",
			secrets: nil,
			input:   "Original string",
			want:    "Original string",
		},
		{
			name:    "overlapping secrets",
			secrets: []string{"secret", "supersecret"},
			input:   "This contains supersecret and secret values",
			want:    "This contains ******** and ******** values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := security.NewRedactor(tt.secrets)
			assert.Equal(t, tt.want, r.Redact(tt.input))
		})
	}
}

func TestRedactor_NilIsPassthrough(t *testing.T) {
	var r *security.Redactor
	assert.Equal(t, "unchanged", r.Redact("unchanged"))
}

func TestNewRedactor_SortsLongestFirst(t *testing.T) {
	r := security.NewRedactor([]string{"abc", "abcdefgh", "abcde"})
	assert.Equal(t, []string{"abcdefgh", "abcde", "abc"}, r.Secrets)
}

func TestNewEnvRedactor(t *testing.T) {
	env := map[string]string{
		"AWS_SECRET_ACCESS_KEY": "wJalrXUtnFEMI",
		"AWS_SESSION_TOKEN":     "",
		"SHORT":                 "1",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	r := security.NewEnvRedactor([]string{"AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "SHORT", "MISSING"}, lookup)

	assert.ElementsMatch(t, []string{"wJalrXUtnFEMI"}, r.Secrets)
	assert.Equal(t, "key=********", r.Redact("key=wJalrXUtnFEMI"))
}
