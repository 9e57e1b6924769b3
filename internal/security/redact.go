package security

import (
	"regexp"
	"strings"
)

// maxUpstreamDetail bounds how much upstream error text may reach a log line.
const maxUpstreamDetail = 300

// Redactor scrubs upstream error text before it is logged. Provider errors
// can echo request headers and key material, so anything secret-shaped is
// masked and the rest is truncated.
type Redactor struct {
	secretPatterns []*regexp.Regexp
}

// NewRedactor creates a redactor for upstream error messages
func NewRedactor() *Redactor {
	patterns := []string{
		`AIza[0-9A-Za-z_\-]{30,}`,                      // Google API keys
		`sk-[A-Za-z0-9_\-]{16,}`,                       // OpenAI-style keys
		`(?i)bearer\s+[A-Za-z0-9._\-]+`,                // Authorization headers
		`(?i)(api[_-]?key|x-goog-api-key)["':=\s]+\S+`, // key=value fragments
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}

	return &Redactor{secretPatterns: compiled}
}

// Redact masks secret-shaped substrings in s
func (r *Redactor) Redact(s string) string {
	for _, pattern := range r.secretPatterns {
		s = pattern.ReplaceAllString(s, "[redacted]")
	}
	return s
}

// Summarize returns a redacted, length-bounded, single-line form of an
// upstream error suitable for logging. Never hand the result to API clients;
// they only ever get the translated taxonomy message.
func (r *Redactor) Summarize(err error) string {
	if err == nil {
		return ""
	}

	s := r.Redact(err.Error())
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxUpstreamDetail {
		s = s[:maxUpstreamDetail] + "..."
	}
	return s
}
