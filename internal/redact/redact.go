// Package redact strips credentials from log output before it leaves the
// process. Only the secrets this service can actually hold (provider API
// keys, bearer tokens) are covered.
package redact

import (
	"fmt"
	"log"
	"regexp"
)

var (
	bearerRe    = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._\-+/=]+)`)
	apiKeyRe    = regexp.MustCompile(`(?i)(api[_-]?key(?:s)?\s*[:=]\s*)([A-Za-z0-9._\-+/=]+)`)
	openAIKeyRe = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{10,}\b`)
)

// String redacts known secret patterns from a free-form string.
func String(s string) string {
	if s == "" {
		return s
	}
	out := s
	out = bearerRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = openAIKeyRe.ReplaceAllString(out, "[REDACTED]")
	return out
}

// Sprintf formats like fmt.Sprintf and redacts the result.
func Sprintf(format string, args ...interface{}) string {
	return String(fmt.Sprintf(format, args...))
}

// Logf prints a redacted log line.
func Logf(format string, args ...interface{}) {
	log.Print(Sprintf(format, args...))
}
