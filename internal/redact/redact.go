package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|trainer[_-]?token|secret[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Gemini REST errors can echo the request URL including ?key=...
	urlKeyParamRe = regexp.MustCompile(`([?&])key=[^&\s"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = urlKeyParamRe.ReplaceAllString(out, "${1}key=<redacted>")
	return strings.TrimSpace(out)
}

// Truncate shortens s to at most max bytes, appending "..." when cut.
// Newlines are flattened so the result fits on one log line.
func Truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
