package trainer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shpitdev/synthgen/internal/redact"
)

// errorEnvelope is the trainer's JSON error shape.
type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError is a sanitized summary of a non-2xx trainer response.
//
// Raw response bodies are never included; they can echo training data.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Code       string
	Message    string

	// Snippet is a redacted, truncated hint for non-JSON responses.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "trainer http error"
	}
	parts := []string{
		fmt.Sprintf("trainer api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Code) != "" {
		parts = append(parts, "code="+strings.TrimSpace(e.Code))
	}
	if strings.TrimSpace(e.Message) != "" {
		parts = append(parts, "message="+strings.TrimSpace(e.Message))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

const maxSnippet = 256

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.Code = strings.TrimSpace(env.Code)
		h.Message = redact.Truncate(redact.Secrets(env.Error), maxSnippet)
		if h.Code != "" || h.Message != "" {
			return h
		}
	}

	truncated := len(body) > maxSnippet
	if truncated {
		body = body[:maxSnippet]
	}
	snippet := redact.Truncate(redact.Secrets(string(body)), 0)
	if snippet != "" && truncated {
		snippet += "..."
	}
	h.Snippet = snippet
	return h
}
