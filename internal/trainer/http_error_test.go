package trainer

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNewHTTPError_Envelope(t *testing.T) {
	resp := &http.Response{StatusCode: 400, Status: "400 Bad Request"}
	err := newHTTPError("createModel", resp, []byte(`{"error":"bad token Bearer abc.def","code":"INVALID_ARGUMENT"}`))

	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if he.Code != "INVALID_ARGUMENT" || he.StatusCode != 400 {
		t.Fatalf("unexpected error %+v", he)
	}
	if strings.Contains(err.Error(), "abc.def") {
		t.Fatalf("expected token to be redacted: %s", err.Error())
	}
	if he.Snippet != "" {
		t.Fatalf("envelope errors carry no snippet, got %q", he.Snippet)
	}
}

func TestNewHTTPError_SnippetTruncated(t *testing.T) {
	resp := &http.Response{StatusCode: 502, Status: "502 Bad Gateway"}
	body := "<html>" + strings.Repeat("x", 1000) + "\n</html>"
	err := newHTTPError("sample", resp, []byte(body))

	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if !strings.HasSuffix(he.Snippet, "...") {
		t.Fatalf("expected truncated snippet, got %q", he.Snippet)
	}
	if len(he.Snippet) > maxSnippet+3 {
		t.Fatalf("snippet too long: %d", len(he.Snippet))
	}
	if !strings.Contains(err.Error(), "op=sample") || !strings.Contains(err.Error(), "status=502 Bad Gateway") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
