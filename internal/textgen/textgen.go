// Package textgen models the optional text-generation service.
//
// Consumers never hold a nil client: they receive a Capability that is either
// Available (wrapping a Service) or Unavailable, decided once at startup.
package textgen

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrUnavailable is returned by Capability.Generate when no service is configured.
var ErrUnavailable = errors.New("text generation unavailable")

// Service turns an ordered list of text blocks (instructions first, content
// after) into free text. Implementations make a single attempt per call.
type Service interface {
	Generate(ctx context.Context, blocks []string) (string, error)
}

// Func adapts a plain function to Service.
type Func func(ctx context.Context, blocks []string) (string, error)

func (f Func) Generate(ctx context.Context, blocks []string) (string, error) {
	return f(ctx, blocks)
}

// Capability is the startup-time decision about text generation.
type Capability struct {
	svc    Service
	reason string
}

// Available wraps a working service. A nil svc yields an Unavailable capability.
func Available(svc Service) Capability {
	if svc == nil {
		return Unavailable("no service")
	}
	return Capability{svc: svc}
}

// Unavailable records why text generation is disabled.
func Unavailable(reason string) Capability {
	if strings.TrimSpace(reason) == "" {
		reason = "not configured"
	}
	return Capability{reason: reason}
}

// Available reports whether a service is configured.
func (c Capability) Available() bool {
	return c.svc != nil
}

// Reason is empty for an available capability.
func (c Capability) Reason() string {
	if c.svc != nil {
		return ""
	}
	if c.reason == "" {
		return "not configured"
	}
	return c.reason
}

// Generate forwards to the service, or returns ErrUnavailable.
func (c Capability) Generate(ctx context.Context, blocks []string) (string, error) {
	if c.svc == nil {
		return "", ErrUnavailable
	}
	return c.svc.Generate(ctx, blocks)
}

var langTagRe = regexp.MustCompile(`^[A-Za-z0-9_+\-]*\s*$`)

// StripFences removes one leading and one trailing markdown code fence. A
// language tag on the opening fence line (```csv, ```json) is dropped as well.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		if i := strings.IndexByte(rest, '\n'); i >= 0 && langTagRe.MatchString(rest[:i]) {
			rest = rest[i+1:]
		} else {
			for _, tag := range []string{"json", "csv"} {
				if r, ok := strings.CutPrefix(rest, tag); ok {
					rest = r
					break
				}
			}
		}
		s = strings.TrimSpace(rest)
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
