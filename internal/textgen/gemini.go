package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// RateLimitRPS paces requests across the process. Set to <=0 to disable.
	RateLimitRPS float64

	// Timeout bounds a single request. Zero leaves the caller's context alone.
	Timeout time.Duration
}

// Gemini is a Service backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	g := &Gemini{client: client, model: model, timeout: cfg.Timeout}
	if cfg.RateLimitRPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	return g, nil
}

// Generate sends all blocks as parts of one user turn and returns the response text.
func (g *Gemini) Generate(ctx context.Context, blocks []string) (string, error) {
	if len(blocks) == 0 {
		return "", errors.New("gemini: no input blocks")
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := make([]*genai.Part, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, &genai.Part{Text: b})
	}
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return "", classifyErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: api error code=%d: %w", apiErr.Code, err)
	}
	return fmt.Errorf("gemini: %w", err)
}

// FromConfig selects the capability once: Available when an API key is set and
// the client can be built, Unavailable otherwise.
func FromConfig(ctx context.Context, cfg Config) Capability {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Unavailable("GEMINI_API_KEY not set")
	}
	g, err := NewGemini(ctx, cfg)
	if err != nil {
		return Unavailable("gemini init failed: " + err.Error())
	}
	return Available(g)
}
