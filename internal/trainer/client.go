package trainer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/version"
)

// Backend creates trainable models.
type Backend interface {
	Create(ctx context.Context, kind ModelType, params map[string]any, md Metadata) (Synthesizer, error)
}

// Synthesizer is one model instance on the trainer.
type Synthesizer interface {
	Fit(ctx context.Context, ds dataset.Dataset) error
	Sample(ctx context.Context, n int) (dataset.Dataset, error)
}

// HTTPBackend speaks the trainer wire protocol:
//
//	POST v1/models                 {modelType, params, metadata} -> {modelId}
//	POST v1/models/{id}/fit        Dataset JSON                  -> 2xx
//	POST v1/models/{id}/sample     {numRows}                     -> Dataset JSON
//
// Model creation and sampling are retried on transient failures; fit is not,
// since a repeated fit restarts training.
type HTTPBackend struct {
	baseURL *url.URL
	token   string
	http    *http.Client

	attempts     int
	initialSleep time.Duration
}

// NewHTTPBackend builds a client for the trainer at baseURL.
//
// caPath is optional and, when provided, is used as the trust store for TLS.
// The client sets no overall timeout: training time is bounded only by ctx.
func NewHTTPBackend(baseURL, token, caPath string) (*HTTPBackend, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	hc, err := newHTTPClient(caPath)
	if err != nil {
		return nil, err
	}
	return &HTTPBackend{
		baseURL:      u,
		token:        strings.TrimSpace(token),
		http:         hc,
		attempts:     5,
		initialSleep: 200 * time.Millisecond,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ConfigError{Msg: "TRAINER_URL is required"}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ConfigError{Msg: "parse trainer base URL", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ConfigError{Msg: fmt.Sprintf("trainer base URL must include a host (got %q)", raw)}
	}
	// Ensure the base path ends with a slash so ResolveReference treats it as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func newHTTPClient(caPath string) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if strings.TrimSpace(caPath) != "" {
		b, err := os.ReadFile(strings.TrimSpace(caPath))
		if err != nil {
			return nil, &ConfigError{Msg: "read TRAINER_CA_PATH file", Err: err}
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(b); !ok {
			return nil, &ConfigError{Msg: "parse TRAINER_CA_PATH PEM: no certs found"}
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{Transport: tr}, nil
}

type createRequest struct {
	ModelType ModelType      `json:"modelType"`
	Params    map[string]any `json:"params"`
	Metadata  Metadata       `json:"metadata"`
}

type createResponse struct {
	ModelID string `json:"modelId"`
}

type sampleRequest struct {
	NumRows int `json:"numRows"`
}

// Create registers a model on the trainer.
func (b *HTTPBackend) Create(ctx context.Context, kind ModelType, params map[string]any, md Metadata) (Synthesizer, error) {
	body, err := json.Marshal(createRequest{ModelType: kind, Params: params, Metadata: md})
	if err != nil {
		return nil, err
	}

	var rb []byte
	err = retryTransient(ctx, b.attempts, b.initialSleep, func() error {
		var err error
		rb, err = b.post(ctx, "createModel", "v1/models", body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var out createResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return nil, fmt.Errorf("parse create model response: %w", err)
	}
	id := strings.TrimSpace(out.ModelID)
	if id == "" {
		return nil, fmt.Errorf("create model response missing modelId")
	}
	return &httpModel{backend: b, id: id}, nil
}

type httpModel struct {
	backend *HTTPBackend
	id      string
}

// ID returns the trainer-assigned model id.
func (m *httpModel) ID() string {
	return m.id
}

func (m *httpModel) Fit(ctx context.Context, ds dataset.Dataset) error {
	body, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	_, err = m.backend.post(ctx, "fit", fmt.Sprintf("v1/models/%s/fit", m.id), body)
	return err
}

func (m *httpModel) Sample(ctx context.Context, n int) (dataset.Dataset, error) {
	body, err := json.Marshal(sampleRequest{NumRows: n})
	if err != nil {
		return dataset.Dataset{}, err
	}

	var rb []byte
	err = retryTransient(ctx, m.backend.attempts, m.backend.initialSleep, func() error {
		var err error
		rb, err = m.backend.post(ctx, "sample", fmt.Sprintf("v1/models/%s/sample", m.id), body)
		return err
	})
	if err != nil {
		return dataset.Dataset{}, err
	}

	ds, err := dataset.ReadJSON(bytes.NewReader(rb))
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("parse sample response: %w", err)
	}
	return ds, nil
}

func (b *HTTPBackend) post(ctx context.Context, op, relPath string, body []byte) ([]byte, error) {
	u := b.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(relPath, "/")})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(op, resp, rb)
	}
	return rb, nil
}
