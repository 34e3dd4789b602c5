// Package mocktrainer is an in-process fake of the tabular trainer service.
//
// Sampling is per-column bootstrap resampling of the fitted rows, so sampled
// values always come from the training data. Identifier columns get fresh
// distinct values.
package mocktrainer

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shpitdev/synthgen/internal/dataset"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
}

type columnMeta struct {
	SDType string `json:"sdtype"`
}

type metadata struct {
	Columns    map[string]columnMeta `json:"columns"`
	PrimaryKey string                `json:"primaryKey"`
}

type model struct {
	kind   string
	params map[string]any
	md     metadata

	fitted bool
	data   dataset.Dataset
}

type failure struct {
	status    int
	remaining int
}

// Server implements the trainer wire protocol in memory.
type Server struct {
	mu    sync.Mutex
	calls []Call
	rng   *rand.Rand

	expectedAuthorization string

	models   map[string]*model
	failures map[string]*failure
}

// New constructs a server whose sampling is deterministic for seed.
func New(seed uint64) *Server {
	return &Server{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		models:   make(map[string]*model),
		failures: make(map[string]*failure),
	}
}

// RequireBearerToken enforces that requests include an Authorization header matching the token.
// If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// FailNext makes the next n requests for op ("create", "fit" or "sample")
// answer with status.
func (s *Server) FailNext(op string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failure{status: status, remaining: n}
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/models", s.handleCreate)
	mux.HandleFunc("POST /v1/models/{id}/fit", s.handleFit)
	mux.HandleFunc("POST /v1/models/{id}/sample", s.handleSample)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Params returns the hyperparameters a model was created with.
func (s *Server) Params(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	if !ok {
		return nil, false
	}
	return m.params, true
}

// PrimaryKey returns the primary key a model was created with.
func (s *Server) PrimaryKey(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	if !ok {
		return "", false
	}
	return m.md.PrimaryKey, true
}

func (s *Server) begin(w http.ResponseWriter, r *http.Request, op string) bool {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
	expected := s.expectedAuthorization
	f := s.failures[op]
	injected := 0
	if f != nil && f.remaining > 0 {
		f.remaining--
		injected = f.status
	}
	s.mu.Unlock()

	if expected != "" && r.Header.Get("Authorization") != expected {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid bearer token")
		return false
	}
	if injected != 0 {
		writeError(w, injected, "INJECTED", fmt.Sprintf("injected %s failure", op))
		return false
	}
	return true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, r, "create") {
		return
	}
	var req struct {
		ModelType string         `json:"modelType"`
		Params    map[string]any `json:"params"`
		Metadata  metadata       `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON body")
		return
	}
	switch req.ModelType {
	case "CTGAN", "TVAE", "CopulaGAN":
	default:
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "Unsupported modelType: "+req.ModelType)
		return
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.models[id] = &model{kind: req.ModelType, params: req.Params, md: req.Metadata}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"modelId": id})
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, r, "fit") {
		return
	}
	ds, err := dataset.ReadJSON(io.LimitReader(r.Body, 64<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid dataset: "+err.Error())
		return
	}
	if ds.Len() == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "cannot fit on an empty dataset")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown model")
		return
	}
	m.data = ds
	m.fitted = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, r, "sample") {
		return
	}
	var req struct {
		NumRows int `json:"numRows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NumRows < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "numRows must be a non-negative integer")
		return
	}

	s.mu.Lock()
	m, ok := s.models[r.PathValue("id")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown model")
		return
	}
	if !m.fitted {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "FAILED_PRECONDITION", "model is not fitted")
		return
	}
	out := s.sampleLocked(m, req.NumRows)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = dataset.WriteJSON(w, out)
}

func (s *Server) sampleLocked(m *model, n int) dataset.Dataset {
	seed := m.data
	rows := make([]dataset.Record, n)
	for i := range rows {
		rows[i] = make(dataset.Record, len(seed.Columns))
	}
	for _, c := range seed.Columns {
		if m.md.Columns[c].SDType == "id" {
			numeric := isNumericColumn(seed, c)
			for i := range rows {
				if numeric {
					rows[i][c] = int64(i + 1)
				} else {
					rows[i][c] = uuid.New().String()
				}
			}
			continue
		}
		for i := range rows {
			rows[i][c] = seed.Rows[s.rng.IntN(seed.Len())][c]
		}
	}
	return dataset.New(seed.Columns, rows)
}

func isNumericColumn(ds dataset.Dataset, column string) bool {
	values, _ := ds.Column(column)
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := dataset.Float(v); !ok {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
