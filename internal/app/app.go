// Package app implements the top-level operations behind the synthgen CLI.
//
// Every operation returns a JSON-ready payload or an error; Payload folds both
// into the single document the CLI prints.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shpitdev/synthgen/internal/artifact"
	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/pipeline"
	"github.com/shpitdev/synthgen/internal/redact"
	"github.com/shpitdev/synthgen/internal/textgen"
	"github.com/shpitdev/synthgen/internal/trainer"
)

// Config carries the collaborators chosen at startup.
type Config struct {
	Capability textgen.Capability

	// Trainer may be nil; TrainModel and Run then fail with a *ConfigError.
	Trainer trainer.Backend

	// Store receives training outputs. Nil uses a Local store in ExportDir.
	Store artifact.Store

	// ExportDir is where Download materializes artifacts from non-local stores.
	ExportDir string

	ChunkSize int

	// Seed fixes offline sampling when non-zero.
	Seed uint64

	// LogOutput receives run logs. Nil means os.Stderr.
	LogOutput io.Writer
}

// App runs operations against one Config.
type App struct {
	cfg    Config
	logger *log.Logger
}

func New(cfg Config) *App {
	if strings.TrimSpace(cfg.ExportDir) == "" {
		cfg.ExportDir = artifact.DefaultDir
	}
	if cfg.Store == nil {
		cfg.Store = artifact.NewLocal(cfg.ExportDir)
	}
	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}
	return &App{cfg: cfg, logger: log.New(out, "", log.LstdFlags)}
}

// ConfigError is a request the operation cannot serve as given (missing file,
// unsupported value).
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "config error"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorPayload is the document printed for a failed operation.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Payload returns v on success and an ErrorPayload with a redacted message
// otherwise.
func Payload(v any, err error) any {
	if err != nil {
		return ErrorPayload{Error: redact.Secrets(err.Error())}
	}
	return v
}

type runLog func(format string, args ...any)

// run executes op with a per-run logger and converts panics into errors.
func (a *App) run(name string, op func(logf runLog) (any, error)) (out any, err error) {
	runID := "run-" + uuid.New().String()
	logf := func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		a.logger.Printf("run=%s "+format, prefix...)
	}
	start := time.Now()
	logf("%s start", name)

	defer func() {
		if r := recover(); r != nil {
			logf("%s panic: %v\n%s", name, r, debug.Stack())
			out, err = nil, fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			logf("%s failed: %s dur=%s", name, redact.Secrets(err.Error()), time.Since(start).Round(time.Millisecond))
			return
		}
		logf("%s done dur=%s", name, time.Since(start).Round(time.Millisecond))
	}()
	return op(logf)
}

func (a *App) pipeline(logf runLog, engineer bool) *pipeline.Pipeline {
	var rng *rand.Rand
	if a.cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed))
	}
	return &pipeline.Pipeline{
		Capability: a.cfg.Capability,
		Trainer:    a.cfg.Trainer,
		Store:      a.cfg.Store,
		Rand:       rng,
		Logf:       logf,
		Options: pipeline.Options{
			ChunkSize: a.cfg.ChunkSize,
			Engineer:  engineer,
		},
	}
}

func readText(kind, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &ConfigError{Msg: kind + " path is required"}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &ConfigError{Msg: "read " + kind, Err: err}
	}
	return string(b), nil
}

func readDataset(path string) (dataset.Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return dataset.Dataset{}, &ConfigError{Msg: "dataset path is required"}
	}
	f, err := os.Open(path)
	if err != nil {
		return dataset.Dataset{}, &ConfigError{Msg: "read dataset", Err: err}
	}
	defer func() {
		_ = f.Close()
	}()
	ds, err := dataset.ReadJSON(f)
	if err != nil {
		return dataset.Dataset{}, &ConfigError{Msg: "parse dataset " + filepath.Base(path), Err: err}
	}
	return ds, nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, textgen.ErrUnavailable)
}
