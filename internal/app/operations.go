package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shpitdev/synthgen/internal/artifact"
	"github.com/shpitdev/synthgen/internal/constraints"
	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/schema"
	"github.com/shpitdev/synthgen/internal/synth"
	"github.com/shpitdev/synthgen/internal/trainer"
	"github.com/shpitdev/synthgen/internal/transform"
	"github.com/shpitdev/synthgen/internal/validate"
)

// Generate synthesizes rows records from the prompt file and returns the
// typed Dataset.
func (a *App) Generate(ctx context.Context, promptPath string, rows int, useEngineering bool) (any, error) {
	return a.run("generate", func(logf runLog) (any, error) {
		prompt, err := readText("prompt", promptPath)
		if err != nil {
			return nil, err
		}
		if rows < 0 {
			return nil, &ConfigError{Msg: fmt.Sprintf("rows must not be negative (got %d)", rows)}
		}
		p := a.pipeline(logf, useEngineering)
		res := p.Synthesize(ctx, p.Parse(prompt), rows)
		logf("generate mode=%s rows=%d", res.Mode, res.Seed.Len())
		return res.Seed, nil
	})
}

// PromptPayload is the result of EngineerPrompt.
type PromptPayload struct {
	Prompt string `json:"prompt"`
}

// EngineerPrompt rewrites the prompt file with the text generation service.
// The original prompt is returned when the service is unavailable or fails.
func (a *App) EngineerPrompt(ctx context.Context, promptPath string) (any, error) {
	return a.run("engineer-prompt", func(logf runLog) (any, error) {
		prompt, err := readText("prompt", promptPath)
		if err != nil {
			return nil, err
		}
		out, err := synth.Engineer(ctx, a.cfg.Capability, prompt)
		if err != nil && !isUnavailable(err) {
			logf("Engineer prompt failed, returning original. Error: %s", err)
		}
		return PromptPayload{Prompt: out}, nil
	})
}

// GenerateConstraints returns the constraint artifact for the prompt file.
func (a *App) GenerateConstraints(ctx context.Context, promptPath string) (any, error) {
	return a.run("generate-constraints", func(logf runLog) (any, error) {
		prompt, err := readText("prompt", promptPath)
		if err != nil {
			return nil, err
		}
		set, err := constraints.Extract(ctx, a.cfg.Capability, prompt)
		if err != nil {
			logf("Constraints generation degraded: %s", err)
		}
		return set, nil
	})
}

// ProcessFile reads an uploaded CSV or XLSX table and returns the typed
// Dataset.
func (a *App) ProcessFile(_ context.Context, path string) (any, error) {
	return a.run("process-file", func(logf runLog) (any, error) {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &ConfigError{Msg: "File not found: " + path}
			}
			return nil, &ConfigError{Msg: "stat " + path, Err: err}
		}

		var read func(*os.File) (dataset.Dataset, error)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			read = func(f *os.File) (dataset.Dataset, error) { return dataset.ReadCSV(f) }
		case ".xlsx", ".xls":
			read = func(f *os.File) (dataset.Dataset, error) { return dataset.ReadXLSX(f) }
		default:
			return nil, &ConfigError{Msg: "Unsupported file type. Please upload CSV or Excel."}
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		ds, err := read(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		ds = schema.Infer(ds, "")
		logf("processed file rows=%d columns=%d", ds.Len(), len(ds.Columns))
		return ds, nil
	})
}

// Transform applies the plan file to the dataset file. An empty planPath
// returns the dataset unchanged.
func (a *App) Transform(_ context.Context, datasetPath, planPath string) (any, error) {
	return a.run("transform", func(logf runLog) (any, error) {
		ds, err := readDataset(datasetPath)
		if err != nil {
			return nil, err
		}
		plan := transform.Plan{}
		if strings.TrimSpace(planPath) != "" {
			plan, err = transform.LoadPlan(planPath)
			if err != nil {
				return nil, &ConfigError{Msg: "load transformation plan", Err: err}
			}
		}
		out, err := transform.Apply(ds, plan)
		if err != nil {
			return nil, &ConfigError{Msg: "apply transformation plan", Err: err}
		}
		logf("transform ops=%d rows=%d->%d", len(plan.Operations), ds.Len(), out.Len())
		return out, nil
	})
}

// GenerateTransformation suggests a plan for the instructions file against
// the sample dataset file. Any generation problem yields the empty plan.
func (a *App) GenerateTransformation(ctx context.Context, samplePath, instructionsPath string) (any, error) {
	return a.run("generate-transformation", func(logf runLog) (any, error) {
		sample, err := readDataset(samplePath)
		if err != nil {
			return nil, err
		}
		instructions, err := readText("instructions", instructionsPath)
		if err != nil {
			return nil, err
		}
		plan, err := transform.Suggest(ctx, a.cfg.Capability, sample, instructions)
		if err != nil {
			logf("transformation suggestion rejected: %s", err)
		}
		return plan, nil
	})
}

// TrainPayload is the result of TrainModel.
type TrainPayload struct {
	SyntheticData     dataset.Dataset `json:"syntheticData"`
	ValidationResults validate.Report `json:"validationResults"`
}

// TrainModel trains the configured model on the dataset file and validates
// the sampled output against the config's constraints.
func (a *App) TrainModel(ctx context.Context, datasetPath, configPath string) (any, error) {
	return a.run("train-model", func(logf runLog) (any, error) {
		seed, err := readDataset(datasetPath)
		if err != nil {
			return nil, err
		}
		cfg, err := trainer.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if a.cfg.Trainer == nil {
			return nil, &ConfigError{Msg: "TRAINER_URL is required for train-model"}
		}
		p := a.pipeline(logf, false)
		tr, err := p.Train(ctx, seed, cfg)
		if err != nil {
			return nil, err
		}
		v := p.Validate(tr, cfg.Constraints)
		return TrainPayload{SyntheticData: v.Synthetic, ValidationResults: v.Report}, nil
	})
}

// RunPayload is the result of Run.
type RunPayload struct {
	Mode              synth.Mode      `json:"mode"`
	SeedData          dataset.Dataset `json:"seedData"`
	SyntheticData     dataset.Dataset `json:"syntheticData"`
	Constraints       constraints.Set `json:"constraints"`
	ValidationResults validate.Report `json:"validationResults"`
}

// Run executes the whole pipeline: prompt, seed, training and validation.
func (a *App) Run(ctx context.Context, promptPath string, rows int, configPath string, useEngineering bool) (any, error) {
	return a.run("run", func(logf runLog) (any, error) {
		prompt, err := readText("prompt", promptPath)
		if err != nil {
			return nil, err
		}
		if rows <= 0 {
			return nil, &ConfigError{Msg: fmt.Sprintf("rows must be positive (got %d)", rows)}
		}
		cfg, err := trainer.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if a.cfg.Trainer == nil {
			return nil, &ConfigError{Msg: "TRAINER_URL is required for run"}
		}
		res, err := a.pipeline(logf, useEngineering).Run(ctx, prompt, rows, cfg)
		if err != nil {
			return nil, err
		}
		return RunPayload{
			Mode:              res.Synthesize.Mode,
			SeedData:          res.Synthesize.Seed,
			SyntheticData:     res.Validate.Synthetic,
			Constraints:       res.Validate.Constraints,
			ValidationResults: res.Validate.Report,
		}, nil
	})
}

// DownloadPayload is the result of Download.
type DownloadPayload struct {
	FilePath string `json:"filePath"`
}

// Download resolves a local file path for the last persisted synthetic output
// in format csv or json. FilePath is empty when nothing has been persisted.
func (a *App) Download(ctx context.Context, format string) (any, error) {
	return a.run("download", func(logf runLog) (any, error) {
		var name string
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "csv":
			name = artifact.SyntheticCSV
		case "json":
			name = artifact.SyntheticJSON
		default:
			return nil, &ConfigError{Msg: fmt.Sprintf("unsupported download format %q (want csv or json)", format)}
		}

		if local, ok := a.cfg.Store.(*artifact.Local); ok {
			p, err := local.Path(name)
			if err != nil {
				return nil, err
			}
			if _, err := os.Stat(p); err != nil {
				return DownloadPayload{FilePath: ""}, nil
			}
			return DownloadPayload{FilePath: p}, nil
		}

		b, err := a.cfg.Store.Get(ctx, name)
		if errors.Is(err, artifact.ErrNotFound) {
			return DownloadPayload{FilePath: ""}, nil
		}
		if err != nil {
			return nil, err
		}
		export := artifact.NewLocal(a.cfg.ExportDir)
		if err := export.Put(ctx, name, b); err != nil {
			return nil, err
		}
		p, err := export.Path(name)
		if err != nil {
			return nil, err
		}
		logf("exported %s bytes=%d", name, len(b))
		return DownloadPayload{FilePath: p}, nil
	})
}
