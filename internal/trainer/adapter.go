package trainer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shpitdev/synthgen/internal/artifact"
	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/schema"
)

// Result is the outcome of one training run.
type Result struct {
	Synthetic dataset.Dataset
	Metadata  Metadata
}

// Adapter drives one fit/sample cycle on a trainer backend and persists the
// sampled table.
type Adapter struct {
	Backend Backend

	// Store receives synthetic_data.csv and synthetic_data.json. Optional.
	Store artifact.Store

	// Logf is optional. When nil, logs are discarded.
	Logf func(format string, args ...any)
}

func (a *Adapter) logf(format string, args ...any) {
	if a.Logf != nil {
		a.Logf(format, args...)
	}
}

// Train builds metadata for seed, trains cfg.ModelType on it and samples
// cfg.SampleRows rows (seed row count when zero).
//
// The synthetic table is typed by the schema inferencer and keeps the seed's
// id column when its sampled values are still distinct.
func (a *Adapter) Train(ctx context.Context, seed dataset.Dataset, cfg Config) (Result, error) {
	if a.Backend == nil {
		return Result{}, &ConfigError{Msg: "trainer backend is not configured"}
	}
	if len(seed.Columns) == 0 {
		return Result{}, &ConfigError{Msg: "seed dataset has no columns"}
	}
	params, err := cfg.TrainerParams()
	if err != nil {
		return Result{}, err
	}

	md := BuildMetadata(seed, seed.ColumnTypes, seed.IDColumn)
	if seed.IDColumn != "" && md.PrimaryKey == "" {
		a.logf("id column %q is not unique; keeping its detected type", seed.IDColumn)
	}

	start := time.Now()
	model, err := a.Backend.Create(ctx, cfg.ModelType, params, md)
	if err != nil {
		return Result{}, fmt.Errorf("create %s model: %w", cfg.ModelType, err)
	}
	if err := model.Fit(ctx, seed); err != nil {
		return Result{}, fmt.Errorf("fit %s model: %w", cfg.ModelType, err)
	}
	a.logf("fit done model=%s rows=%d dur=%s", cfg.ModelType, seed.Len(), time.Since(start).Round(time.Millisecond))

	n := cfg.SampleRows
	if n <= 0 {
		n = seed.Len()
	}
	sampled, err := model.Sample(ctx, n)
	if err != nil {
		return Result{}, fmt.Errorf("sample %d rows: %w", n, err)
	}
	synthetic := schema.Infer(sampled, seed.IDColumn)
	a.logf("sample done rows=%d", synthetic.Len())

	a.persist(ctx, synthetic)
	return Result{Synthetic: synthetic, Metadata: md}, nil
}

// persist replaces both artifacts. Failures are logged and never fail
// training. JSON is written first; when the CSV write then fails the previous
// JSON is put back so the pair always comes from the same run.
func (a *Adapter) persist(ctx context.Context, ds dataset.Dataset) {
	if a.Store == nil {
		return
	}
	var csvBuf bytes.Buffer
	if err := dataset.WriteCSV(&csvBuf, ds); err != nil {
		a.logf("Failed to persist synthetic data: %v", err)
		return
	}
	var jsonBuf bytes.Buffer
	if err := dataset.WriteJSON(&jsonBuf, ds); err != nil {
		a.logf("Failed to persist synthetic data: %v", err)
		return
	}

	prev, err := a.Store.Get(ctx, artifact.SyntheticJSON)
	if err != nil && !errors.Is(err, artifact.ErrNotFound) {
		a.logf("Failed to persist synthetic data: %v", err)
		return
	}
	hadPrev := err == nil

	if err := a.Store.Put(ctx, artifact.SyntheticJSON, jsonBuf.Bytes()); err != nil {
		a.logf("Failed to persist synthetic data: %v", err)
		return
	}
	if err := a.Store.Put(ctx, artifact.SyntheticCSV, csvBuf.Bytes()); err != nil {
		a.logf("Failed to persist synthetic data: %v", err)
		if !hadPrev {
			return
		}
		if rbErr := a.Store.Put(ctx, artifact.SyntheticJSON, prev); rbErr != nil {
			a.logf("restore previous %s: %v", artifact.SyntheticJSON, rbErr)
		}
	}
}
