// Package pipeline wires the stages prompt -> seed -> model -> report.
//
// Stage outputs are plain values returned to the caller and passed into the
// next stage. A Pipeline only holds collaborators, so two runs never share
// data.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/shpitdev/synthgen/internal/artifact"
	"github.com/shpitdev/synthgen/internal/constraints"
	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/fieldspec"
	"github.com/shpitdev/synthgen/internal/schema"
	"github.com/shpitdev/synthgen/internal/synth"
	"github.com/shpitdev/synthgen/internal/textgen"
	"github.com/shpitdev/synthgen/internal/trainer"
	"github.com/shpitdev/synthgen/internal/validate"
)

type Options struct {
	// ChunkSize is the number of rows per online generation request.
	ChunkSize int

	// Engineer rewrites prompts before online generation.
	Engineer bool
}

// Pipeline holds the collaborators shared by every stage.
type Pipeline struct {
	Capability textgen.Capability
	Trainer    trainer.Backend
	Store      artifact.Store

	// Rand seeds offline synthesis. Nil draws a time-based seed per call.
	Rand *rand.Rand

	// Logf is optional. When nil, logs are discarded.
	Logf func(format string, args ...any)

	Options Options
}

// ParseResult is the output of Parse.
type ParseResult struct {
	Prompt string
	Fields []fieldspec.Field
}

// SynthesizeResult is the output of Synthesize.
type SynthesizeResult struct {
	Seed   dataset.Dataset
	Fields []fieldspec.Field
	Mode   synth.Mode

	// Prompt is the text the seed was generated from (engineered or original).
	Prompt   string
	Fallback string
}

// TrainResult is the output of Train.
type TrainResult struct {
	Seed      dataset.Dataset
	Synthetic dataset.Dataset
	Metadata  trainer.Metadata
}

// ValidateResult is the output of Validate.
type ValidateResult struct {
	Synthetic   dataset.Dataset
	Constraints constraints.Set
	Report      validate.Report
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}

// Parse extracts field specs from prompt.
func (p *Pipeline) Parse(prompt string) ParseResult {
	fields := fieldspec.Parse(prompt)
	p.logf("parsed %d fields", len(fields))
	return ParseResult{Prompt: prompt, Fields: fields}
}

// Synthesize generates a typed seed dataset of rows records. It never fails.
func (p *Pipeline) Synthesize(ctx context.Context, pr ParseResult, rows int) SynthesizeResult {
	start := time.Now()
	s := synth.New(p.Capability, p.Rand, synth.Options{
		ChunkSize: p.Options.ChunkSize,
		Engineer:  p.Options.Engineer,
		Logf:      p.Logf,
	})
	res := s.Synthesize(ctx, pr.Prompt, rows)
	seed := schema.Infer(res.Dataset, "")
	p.logf("synthesized seed mode=%s rows=%d columns=%d dur=%s", res.Mode, seed.Len(), len(seed.Columns), time.Since(start).Round(time.Millisecond))
	return SynthesizeResult{
		Seed:     seed,
		Fields:   res.Fields,
		Mode:     res.Mode,
		Prompt:   res.Prompt,
		Fallback: res.Fallback,
	}
}

// Constraints extracts value bounds for pr. The returned error only explains
// a degradation; the Set is always usable.
func (p *Pipeline) Constraints(ctx context.Context, pr ParseResult) (constraints.Set, error) {
	return constraints.Extract(ctx, p.Capability, pr.Prompt)
}

// Train fits cfg.ModelType on seed and samples the synthetic table.
func (p *Pipeline) Train(ctx context.Context, seed dataset.Dataset, cfg trainer.Config) (TrainResult, error) {
	a := &trainer.Adapter{Backend: p.Trainer, Store: p.Store, Logf: p.Logf}
	res, err := a.Train(ctx, seed, cfg)
	if err != nil {
		return TrainResult{}, err
	}
	return TrainResult{Seed: seed, Synthetic: res.Synthetic, Metadata: res.Metadata}, nil
}

// Validate compares the trained output against its seed.
func (p *Pipeline) Validate(tr TrainResult, set constraints.Set) ValidateResult {
	if set == nil {
		set = constraints.Set{}
	}
	return ValidateResult{
		Synthetic:   tr.Synthetic,
		Constraints: set,
		Report:      validate.Validate(tr.Seed, tr.Synthetic, set),
	}
}

// RunResult carries every stage output of Run.
type RunResult struct {
	Parse      ParseResult
	Synthesize SynthesizeResult
	Train      TrainResult
	Validate   ValidateResult
}

// Run executes every stage in order. Validation uses cfg.Constraints when
// the config declares any, and the extracted constraints otherwise.
func (p *Pipeline) Run(ctx context.Context, prompt string, rows int, cfg trainer.Config) (RunResult, error) {
	var out RunResult
	out.Parse = p.Parse(prompt)
	out.Synthesize = p.Synthesize(ctx, out.Parse, rows)

	tr, err := p.Train(ctx, out.Synthesize.Seed, cfg)
	if err != nil {
		return out, err
	}
	out.Train = tr

	set := cfg.Constraints
	if len(set) == 0 {
		var err error
		set, err = p.Constraints(ctx, out.Parse)
		if err != nil {
			p.logf("constraint extraction degraded: %v", err)
		}
	}
	out.Validate = p.Validate(tr, set)
	return out, nil
}
