// Package synth produces seed datasets from a free-text description, either by
// sampling parsed field specs directly (offline) or by asking the text
// generation service for CSV in fixed-size chunks (online).
package synth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/fieldspec"
	"github.com/shpitdev/synthgen/internal/textgen"
)

// DefaultChunkSize is the number of rows requested per generation call.
const DefaultChunkSize = 100

// Mode is the synthesis path that produced a dataset.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const csvInstructions = "You are a data generation expert. Generate realistic synthetic data as CSV only (with header), " +
	"no extra text or backticks. No missing values."

type Options struct {
	// ChunkSize is the number of rows per online request. <=0 uses DefaultChunkSize.
	ChunkSize int

	// Engineer rewrites the prompt with the text generation service before
	// online synthesis.
	Engineer bool

	// Logf receives progress and fallback messages. Nil discards them.
	Logf func(format string, args ...any)
}

// Result is the outcome of one synthesis.
type Result struct {
	Dataset dataset.Dataset
	Mode    Mode

	// Fields are parsed from the original prompt.
	Fields []fieldspec.Field

	// Prompt is the text sent to the service (engineered or original).
	Prompt string

	// Fallback explains why an online attempt ended offline. Empty otherwise.
	Fallback string
}

// Synthesizer holds the collaborators for seed generation. It is not safe for
// concurrent use because it shares one random source.
type Synthesizer struct {
	cap       textgen.Capability
	rng       *rand.Rand
	chunkSize int
	engineer  bool
	logf      func(format string, args ...any)
}

func New(capability textgen.Capability, rng *rand.Rand, opts Options) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Synthesizer{
		cap:       capability,
		rng:       rng,
		chunkSize: opts.ChunkSize,
		engineer:  opts.Engineer,
		logf:      logf,
	}
}

// Synthesize generates rows records for prompt. It never fails: any online
// problem degrades to offline sampling of the fields parsed from prompt.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string, rows int) Result {
	fields := fieldspec.Parse(prompt)
	res := Result{Fields: fields, Prompt: prompt}

	if !s.cap.Available() {
		res.Dataset = Offline(fields, rows, s.rng)
		res.Mode = ModeOffline
		return res
	}

	text := prompt
	if s.engineer && strings.TrimSpace(prompt) != "" {
		eng, err := Engineer(ctx, s.cap, prompt)
		if err != nil {
			s.logf("prompt engineering skipped due to error: %v", err)
		} else {
			text = eng
		}
	}
	res.Prompt = text

	ds, err := s.online(ctx, text, rows)
	if err != nil {
		s.logf("online generation failed, using offline generator: %v", err)
		res.Dataset = Offline(fields, rows, s.rng)
		res.Mode = ModeOffline
		res.Fallback = err.Error()
		return res
	}
	res.Dataset = ds
	res.Mode = ModeOnline
	return res
}

func (s *Synthesizer) online(ctx context.Context, prompt string, rows int) (dataset.Dataset, error) {
	if rows <= 0 {
		return dataset.Dataset{}, fmt.Errorf("row count %d is not positive", rows)
	}

	var chunks []string
	for remaining, i := rows, 0; remaining > 0; i++ {
		n := min(s.chunkSize, remaining)
		start := time.Now()
		out, err := s.cap.Generate(ctx, []string{csvInstructions, chunkRequest(n, prompt)})
		if err != nil {
			return dataset.Dataset{}, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		chunks = append(chunks, textgen.StripFences(out))
		s.logf("chunk %d: requested=%d rows duration=%s", i+1, n, time.Since(start).Round(time.Millisecond))
		remaining -= n
	}

	ds, err := dataset.ReadCSV(strings.NewReader(Stitch(chunks)))
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("parse generated csv: %w", err)
	}
	if len(ds.Columns) == 0 || ds.Len() == 0 {
		return dataset.Dataset{}, fmt.Errorf("generated table is empty (columns=%d rows=%d)", len(ds.Columns), ds.Len())
	}
	return ds, nil
}

func chunkRequest(rows int, prompt string) string {
	return fmt.Sprintf("Generate %d rows of synthetic data based on this prompt:\n%s\n", rows, prompt)
}

// Stitch joins chunk texts in order: the first chunk is kept whole and every
// later chunk loses its first (header) line.
func Stitch(chunks []string) string {
	var parts []string
	for i, c := range chunks {
		c = strings.TrimSpace(c)
		if i > 0 {
			_, body, _ := strings.Cut(c, "\n")
			c = strings.TrimSpace(body)
		}
		if c == "" {
			continue
		}
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n")
}
