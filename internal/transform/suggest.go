package transform

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/textgen"
)

const sampleRows = 5

const suggestInstructions = `You write data transformation plans.
Output only raw JSON with no backticks, shaped as {"operations": [...]}.
Each operation is one of:
  {"op": "rename", "column": "<name>", "to": "<new name>"}
  {"op": "cast", "column": "<name>", "to": "numerical" | "categorical" | "boolean"}
  {"op": "filter_range", "column": "<name>", "min": <number>, "max": <number>}
  {"op": "recode", "column": "<name>", "mapping": {"<old>": "<new>"}}
Use only columns that exist in the sample. Use no other operations.`

// Suggest asks the text-generation service for a plan that fulfils
// instructions on sample. The plan must parse and apply cleanly to sample;
// otherwise the empty plan is returned with the reason.
//
// With the service unavailable the empty plan is returned and err is nil.
func Suggest(ctx context.Context, capability textgen.Capability, sample dataset.Dataset, instructions string) (Plan, error) {
	empty := Plan{Operations: []Operation{}}
	if !capability.Available() {
		return empty, nil
	}

	var buf bytes.Buffer
	if err := dataset.WriteJSON(&buf, sample.Head(sampleRows)); err != nil {
		return empty, fmt.Errorf("encode sample: %w", err)
	}
	content := fmt.Sprintf("Sample dataset:\n%s\nInstructions:\n%s\n", buf.String(), strings.TrimSpace(instructions))

	text, err := capability.Generate(ctx, []string{suggestInstructions, content})
	if err != nil {
		return empty, fmt.Errorf("generate transformation plan: %w", err)
	}
	p, err := ParsePlan([]byte(textgen.StripFences(text)))
	if err != nil {
		return empty, err
	}
	if _, err := Apply(sample, p); err != nil {
		return empty, err
	}
	return p, nil
}
