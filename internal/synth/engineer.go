package synth

import (
	"context"
	"errors"
	"strings"

	"github.com/shpitdev/synthgen/internal/textgen"
)

const engineerInstructions = "You are a prompt engineering expert for synthetic data generation. " +
	"Design a complete prompt for a synthetic data generator including suggested column names, " +
	"data types, realistic ranges, and correlations. Do not include row counts. \n" +
	"Output only the engineered prompt, without any markdown backticks."

// Engineer asks the service to rewrite prompt into a fuller generation prompt.
// On any failure it returns the trimmed original prompt together with the
// error (textgen.ErrUnavailable when no service is configured).
func Engineer(ctx context.Context, capability textgen.Capability, prompt string) (string, error) {
	orig := strings.TrimSpace(prompt)
	out, err := capability.Generate(ctx, []string{engineerInstructions, "Dataset description: " + prompt})
	if err != nil {
		return orig, err
	}
	out = textgen.StripFences(out)
	if out == "" {
		return orig, errors.New("empty engineered prompt")
	}
	return out, nil
}
