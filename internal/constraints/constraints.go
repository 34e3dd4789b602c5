// Package constraints derives per-column numeric bounds from parsed field specs
// or from the text generation service.
package constraints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shpitdev/synthgen/internal/fieldspec"
	"github.com/shpitdev/synthgen/internal/textgen"
)

// Bound is an optional lower and upper limit. Either side may be absent, and
// Min > Max is kept as given.
type Bound struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Empty reports whether neither side is set.
func (b Bound) Empty() bool {
	return b.Min == nil && b.Max == nil
}

// Set maps field name to bound. It encodes as the constraint artifact
// {"<field>": {"min": n, "max": n}}.
type Set map[string]Bound

// Lookup finds the bound for column, trying the raw name first and then its
// snake-case form. An entry with neither side set counts as missing.
func (s Set) Lookup(column string) (Bound, bool) {
	if b, ok := s[column]; ok && !b.Empty() {
		return b, true
	}
	if b, ok := s[fieldspec.ToSnake(column)]; ok && !b.Empty() {
		return b, true
	}
	return Bound{}, false
}

// MarshalJSON encodes a nil Set as {}.
func (s Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Bound(s))
}

// FromFields builds bounds from the numeric fields; categorical fields
// contribute nothing.
func FromFields(fields []fieldspec.Field) Set {
	out := Set{}
	for _, f := range fieldspec.Numerical(fields) {
		lo, hi := f.Range.Min, f.Range.Max
		out[f.Name] = Bound{Min: &lo, Max: &hi}
	}
	return out
}

const instructions = "Given the dataset description, produce a JSON object of value constraints per field. " +
	"For numeric fields include 'min' and 'max'. Output only raw JSON with no backticks."

// Extract returns the constraint set for prompt.
//
// Without a service the set comes from the parsed fields. With a service the
// response must pass ParseJSON; a malformed response yields an empty set. When
// the call itself fails the parsed-field set is used instead. The returned
// error describes that degradation; the Set is usable either way.
func Extract(ctx context.Context, capability textgen.Capability, prompt string) (Set, error) {
	if !capability.Available() {
		return FromFields(fieldspec.Parse(prompt)), nil
	}
	out, err := capability.Generate(ctx, []string{instructions, "Dataset description: " + prompt})
	if err != nil {
		return FromFields(fieldspec.Parse(prompt)), fmt.Errorf("constraints generation failed: %w", err)
	}
	set, err := ParseJSON(out)
	if err != nil {
		return Set{}, err
	}
	return set, nil
}

// ParseJSON strictly decodes a constraint artifact, stripping code fences first.
//
// The document must be an object whose values are objects; "min" and "max",
// when present and non-null, must be numbers. Other keys are ignored, as are
// entries with neither bound. Any violation fails the whole parse and returns
// an empty Set.
func ParseJSON(text string) (Set, error) {
	body := textgen.StripFences(text)
	if body == "" {
		return Set{}, errors.New("parse constraints: empty document")
	}

	var top map[string]json.RawMessage
	if err := strictUnmarshal([]byte(body), &top); err != nil {
		return Set{}, fmt.Errorf("parse constraints: %w", err)
	}
	if top == nil {
		return Set{}, errors.New("parse constraints: document is not an object")
	}

	out := Set{}
	for name, raw := range top {
		var entry map[string]json.RawMessage
		if err := strictUnmarshal(raw, &entry); err != nil || entry == nil {
			return Set{}, fmt.Errorf("parse constraints: field %q is not an object", name)
		}
		var b Bound
		for _, side := range []struct {
			key string
			dst **float64
		}{{"min", &b.Min}, {"max", &b.Max}} {
			v, ok := entry[side.key]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				continue
			}
			var f float64
			if err := strictUnmarshal(v, &f); err != nil {
				return Set{}, fmt.Errorf("parse constraints: field %q %s is not a number", name, side.key)
			}
			*side.dst = &f
		}
		if !b.Empty() {
			out[name] = b
		}
	}
	return out, nil
}

// strictUnmarshal rejects trailing data after the first JSON value.
func strictUnmarshal(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}
