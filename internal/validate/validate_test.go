package validate

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/shpitdev/synthgen/internal/constraints"
	"github.com/shpitdev/synthgen/internal/dataset"
)

func f(v float64) *float64 { return &v }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func table(col string, values ...any) dataset.Dataset {
	rows := make([]dataset.Record, len(values))
	for i, v := range values {
		rows[i] = dataset.Record{col: v, "tier": "Gold"}
	}
	return dataset.New([]string{col, "tier"}, rows)
}

func TestValidate_Statistics(t *testing.T) {
	orig := table("score", int64(2), int64(4), int64(4), int64(4), int64(5), int64(5), int64(7), int64(9))
	synth := table("score", 1.0, nil, 3.0)

	r := Validate(orig, synth, nil)
	s := r["score"]
	if s.OriginalMean == nil || !near(*s.OriginalMean, 5) {
		t.Fatalf("expected original mean 5, got %v", s.OriginalMean)
	}
	if s.OriginalStd == nil || !near(*s.OriginalStd, 2) {
		t.Fatalf("expected population std 2, got %v", s.OriginalStd)
	}
	if s.SyntheticMean == nil || !near(*s.SyntheticMean, 2) {
		t.Fatalf("expected synthetic mean 2 skipping nulls, got %v", s.SyntheticMean)
	}
	if s.SyntheticStd == nil || !near(*s.SyntheticStd, 1) {
		t.Fatalf("expected synthetic std 1, got %v", s.SyntheticStd)
	}

	tier := r["tier"]
	if tier.OriginalMean != nil || tier.SyntheticMean != nil || tier.OriginalStd != nil || tier.SyntheticStd != nil {
		t.Fatalf("categorical columns must have absent statistics, got %+v", tier)
	}
}

func TestValidate_DegradesPerColumn(t *testing.T) {
	orig := table("score", int64(1), int64(2))
	synth := table("score", "high", int64(2))

	r := Validate(orig, synth, constraints.Set{"score": {Max: f(1)}})
	s := r["score"]
	if s.OriginalMean == nil {
		t.Fatalf("original statistics must survive a synthetic type mismatch")
	}
	if s.SyntheticMean != nil || s.SyntheticStd != nil {
		t.Fatalf("synthetic statistics must be absent on type mismatch, got %+v", s)
	}
	if s.ConstraintViolations != 1 {
		t.Fatalf("expected 1 violation from the numeric value, got %d", s.ConstraintViolations)
	}
}

func TestValidate_MissingSyntheticColumn(t *testing.T) {
	orig := table("score", int64(1), int64(2))
	synth := dataset.New([]string{"tier"}, []dataset.Record{{"tier": "Gold"}})

	r := Validate(orig, synth, constraints.Set{"score": {Min: f(5)}})
	s := r["score"]
	if s.SyntheticMean != nil || s.ConstraintViolations != 0 {
		t.Fatalf("expected absent synthetic stats and no violations, got %+v", s)
	}
}

func TestValidate_ComparesSyntheticOnly(t *testing.T) {
	orig := table("score", int64(-100), int64(100))
	synth := table("score", int64(5), int64(6))

	r := Validate(orig, synth, constraints.Set{"score": {Min: f(0), Max: f(10)}})
	if got := r["score"].ConstraintViolations; got != 0 {
		t.Fatalf("original out-of-range values must not count, got %d", got)
	}
}

func TestValidate_SnakeCaseLookup(t *testing.T) {
	orig := table("Credit Score", int64(1), int64(2))
	synth := table("Credit Score", int64(1), int64(900))

	r := Validate(orig, synth, constraints.Set{"credit_score": {Max: f(850)}})
	if got := r["Credit Score"].ConstraintViolations; got != 1 {
		t.Fatalf("expected lookup via snake-case name, got %d violations", got)
	}
}

func TestViolations_Monotonic(t *testing.T) {
	b := constraints.Bound{Min: f(0), Max: f(10)}
	values := []any{int64(0), int64(5), 10.0, nil, "x"}
	base := Violations(values, b)
	if base != 0 {
		t.Fatalf("expected 0 violations at the bounds, got %d", base)
	}
	if got := Violations(append(values, -0.5), b); got != base+1 {
		t.Fatalf("below min must add exactly 1, got %d", got)
	}
	if got := Violations(append(values, int64(11)), b); got != base+1 {
		t.Fatalf("above max must add exactly 1, got %d", got)
	}
}

func TestViolations_MalformedBoundsCountTwice(t *testing.T) {
	b := constraints.Bound{Min: f(10), Max: f(0)}
	if got := Violations([]any{int64(5)}, b); got != 2 {
		t.Fatalf("min > max must count against both bounds, got %d", got)
	}
	if got := Violations([]any{int64(5)}, constraints.Bound{Max: f(1)}); got != 1 {
		t.Fatalf("an absent bound contributes nothing, got %d", got)
	}
}

func TestReport_JSONShape(t *testing.T) {
	orig := table("score", int64(1), int64(3))
	b, err := json.Marshal(Validate(orig, orig, nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"originalMean":2`, `"syntheticStd":1`, `"constraintViolations":0`, `"tier":{"originalMean":null`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
}

func TestValidate_OverflowingStatisticsAreAbsent(t *testing.T) {
	orig := table("x", 1e200, -1e200)
	report := Validate(orig, orig, nil)
	r := report["x"]
	if r.OriginalStd != nil || r.SyntheticStd != nil {
		t.Fatalf("std overflowed to a non-finite value and must be absent, got %v %v", r.OriginalStd, r.SyntheticStd)
	}
	if r.OriginalMean == nil || *r.OriginalMean != 0 {
		t.Fatalf("finite mean must still be reported, got %v", r.OriginalMean)
	}
	b, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("report must always encode: %v", err)
	}
	if !strings.Contains(string(b), `"x":{"originalMean":0,"syntheticMean":0,"originalStd":null`) {
		t.Fatalf("unexpected report %s", b)
	}
}
