// Package validate compares a synthetic table against the table it was
// trained on.
package validate

import (
	"math"

	"github.com/shpitdev/synthgen/internal/constraints"
	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/schema"
)

// ColumnReport holds the statistics for one original column. Statistic
// fields are nil for non-numeric columns or when they cannot be computed.
type ColumnReport struct {
	OriginalMean         *float64 `json:"originalMean"`
	SyntheticMean        *float64 `json:"syntheticMean"`
	OriginalStd          *float64 `json:"originalStd"`
	SyntheticStd         *float64 `json:"syntheticStd"`
	ConstraintViolations int      `json:"constraintViolations"`
}

// Report maps every original column to its ColumnReport.
type Report map[string]ColumnReport

// Validate computes a report for every column of original.
//
// A column is numeric when the original column infers as numerical; the
// synthetic side is never coerced. Violations are counted on the synthetic
// column: one per value strictly below min plus one per value strictly above
// max. Malformed bounds (min > max) are applied as given.
func Validate(original, synthetic dataset.Dataset, set constraints.Set) Report {
	report := make(Report, len(original.Columns))
	for _, c := range original.Columns {
		var r ColumnReport
		orig, _ := original.Column(c)
		synth, hasSynth := synthetic.Column(c)

		if schema.DetectType(orig) == dataset.TypeNumerical {
			if s, ok := summarize(orig); ok {
				r.OriginalMean, r.OriginalStd = finite(s.mean), finite(s.std())
			}
			if hasSynth {
				if s, ok := summarize(synth); ok {
					r.SyntheticMean, r.SyntheticStd = finite(s.mean), finite(s.std())
				}
			}
		}

		if b, ok := set.Lookup(c); ok && hasSynth {
			r.ConstraintViolations = Violations(synth, b)
		}
		report[c] = r
	}
	return report
}

// Violations counts values strictly below b.Min plus values strictly above
// b.Max. Nulls and non-numeric values never count.
func Violations(values []any, b constraints.Bound) int {
	n := 0
	for _, v := range values {
		f, ok := dataset.Float(v)
		if !ok {
			continue
		}
		if b.Min != nil && f < *b.Min {
			n++
		}
		if b.Max != nil && f > *b.Max {
			n++
		}
	}
	return n
}

// running is Welford's online mean/variance.
type running struct {
	n    int
	mean float64
	m2   float64
}

func (r *running) add(x float64) {
	r.n++
	delta := x - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (x - r.mean)
}

// std is the population standard deviation (ddof 0).
func (r running) std() float64 {
	if r.n == 0 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.n))
}

// summarize skips nulls. It fails on any non-numeric value or when no
// numeric values remain.
func summarize(values []any) (running, bool) {
	var r running
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := dataset.Float(v)
		if !ok || math.IsInf(f, 0) {
			return running{}, false
		}
		r.add(f)
	}
	return r, r.n > 0
}

// finite returns nil for NaN and ±Inf. Huge finite inputs can overflow the
// running sums, and such a statistic is reported as absent.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
