package synth

import (
	"math"
	"math/rand/v2"

	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/fieldspec"
)

var defaultCategories = []string{"A", "B"}

// Offline samples rows records directly from fields.
//
// Integer ranges draw from [min, max] inclusive, continuous ranges from
// [min, max). Categorical fields draw with replacement from Values, or from
// {A, B} when Values is empty. An empty field list yields the generic schema
// col_a (int in [0,100)), col_b (A|B|C), col_c (bool).
func Offline(fields []fieldspec.Field, rows int, rng *rand.Rand) dataset.Dataset {
	if rows < 0 {
		rows = 0
	}
	if len(fields) == 0 {
		return generic(rows, rng)
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	out := make([]dataset.Record, rows)
	for i := range out {
		out[i] = make(dataset.Record, len(fields))
	}
	for _, f := range fields {
		for i := range out {
			out[i][f.Name] = sampleField(f, rng)
		}
	}
	return dataset.Dataset{Columns: cols, Rows: out}
}

func sampleField(f fieldspec.Field, rng *rand.Rand) any {
	if f.Kind == fieldspec.KindNumerical && f.Range != nil {
		lo, hi := f.Range.Min, f.Range.Max
		if lo > hi {
			lo, hi = hi, lo
		}
		if f.Range.Integer {
			return sampleInt(int64(lo), int64(hi), rng)
		}
		if hi <= lo {
			return lo
		}
		return lo + rng.Float64()*(hi-lo)
	}
	values := f.Values
	if len(values) == 0 {
		values = defaultCategories
	}
	return values[rng.IntN(len(values))]
}

// sampleInt draws uniformly from [lo, hi].
func sampleInt(lo, hi int64, rng *rand.Rand) int64 {
	if hi <= lo {
		return lo
	}
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int64(rng.Uint64())
	}
	return lo + int64(rng.Uint64N(span+1))
}

func generic(rows int, rng *rand.Rand) dataset.Dataset {
	cats := []string{"A", "B", "C"}
	out := make([]dataset.Record, rows)
	for i := range out {
		out[i] = dataset.Record{
			"col_a": rng.Int64N(100),
			"col_b": cats[rng.IntN(len(cats))],
			"col_c": rng.IntN(2) == 1,
		}
	}
	return dataset.Dataset{Columns: []string{"col_a", "col_b", "col_c"}, Rows: out}
}
