// Package schema classifies dataset columns and confirms identifier columns.
package schema

import (
	"time"

	"github.com/shpitdev/synthgen/internal/dataset"
)

// DetectType classifies a column by the storage type of its non-null values.
//
// Precedence: all bool -> boolean, all numeric -> numerical, all time.Time ->
// datetime. Anything else, including a column with no non-null values or with
// mixed storage, is categorical.
func DetectType(values []any) dataset.ColumnType {
	seen := false
	allBool, allNum, allTime := true, true, true
	for _, v := range values {
		if v == nil {
			continue
		}
		seen = true
		switch v.(type) {
		case bool:
			allNum, allTime = false, false
		case int64, float64:
			allBool, allTime = false, false
		case time.Time:
			allBool, allNum = false, false
		default:
			return dataset.TypeCategorical
		}
		if !allBool && !allNum && !allTime {
			return dataset.TypeCategorical
		}
	}
	switch {
	case !seen:
		return dataset.TypeCategorical
	case allBool:
		return dataset.TypeBoolean
	case allNum:
		return dataset.TypeNumerical
	case allTime:
		return dataset.TypeDatetime
	default:
		return dataset.TypeCategorical
	}
}

// Detect returns the type of every column in ds.
func Detect(ds dataset.Dataset) map[string]dataset.ColumnType {
	out := make(map[string]dataset.ColumnType, len(ds.Columns))
	for _, c := range ds.Columns {
		vals, _ := ds.Column(c)
		out[c] = DetectType(vals)
	}
	return out
}

// ConfirmID returns candidate when it names a column of ds whose values are
// pairwise distinct across all rows, and "" otherwise. Nulls take part in the
// comparison, so two null cells make the column non-unique.
func ConfirmID(ds dataset.Dataset, candidate string) string {
	if candidate == "" {
		return ""
	}
	vals, ok := ds.Column(candidate)
	if !ok {
		return ""
	}
	if !Unique(vals) {
		return ""
	}
	return candidate
}

// Unique reports whether every value is distinct by canonical form.
func Unique(values []any) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		k := dataset.Key(v)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

// Infer returns a copy of ds with ColumnTypes detected for every column and
// IDColumn set to the confirmed candidate (or cleared).
func Infer(ds dataset.Dataset, candidate string) dataset.Dataset {
	out := ds.Clone()
	out.ColumnTypes = Detect(ds)
	out.IDColumn = ConfirmID(ds, candidate)
	return out
}
