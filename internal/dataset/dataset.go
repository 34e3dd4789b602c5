// Package dataset holds the in-memory table passed between pipeline stages and
// its on-disk representations (Dataset JSON artifact, CSV, XLSX).
package dataset

import (
	"slices"
)

// ColumnType is the semantic type of a column.
type ColumnType string

const (
	TypeBoolean     ColumnType = "boolean"
	TypeNumerical   ColumnType = "numerical"
	TypeDatetime    ColumnType = "datetime"
	TypeCategorical ColumnType = "categorical"
)

// Valid reports whether t is one of the four column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeBoolean, TypeNumerical, TypeDatetime, TypeCategorical:
		return true
	default:
		return false
	}
}

// Record maps column name to a scalar value.
//
// Values are one of: nil, bool, int64, float64, string, time.Time.
type Record map[string]any

// Dataset is an ordered table of records.
//
// Every record carries exactly the keys in Columns. ColumnTypes and IDColumn are
// filled in by schema inference; a zero IDColumn means no identifier.
type Dataset struct {
	Columns     []string
	Rows        []Record
	ColumnTypes map[string]ColumnType
	IDColumn    string
}

// New builds a Dataset whose records carry exactly the given columns. Missing
// keys become nil, unknown keys are dropped and values are normalized.
// The input records are not modified.
func New(columns []string, rows []Record) Dataset {
	cols := slices.Clone(columns)
	out := make([]Record, len(rows))
	for i, r := range rows {
		rec := make(Record, len(cols))
		for _, c := range cols {
			rec[c] = Normalize(r[c])
		}
		out[i] = rec
	}
	return Dataset{Columns: cols, Rows: out}
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether name is one of d's columns.
func (d Dataset) HasColumn(name string) bool {
	return slices.Contains(d.Columns, name)
}

// Column returns the values of one column in row order.
func (d Dataset) Column(name string) ([]any, bool) {
	if !d.HasColumn(name) {
		return nil, false
	}
	out := make([]any, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r[name]
	}
	return out, true
}

// Clone returns a deep copy of d. Scalar values are immutable and shared.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Columns:  slices.Clone(d.Columns),
		Rows:     make([]Record, len(d.Rows)),
		IDColumn: d.IDColumn,
	}
	for i, r := range d.Rows {
		rec := make(Record, len(r))
		for k, v := range r {
			rec[k] = v
		}
		out.Rows[i] = rec
	}
	if d.ColumnTypes != nil {
		out.ColumnTypes = make(map[string]ColumnType, len(d.ColumnTypes))
		for k, v := range d.ColumnTypes {
			out.ColumnTypes[k] = v
		}
	}
	return out
}

// Head returns a copy of the first n rows.
func (d Dataset) Head(n int) Dataset {
	out := d.Clone()
	if n >= 0 && n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}
	return out
}
