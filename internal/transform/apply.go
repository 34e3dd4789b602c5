package transform

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/schema"
)

// Apply runs the plan's operations in order on a copy of ds. ds is not
// modified. The identifier column is re-confirmed afterwards.
func Apply(ds dataset.Dataset, p Plan) (dataset.Dataset, error) {
	if err := p.Check(); err != nil {
		return dataset.Dataset{}, err
	}
	out := ds.Clone()
	if len(p.Operations) == 0 {
		return out, nil
	}
	if out.ColumnTypes == nil {
		out.ColumnTypes = schema.Detect(out)
	}
	for i, op := range p.Operations {
		if !out.HasColumn(op.Column) {
			return dataset.Dataset{}, &PlanError{Index: i, Op: op.Op, Msg: fmt.Sprintf("unknown column %q", op.Column)}
		}
		var err error
		switch op.Op {
		case OpRename:
			err = rename(&out, op.Column, strings.TrimSpace(op.To))
		case OpCast:
			cast(&out, op.Column, dataset.ColumnType(op.To))
		case OpFilterRange:
			filterRange(&out, op.Column, op.Min, op.Max)
		case OpRecode:
			recode(&out, op.Column, op.Mapping)
		}
		if err != nil {
			return dataset.Dataset{}, &PlanError{Index: i, Op: op.Op, Msg: err.Error()}
		}
	}
	out.IDColumn = schema.ConfirmID(out, out.IDColumn)
	return out, nil
}

func rename(ds *dataset.Dataset, from, to string) error {
	if from == to {
		return nil
	}
	if ds.HasColumn(to) {
		return fmt.Errorf("column %q already exists", to)
	}
	ds.Columns[slices.Index(ds.Columns, from)] = to
	for _, r := range ds.Rows {
		r[to] = r[from]
		delete(r, from)
	}
	if t, ok := ds.ColumnTypes[from]; ok {
		ds.ColumnTypes[to] = t
		delete(ds.ColumnTypes, from)
	}
	if ds.IDColumn == from {
		ds.IDColumn = to
	}
	return nil
}

// cast converts every value of column. Values that do not convert become nil.
func cast(ds *dataset.Dataset, column string, to dataset.ColumnType) {
	for _, r := range ds.Rows {
		switch to {
		case dataset.TypeNumerical:
			r[column] = toNumber(r[column])
		case dataset.TypeBoolean:
			r[column] = toBool(r[column])
		default:
			if v := r[column]; v != nil {
				r[column] = dataset.FormatCell(v)
			}
		}
	}
	ds.ColumnTypes[column] = to
}

func toNumber(v any) any {
	switch x := v.(type) {
	case int64, float64:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return dataset.Normalize(f)
		}
	}
	return nil
}

func toBool(v any) any {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		switch x {
		case 0:
			return false
		case 1:
			return true
		}
	case float64:
		switch x {
		case 0:
			return false
		case 1:
			return true
		}
	case string:
		if b, ok := dataset.ParseBool(x); ok {
			return b
		}
	}
	return nil
}

// filterRange keeps rows whose value is numeric and within [min, max].
func filterRange(ds *dataset.Dataset, column string, lo, hi *float64) {
	kept := ds.Rows[:0:0]
	for _, r := range ds.Rows {
		f, ok := dataset.Float(r[column])
		if !ok {
			continue
		}
		if lo != nil && f < *lo {
			continue
		}
		if hi != nil && f > *hi {
			continue
		}
		kept = append(kept, r)
	}
	ds.Rows = kept
}

// recode replaces values whose cell text appears in mapping. Unmapped values
// are kept.
func recode(ds *dataset.Dataset, column string, mapping map[string]string) {
	for _, r := range ds.Rows {
		v := r[column]
		if v == nil {
			continue
		}
		if nv, ok := mapping[dataset.FormatCell(v)]; ok {
			r[column] = nv
		}
	}
	values, _ := ds.Column(column)
	ds.ColumnTypes[column] = schema.DetectType(values)
}
