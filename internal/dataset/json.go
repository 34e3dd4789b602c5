package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// artifact is the Dataset JSON wire shape.
type artifact struct {
	Data        []map[string]any      `json:"data"`
	Columns     []string              `json:"columns"`
	ColumnTypes map[string]ColumnType `json:"columnTypes"`
	IDColumn    *string               `json:"idColumn"`
}

// MarshalJSON encodes d as {data, columns, columnTypes, idColumn}. A missing
// identifier is encoded as null.
func (d Dataset) MarshalJSON() ([]byte, error) {
	a := artifact{
		Data:        make([]map[string]any, len(d.Rows)),
		Columns:     d.Columns,
		ColumnTypes: d.ColumnTypes,
	}
	if a.Columns == nil {
		a.Columns = []string{}
	}
	if a.ColumnTypes == nil {
		a.ColumnTypes = map[string]ColumnType{}
	}
	for i, r := range d.Rows {
		rec := make(map[string]any, len(d.Columns))
		for _, c := range d.Columns {
			rec[c] = jsonValue(r[c])
		}
		a.Data[i] = rec
	}
	if d.IDColumn != "" {
		id := d.IDColumn
		a.IDColumn = &id
	}
	return json.Marshal(a)
}

// UnmarshalJSON decodes the Dataset JSON artifact. Integer literals decode to
// int64, other numbers to float64. Record keys outside columns are dropped and
// missing keys become nil.
func (d *Dataset) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var a artifact
	if err := dec.Decode(&a); err != nil {
		return err
	}
	if len(a.Columns) == 0 && len(a.Data) > 0 {
		return errors.New("dataset artifact has rows but no columns")
	}

	rows := make([]Record, len(a.Data))
	for i, r := range a.Data {
		rows[i] = Record(r)
	}
	out := New(a.Columns, rows)
	if len(a.ColumnTypes) > 0 {
		out.ColumnTypes = make(map[string]ColumnType, len(a.ColumnTypes))
		for k, v := range a.ColumnTypes {
			if out.HasColumn(k) {
				out.ColumnTypes[k] = v
			}
		}
	}
	if a.IDColumn != nil {
		out.IDColumn = *a.IDColumn
	}
	*d = out
	return nil
}

// ReadJSON decodes a Dataset JSON artifact from r.
func ReadJSON(r io.Reader) (Dataset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, err
	}
	var d Dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset json: %w", err)
	}
	return d, nil
}

// WriteJSON encodes d as an indented Dataset JSON artifact.
func WriteJSON(w io.Writer, d Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
