package schema_test

import (
	"testing"
	"time"

	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/schema"
)

func TestDetectType(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		in   []any
		want dataset.ColumnType
	}{
		{name: "bool", in: []any{true, nil, false}, want: dataset.TypeBoolean},
		{name: "ints", in: []any{int64(1), int64(2)}, want: dataset.TypeNumerical},
		{name: "ints and floats", in: []any{int64(1), 2.5, nil}, want: dataset.TypeNumerical},
		{name: "times", in: []any{now, now.Add(time.Hour)}, want: dataset.TypeDatetime},
		{name: "strings", in: []any{"a", "b"}, want: dataset.TypeCategorical},
		{name: "bool and number", in: []any{true, int64(1)}, want: dataset.TypeCategorical},
		{name: "number and string", in: []any{int64(1), "x"}, want: dataset.TypeCategorical},
		{name: "all null", in: []any{nil, nil}, want: dataset.TypeCategorical},
		{name: "empty", in: nil, want: dataset.TypeCategorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schema.DetectType(tt.in); got != tt.want {
				t.Fatalf("DetectType=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestConfirmID(t *testing.T) {
	ds := dataset.New([]string{"id", "tier"}, []dataset.Record{
		{"id": 1, "tier": "a"},
		{"id": 2, "tier": "a"},
		{"id": 3, "tier": "b"},
	})
	if got := schema.ConfirmID(ds, "id"); got != "id" {
		t.Fatalf("ConfirmID(id)=%q want id", got)
	}
	if got := schema.ConfirmID(ds, "id"); got != "id" {
		t.Fatalf("ConfirmID must be idempotent, got %q", got)
	}
	if got := schema.ConfirmID(ds, "tier"); got != "" {
		t.Fatalf("ConfirmID(tier)=%q want empty", got)
	}
	if got := schema.ConfirmID(ds, "missing"); got != "" {
		t.Fatalf("ConfirmID(missing)=%q want empty", got)
	}
	if got := schema.ConfirmID(ds, ""); got != "" {
		t.Fatalf("ConfirmID(\"\")=%q want empty", got)
	}

	// A single duplicate disqualifies the column.
	ds.Rows = append(ds.Rows, dataset.Record{"id": 2.0, "tier": "c"})
	if got := schema.ConfirmID(ds, "id"); got != "" {
		t.Fatalf("ConfirmID after duplicate=%q want empty", got)
	}
}

func TestConfirmID_TwoNullsAreDuplicates(t *testing.T) {
	ds := dataset.New([]string{"id"}, []dataset.Record{{"id": nil}, {"id": nil}})
	if got := schema.ConfirmID(ds, "id"); got != "" {
		t.Fatalf("ConfirmID=%q want empty", got)
	}
}

func TestInfer(t *testing.T) {
	ds := dataset.New([]string{"id", "score", "tier", "ok"}, []dataset.Record{
		{"id": "u1", "score": 1.5, "tier": "Gold", "ok": true},
		{"id": "u2", "score": 2, "tier": "Silver", "ok": false},
	})
	got := schema.Infer(ds, "id")
	want := map[string]dataset.ColumnType{
		"id":    dataset.TypeCategorical,
		"score": dataset.TypeNumerical,
		"tier":  dataset.TypeCategorical,
		"ok":    dataset.TypeBoolean,
	}
	for c, wt := range want {
		if got.ColumnTypes[c] != wt {
			t.Fatalf("type[%s]=%q want=%q", c, got.ColumnTypes[c], wt)
		}
	}
	if len(got.ColumnTypes) != len(ds.Columns) {
		t.Fatalf("column types must cover exactly the columns: %v", got.ColumnTypes)
	}
	if got.IDColumn != "id" {
		t.Fatalf("IDColumn=%q want id", got.IDColumn)
	}
	if ds.ColumnTypes != nil || ds.IDColumn != "" {
		t.Fatalf("input dataset mutated: %#v", ds)
	}
}
