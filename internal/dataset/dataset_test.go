package dataset_test

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shpitdev/synthgen/internal/dataset"
)

func TestNew_FillsAndDropsKeys(t *testing.T) {
	in := []dataset.Record{
		{"a": 1, "extra": "x"},
		{"b": float32(2.5)},
	}
	ds := dataset.New([]string{"a", "b"}, in)
	if ds.Len() != 2 {
		t.Fatalf("len=%d want=2", ds.Len())
	}
	for i, r := range ds.Rows {
		if len(r) != 2 {
			t.Fatalf("row %d keys=%v want exactly a,b", i, r)
		}
	}
	if ds.Rows[0]["a"] != int64(1) || ds.Rows[0]["b"] != nil {
		t.Fatalf("unexpected row 0: %#v", ds.Rows[0])
	}
	if ds.Rows[1]["b"] != float64(2.5) {
		t.Fatalf("unexpected row 1: %#v", ds.Rows[1])
	}
	if _, ok := in[0]["b"]; ok {
		t.Fatalf("input record mutated")
	}
}

func TestNormalize_NaNIsMissing(t *testing.T) {
	if v := dataset.Normalize(math.NaN()); v != nil {
		t.Fatalf("NaN normalized to %#v, want nil", v)
	}
}

func TestClone_IsDeep(t *testing.T) {
	ds := dataset.New([]string{"a"}, []dataset.Record{{"a": 1}})
	ds.ColumnTypes = map[string]dataset.ColumnType{"a": dataset.TypeNumerical}
	cp := ds.Clone()
	cp.Rows[0]["a"] = int64(99)
	cp.ColumnTypes["a"] = dataset.TypeCategorical
	cp.Columns[0] = "z"
	if ds.Rows[0]["a"] != int64(1) || ds.ColumnTypes["a"] != dataset.TypeNumerical || ds.Columns[0] != "a" {
		t.Fatalf("clone shares state with original: %#v", ds)
	}
}

func TestKey_NumbersCompareByValue(t *testing.T) {
	if dataset.Key(int64(3)) != dataset.Key(float64(3)) {
		t.Fatalf("int64 and float64 of the same value must share a key")
	}
	if dataset.Key("3") == dataset.Key(int64(3)) {
		t.Fatalf("string and number must not share a key")
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	ds := dataset.New(
		[]string{"id", "score", "ratio", "tier", "active", "note"},
		[]dataset.Record{
			{"id": 1, "score": 7, "ratio": 0.25, "tier": "Gold", "active": true, "note": nil},
			{"id": 2, "score": -3, "ratio": 1.5, "tier": "Silver", "active": false, "note": "x"},
		},
	)
	ds.ColumnTypes = map[string]dataset.ColumnType{
		"id":     dataset.TypeNumerical,
		"score":  dataset.TypeNumerical,
		"ratio":  dataset.TypeNumerical,
		"tier":   dataset.TypeCategorical,
		"active": dataset.TypeBoolean,
		"note":   dataset.TypeCategorical,
	}
	ds.IDColumn = "id"

	b, err := json.Marshal(ds)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got dataset.Dataset
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, ds.Columns) {
		t.Fatalf("columns=%v want=%v", got.Columns, ds.Columns)
	}
	if !reflect.DeepEqual(got.ColumnTypes, ds.ColumnTypes) {
		t.Fatalf("columnTypes=%v want=%v", got.ColumnTypes, ds.ColumnTypes)
	}
	if got.IDColumn != "id" {
		t.Fatalf("idColumn=%q", got.IDColumn)
	}
	if !reflect.DeepEqual(got.Rows, ds.Rows) {
		t.Fatalf("rows=%#v want=%#v", got.Rows, ds.Rows)
	}

	// Datetimes are serialized as RFC 3339 text.
	withTime := dataset.New([]string{"at"}, []dataset.Record{{"at": ts}})
	b, err = json.Marshal(withTime)
	if err != nil {
		t.Fatalf("marshal time: %v", err)
	}
	if !strings.Contains(string(b), "2024-03-01T12:30:00Z") {
		t.Fatalf("time not encoded as RFC3339: %s", b)
	}
}

func TestJSON_NullIDColumnAndShape(t *testing.T) {
	ds := dataset.New([]string{"a"}, []dataset.Record{{"a": nil}})
	b, err := json.Marshal(ds)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, k := range []string{"data", "columns", "columnTypes", "idColumn"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if raw["idColumn"] != nil {
		t.Fatalf("idColumn=%v want null", raw["idColumn"])
	}
	row := raw["data"].([]any)[0].(map[string]any)
	if v, ok := row["a"]; !ok || v != nil {
		t.Fatalf("null value must be encoded as JSON null, got %s", b)
	}
}

func TestJSON_DropsUnknownKeys(t *testing.T) {
	in := `{"data":[{"a":1,"zzz":2},{}],"columns":["a"],"columnTypes":{"a":"numerical","zzz":"numerical"},"idColumn":null}`
	ds, err := dataset.ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(ds.Rows) != 2 || ds.Rows[0]["a"] != int64(1) || ds.Rows[1]["a"] != nil {
		t.Fatalf("unexpected rows: %#v", ds.Rows)
	}
	if _, ok := ds.Rows[0]["zzz"]; ok {
		t.Fatalf("unknown key kept: %#v", ds.Rows[0])
	}
	if _, ok := ds.ColumnTypes["zzz"]; ok {
		t.Fatalf("unknown column type kept: %#v", ds.ColumnTypes)
	}
}

func TestJSON_RowsWithoutColumnsErrors(t *testing.T) {
	if _, err := dataset.ReadJSON(strings.NewReader(`{"data":[{"a":1}]}`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReadCSV_Coercion(t *testing.T) {
	in := "id,score,ratio,flag,name,mixed\n" +
		"1,10,0.5,True,alice,1\n" +
		"2,,1,False,bob,x\n" +
		"\n" +
		"3,7,2.25,true,NA,2\n"
	ds, err := dataset.ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(ds.Columns, []string{"id", "score", "ratio", "flag", "name", "mixed"}) {
		t.Fatalf("columns=%v", ds.Columns)
	}
	if ds.Len() != 3 {
		t.Fatalf("len=%d want=3 (blank line skipped)", ds.Len())
	}
	r0, r1, r2 := ds.Rows[0], ds.Rows[1], ds.Rows[2]
	if r0["id"] != int64(1) || r0["score"] != int64(10) {
		t.Fatalf("int coercion failed: %#v", r0)
	}
	if r1["score"] != nil {
		t.Fatalf("empty cell must be nil: %#v", r1)
	}
	if r1["ratio"] != float64(1) || r0["ratio"] != float64(0.5) {
		t.Fatalf("float column must be promoted as a whole: %#v %#v", r0, r1)
	}
	if r0["flag"] != true || r1["flag"] != false || r2["flag"] != true {
		t.Fatalf("bool coercion failed: %#v %#v %#v", r0, r1, r2)
	}
	if r2["name"] != nil || r0["name"] != "alice" {
		t.Fatalf("NA token must be nil: %#v", r2)
	}
	if r0["mixed"] != "1" || r1["mixed"] != "x" {
		t.Fatalf("mixed column must stay text: %#v %#v", r0, r1)
	}
}

func TestReadCSV_ShortAndLongRows(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader("a,b,c\n1,2\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ds.Rows[0]["c"] != nil {
		t.Fatalf("short row must be padded with nil: %#v", ds.Rows[0])
	}

	if _, err := dataset.ReadCSV(strings.NewReader("a,b\n1,2,3\n")); err == nil {
		t.Fatalf("expected error for row longer than header")
	}
}

func TestReadCSV_HeaderNames(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader("x,,x, y\n1,2,3,4\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"x", "Unnamed: 1", "x.1", "y"}
	if !reflect.DeepEqual(ds.Columns, want) {
		t.Fatalf("columns=%v want=%v", ds.Columns, want)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := dataset.ReadCSV(strings.NewReader("")); err != dataset.ErrNoColumns {
		t.Fatalf("err=%v want ErrNoColumns", err)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	ds := dataset.New(
		[]string{"score", "tier", "ok"},
		[]dataset.Record{
			{"score": 3, "tier": "Gold, plus", "ok": true},
			{"score": nil, "tier": "Silver", "ok": false},
		},
	)
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := dataset.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got.Rows, ds.Rows) {
		t.Fatalf("rows=%#v want=%#v", got.Rows, ds.Rows)
	}
}

func TestXLSX_RoundTrip(t *testing.T) {
	ds := dataset.New(
		[]string{"age", "segment", "vip"},
		[]dataset.Record{
			{"age": 31, "segment": "Basic", "vip": false},
			{"age": 45, "segment": "Premium", "vip": true},
		},
	)
	var buf bytes.Buffer
	if err := dataset.WriteXLSX(&buf, ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := dataset.ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, ds.Columns) {
		t.Fatalf("columns=%v want=%v", got.Columns, ds.Columns)
	}
	if got.Len() != 2 || got.Rows[1]["age"] != int64(45) || got.Rows[1]["segment"] != "Premium" {
		t.Fatalf("unexpected rows: %#v", got.Rows)
	}
}

func TestXLSX_DateColumns(t *testing.T) {
	d1 := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 11, 20, 14, 30, 0, 0, time.UTC)
	ds := dataset.New(
		[]string{"id", "joined"},
		[]dataset.Record{
			{"id": int64(1), "joined": d1},
			{"id": int64(2), "joined": nil},
			{"id": int64(3), "joined": d2},
		},
	)
	var buf bytes.Buffer
	if err := dataset.WriteXLSX(&buf, ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := dataset.ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Rows[1]["joined"] != nil {
		t.Fatalf("empty cell must stay null, got %#v", got.Rows[1]["joined"])
	}
	for i, want := range map[int]time.Time{0: d1, 2: d2} {
		v, ok := got.Rows[i]["joined"].(time.Time)
		if !ok || !v.Equal(want) {
			t.Fatalf("row %d: joined=%#v want %s", i, got.Rows[i]["joined"], want)
		}
	}
	if got.Rows[0]["id"] != int64(1) {
		t.Fatalf("plain numbers must stay numeric, got %#v", got.Rows[0]["id"])
	}
}

func TestXLSX_CustomDateFormat(t *testing.T) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	dateFmt, priceFmt := "yyyy-mm-dd", `#,##0.00 "USD"`
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		t.Fatalf("date style: %v", err)
	}
	priceStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &priceFmt})
	if err != nil {
		t.Fatalf("price style: %v", err)
	}
	const sheet = "Sheet1"
	cells := map[string]any{"A1": "signed", "B1": "price", "A2": 45000.0, "B2": 12.5, "A3": 45001.0, "B3": 99.0}
	for cell, v := range cells {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A2", "A3", dateStyle); err != nil {
		t.Fatalf("style dates: %v", err)
	}
	if err := f.SetCellStyle(sheet, "B2", "B3", priceStyle); err != nil {
		t.Fatalf("style prices: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := dataset.ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	if v, ok := got.Rows[0]["signed"].(time.Time); !ok || !v.Equal(want) {
		t.Fatalf("signed=%#v want %s", got.Rows[0]["signed"], want)
	}
	if _, ok := got.Rows[0]["price"].(time.Time); ok {
		t.Fatalf("a quoted literal in a number format must not make a date column")
	}
}
