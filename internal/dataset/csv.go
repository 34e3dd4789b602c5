package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoColumns is returned when a table has no header row.
var ErrNoColumns = errors.New("table has no columns")

// ReadCSV reads a CSV table with a header row.
//
// Blank lines are skipped. Rows shorter than the header are padded with nulls;
// rows longer than the header are an error. Cells are coerced per column (see
// FromStrings).
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Dataset{}, ErrNoColumns
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read row: %w", err)
		}
		records = append(records, rec)
	}
	return FromStrings(header, records)
}

// FromStrings builds a Dataset from a header and raw text rows.
//
// Header names are trimmed; empty names become "Unnamed: <i>" and repeated
// names get a ".<n>" suffix. Each column is promoted as a whole to int64,
// float64 or bool when every present cell parses as such; missing-value tokens
// ("", "NA", "null", ...) become nil.
func FromStrings(header []string, records [][]string) (Dataset, error) {
	if len(header) == 0 {
		return Dataset{}, ErrNoColumns
	}
	cols := dedupeHeader(header)

	cells := make([][]string, len(cols))
	for i := range cells {
		cells[i] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) > len(cols) {
			return Dataset{}, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(rec), len(cols))
		}
		for c := range cols {
			if c < len(rec) {
				cells[c][r] = rec[c]
			}
		}
	}

	rows := make([]Record, len(records))
	for i := range rows {
		rows[i] = make(Record, len(cols))
	}
	for c, name := range cols {
		for r, v := range coerceColumn(cells[c]) {
			rows[r][name] = v
		}
	}
	return Dataset{Columns: cols, Rows: rows}, nil
}

func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		cand := name
		for n := 1; used[cand]; n++ {
			cand = name + "." + strconv.Itoa(n)
		}
		used[cand] = true
		out[i] = cand
	}
	return out
}

// WriteCSV writes d with a header row in column order. Nulls are written as
// empty cells.
func WriteCSV(w io.Writer, d Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return err
	}
	rec := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for i, c := range d.Columns {
			rec[i] = FormatCell(row[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
