package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first worksheet of an XLSX workbook. The first row is the
// header; cells are coerced the same way as CSV cells, except that a column
// whose present cells are all dates (date-typed cells or serial numbers with a
// date number format) holds time.Time values.
func ReadXLSX(r io.Reader) (Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Dataset{}, ErrNoColumns
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Dataset{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Dataset{}, ErrNoColumns
	}

	header := rows[0]
	body := rows[1:]
	// Cells to the right of the header are kept under generated names.
	for _, rec := range body {
		for len(header) < len(rec) {
			header = append(header, "")
		}
	}
	ds, err := FromStrings(header, body)
	if err != nil {
		return Dataset{}, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	for c, name := range ds.Columns {
		times, ok := dateColumn(f, sheet, c, name, ds.Rows, date1904)
		if !ok {
			continue
		}
		for i, t := range times {
			if !t.IsZero() {
				ds.Rows[i][name] = t
			}
		}
	}
	return ds, nil
}

// dateColumn converts column col when every non-null cell is a date. Body row
// i is sheet row i+2.
func dateColumn(f *excelize.File, sheet string, col int, name string, rows []Record, date1904 bool) ([]time.Time, bool) {
	out := make([]time.Time, len(rows))
	seen := false
	for i, rec := range rows {
		if rec[name] == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, i+2)
		if err != nil {
			return nil, false
		}
		t, ok := dateCell(f, sheet, cell, date1904)
		if !ok {
			return nil, false
		}
		out[i] = t
		seen = true
	}
	return out, seen
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func dateCell(f *excelize.File, sheet, cell string, date1904 bool) (time.Time, bool) {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return time.Time{}, false
	}
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false
	}
	raw = strings.TrimSpace(raw)

	if typ == excelize.CellTypeDate {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if !hasDateFormat(f, sheet, cell) {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func hasDateFormat(f *excelize.File, sheet, cell string) bool {
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	style, err := f.GetStyle(idx)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return isBuiltinDateFormat(style.NumFmt)
}

// isBuiltinDateFormat reports the built-in number format ids that render
// dates or times, including the East Asian locale ids.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for date or time tokens in a custom format code,
// ignoring quoted literals, escaped characters and bracketed sections.
func isDateFormatCode(code string) bool {
	var quoted, bracket, escaped bool
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case quoted:
			quoted = r != '"'
		case bracket:
			bracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = true
		case r == '[':
			bracket = true
		case strings.ContainsRune("ydhms", r):
			return true
		}
	}
	return false
}

// WriteXLSX writes d to a single-sheet workbook named "Sheet1". time.Time
// values are written as date cells.
func WriteXLSX(w io.Writer, d Dataset) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Sheet1"
	header := make([]any, len(d.Columns))
	for i, c := range d.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range d.Rows {
		vals := make([]any, len(d.Columns))
		for j, c := range d.Columns {
			if t, ok := row[c].(time.Time); ok {
				vals[j] = t
				continue
			}
			vals[j] = jsonValue(row[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return f.Write(w)
}
