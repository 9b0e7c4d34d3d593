// Package report renders engine results as CSV or JSON tables and writes the
// YAML run summary.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/rotisserie/eris"
)

// Format is an output table format.
type Format string

// Supported table formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a table format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", eris.Errorf("report: unknown format %q", s)
}

// Table is a rectangular result with named columns. Cells may be nil, a
// *bool, *int, or *float64 (nil pointer = missing), bool, int, float64
// (NaN = missing), or string.
type Table struct {
	Columns []string
	Rows    [][]any
}

// WriteCSV writes the header and rows. Missing cells are empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range rec {
			rec[i] = ""
			if i < len(row) {
				rec[i] = cellString(row[i])
			}
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteJSON writes an indented array of objects with keys in column order.
// Missing cells are null.
func (t *Table) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for r, row := range t.Rows {
		if r > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for i, col := range t.Columns {
			if i > 0 {
				buf.WriteString(", ")
			}
			k, _ := json.Marshal(col)
			buf.Write(k)
			buf.WriteString(": ")
			var cell any
			if i < len(row) {
				cell = cellValue(row[i])
			}
			v, err := json.Marshal(cell)
			if err != nil {
				return eris.Wrapf(err, "report: encode column %s", col)
			}
			buf.Write(v)
		}
		buf.WriteString("}")
	}
	if len(t.Rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return eris.Wrap(err, "report: write json")
}

// Write renders the table in format f.
func (t *Table) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		return t.WriteJSON(w)
	case FormatCSV:
		return t.WriteCSV(w)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

// WriteFile writes the table to dir/name.<format>, creating dir, and returns
// the path written.
func (t *Table) WriteFile(dir, name string, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create %s", dir)
	}
	path := filepath.Join(dir, name+"."+string(f))
	out, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "report: create output file")
	}
	defer out.Close() //nolint:errcheck

	if err := t.Write(out, f); err != nil {
		return "", err
	}
	return path, nil
}

// cellValue resolves a cell to a JSON-encodable value, nil when missing.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return cellValue(*x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	default:
		return x
	}
}

func cellString(v any) string {
	switch x := cellValue(v).(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.String {
			return rv.String()
		}
		b, _ := json.Marshal(x)
		return string(b)
	}
}
