package fetcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a tabular file format.
type Format string

// Supported input formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// RowReader reads a tabular file into string rows. The first row is the
// header when the file has one.
type RowReader interface {
	ReadRows(ctx context.Context, path string) ([][]string, error)
}

// Options selects and configures a RowReader.
type Options struct {
	Format    Format // inferred from the file extension when empty
	Sheet     string // xlsx sheet name; first sheet when empty
	Encoding  string // WHATWG label for csv input; utf-8 when empty
	Delimiter rune   // csv field delimiter; ',' when zero
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("fetcher: cannot infer format from extension %q", ext)
	}
}

// NewRowReader returns the reader for path under opts.
func NewRowReader(path string, opts Options) (RowReader, error) {
	format := opts.Format
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	switch format {
	case FormatCSV:
		delim := opts.Delimiter
		if delim == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
			delim = '\t'
		}
		return &CSVReader{Options: CSVOptions{Delimiter: delim, Encoding: opts.Encoding, TrimSpace: true}}, nil
	case FormatXLSX:
		return &XLSXReader{Options: XLSXOptions{SheetName: opts.Sheet}}, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported format %q", format)
	}
}
