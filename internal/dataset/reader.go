// Package dataset reads raw precipitation observation files into an untyped
// tabular form. Supported formats are CSV (with legacy single-byte encoding
// fallbacks) and Excel spreadsheets (.xls and .xlsx). The package knows
// nothing about the meaning of columns; downstream stages interpret them.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Table is a raw observation table: a header row plus string-valued cells.
// Cells are kept as strings until a downstream stage parses them.
type Table struct {
	Columns []string
	Rows    [][]string
}

// HasColumn reports whether the table contains a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Read loads a raw observation table from disk, dispatching on the file
// extension. The extension is checked before the file is opened so that an
// unsupported format fails fast with an UnsupportedFormatError.
func Read(path string, logger *slog.Logger) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".xls", ".xlsx":
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var tbl *Table
	switch ext {
	case ".csv":
		tbl, err = parseCSV(data)
	case ".xlsx":
		tbl, err = parseXLSX(data)
	case ".xls":
		tbl, err = parseXLS(path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	logger.Info("data file loaded",
		"file", filepath.Base(path),
		"columns", len(tbl.Columns),
		"rows", len(tbl.Rows),
	)
	return tbl, nil
}

// parseCSV decodes and parses CSV bytes. Station files ingested from legacy
// acquisition systems are frequently Latin-1 or Windows-1252 encoded, so the
// decoder falls back in that order when the bytes are not valid UTF-8.
func parseCSV(data []byte) (*Table, error) {
	decoded, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return tableFromRecords(records)
}

// decodeText returns UTF-8 text from raw file bytes, trying UTF-8, then
// Windows-1252, then Latin-1. Windows-1252 is tried before Latin-1 because it
// is the stricter superset: its five undefined code points surface as
// replacement runes, which we treat as a decode failure. Latin-1 maps every
// byte, so it is the terminal fallback.
func decodeText(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return decoded, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(data)
}

// parseXLSX reads the first sheet of an .xlsx workbook.
func parseXLSX(data []byte) (*Table, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tableFromRecords(rows)
}

// parseXLS reads the first sheet of a legacy .xls workbook.
func parseXLS(path string) (*Table, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	rows := wb.ReadAllCells(1 << 20)
	return tableFromRecords(rows)
}

// tableFromRecords builds a Table from parsed rows, treating the first row as
// the header. Header names are trimmed; short data rows are padded so every
// row has one cell per column.
func tableFromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	return &Table{Columns: header, Rows: rows}, nil
}
