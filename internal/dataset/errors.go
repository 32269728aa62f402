package dataset

import (
	"errors"
	"fmt"
)

// ErrEmptyTable indicates a file that parsed successfully but contains no
// data rows beyond the header.
var ErrEmptyTable = errors.New("table has no data rows")

// UnsupportedFormatError is returned when a file extension is not one of the
// accepted input formats. It is raised before any parsing is attempted.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: use .csv, .xls or .xlsx", e.Ext)
}

// MissingColumnError is returned when a required identifier column is absent
// from the input table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}
