package series

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a validated rolling-aggregation window length in whole hours.
// It doubles as the duration axis of IDF tables: a 6-hour window yields the
// 6-hour rainfall duration. Always positive; construct via ParseWindow or
// ParseWindowLabel.
type Window int

// DefaultWindows are the aggregation windows used for IDF analysis when no
// override is configured.
var DefaultWindows = []Window{1, 2, 3, 6, 12, 24}

// InvalidDurationError is returned when a value that should denote a duration
// in hours is not a positive integer.
type InvalidDurationError struct {
	Value string
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration %q: must be a positive integer number of hours", e.Value)
}

// ParseWindow parses a bare integer string ("24") into a Window, failing
// closed on anything that is not a positive integer.
func ParseWindow(s string) (Window, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, &InvalidDurationError{Value: s}
	}
	return Window(n), nil
}

// ParseWindowLabel parses a window column label of the form "24h".
func ParseWindowLabel(s string) (Window, error) {
	trimmed, ok := strings.CutSuffix(strings.TrimSpace(s), "h")
	if !ok {
		return 0, &InvalidDurationError{Value: s}
	}
	return ParseWindow(trimmed)
}

// Hours returns the window length as a float, for use as the duration axis in
// intensity calculations.
func (w Window) Hours() float64 { return float64(w) }

// Label formats the window as a table column label, e.g. "24h".
func (w Window) Label() string { return strconv.Itoa(int(w)) + "h" }
