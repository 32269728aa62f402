package idf

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-idf/internal/series"
)

// ReturnPeriod is a validated recurrence interval in whole years. Periods
// below 2 are rejected: T=1 gives a non-exceedance probability of zero, whose
// reduced variate is undefined.
type ReturnPeriod int

// DefaultReturnPeriods are the recurrence intervals analyzed when no override
// is configured.
var DefaultReturnPeriods = []ReturnPeriod{2, 5, 10, 25, 50, 100}

// InvalidReturnPeriodError is returned when a value that should denote a
// return period is not an integer of at least 2 years.
type InvalidReturnPeriodError struct {
	Value string
}

func (e *InvalidReturnPeriodError) Error() string {
	return fmt.Sprintf("invalid return period %q: must be an integer >= 2 years", e.Value)
}

// ParseReturnPeriod parses and validates a return period string.
func ParseReturnPeriod(s string) (ReturnPeriod, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 2 {
		return 0, &InvalidReturnPeriodError{Value: s}
	}
	return ReturnPeriod(n), nil
}

// Years returns the period as a float.
func (t ReturnPeriod) Years() float64 { return float64(t) }

// Table is a duration-by-return-period matrix of estimates, used for rainfall
// depths (mm), intensities (mm/h) and Montana-reconstructed intensities.
type Table struct {
	Durations []series.Window
	Periods   []ReturnPeriod
	Values    [][]float64 // Values[i][j] = duration Durations[i], period Periods[j]
}

// Value returns the cell for a (duration, return period) pair.
func (t *Table) Value(d series.Window, p ReturnPeriod) (float64, bool) {
	i, j := -1, -1
	for k, dur := range t.Durations {
		if dur == d {
			i = k
			break
		}
	}
	for k, per := range t.Periods {
		if per == p {
			j = k
			break
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return t.Values[i][j], true
}

// Column returns one return period's values across all durations.
func (t *Table) Column(p ReturnPeriod) ([]float64, bool) {
	for j, per := range t.Periods {
		if per == p {
			col := make([]float64, len(t.Durations))
			for i := range t.Durations {
				col[i] = t.Values[i][j]
			}
			return col, true
		}
	}
	return nil, false
}

// ReducedVariate converts a non-exceedance probability F into the reduced
// Gumbel variate Y = -ln(-ln(F)).
func ReducedVariate(f float64) float64 {
	return -math.Log(-math.Log(f))
}

// EmpiricalFrequencies returns the Hazen plotting positions (i - 0.5)/n for a
// ranked sample of size n, the empirical non-exceedance frequencies used when
// comparing fitted quantiles against observations.
func EmpiricalFrequencies(n int) []float64 {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = (float64(i+1) - 0.5) / float64(n)
	}
	return freqs
}

// EstimateDepths builds the rainfall-depth table mu + beta*Y for every
// (duration, return period) pair. The reduced variate is computed once per
// period and reused across durations. NaN Gumbel parameters propagate into
// the table rather than aborting.
func EstimateDepths(fit *GumbelFit, periods []ReturnPeriod) *Table {
	variates := make([]float64, len(periods))
	for j, p := range periods {
		variates[j] = ReducedVariate(1 - 1/p.Years())
	}

	tbl := &Table{
		Durations: append([]series.Window(nil), fit.Windows...),
		Periods:   append([]ReturnPeriod(nil), periods...),
		Values:    make([][]float64, len(fit.Windows)),
	}
	for i, w := range fit.Windows {
		p := fit.Params[w]
		row := make([]float64, len(periods))
		for j := range periods {
			row[j] = p.Mu + p.Beta*variates[j]
		}
		tbl.Values[i] = row
	}
	return tbl
}

// EstimateIntensities converts a depth table (mm) into an intensity table
// (mm/h) by dividing each row by its duration.
func EstimateIntensities(depths *Table) *Table {
	tbl := &Table{
		Durations: append([]series.Window(nil), depths.Durations...),
		Periods:   append([]ReturnPeriod(nil), depths.Periods...),
		Values:    make([][]float64, len(depths.Durations)),
	}
	for i, d := range depths.Durations {
		row := make([]float64, len(depths.Periods))
		for j := range depths.Periods {
			row[j] = depths.Values[i][j] / d.Hours()
		}
		tbl.Values[i] = row
	}
	return tbl
}
