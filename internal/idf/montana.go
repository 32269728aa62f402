package idf

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/rainfall-idf/internal/series"
)

// MontanaParams are the fitted Montana power-law coefficients for one return
// period: intensity I = B * t^(-A) with t in hours. A is the dimensionless
// abatement exponent, B the one-hour intensity in mm/h, R2 the squared
// Pearson correlation of the log-log regression.
type MontanaParams struct {
	A  float64
	B  float64
	R2 float64
}

// MontanaFit holds the Montana coefficients per return period. Periods with
// fewer than two usable (duration, intensity) points are listed in Skipped
// and absent from Params.
type MontanaFit struct {
	Periods []ReturnPeriod
	Params  map[ReturnPeriod]MontanaParams
	Skipped []ReturnPeriod
}

// FitMontana regresses ln(intensity) on ln(duration) independently for each
// return period of an intensity table. Rows with non-positive or NaN
// intensity are excluded from that period's regression; a period left with
// fewer than two points is skipped and reported, never silently NaN.
func FitMontana(intensities *Table) *MontanaFit {
	fit := &MontanaFit{
		Params: make(map[ReturnPeriod]MontanaParams, len(intensities.Periods)),
	}

	logT := make([]float64, len(intensities.Durations))
	for i, d := range intensities.Durations {
		logT[i] = math.Log(d.Hours())
	}

	for _, p := range intensities.Periods {
		col, _ := intensities.Column(p)

		x := make([]float64, 0, len(col))
		y := make([]float64, 0, len(col))
		for i, v := range col {
			if math.IsNaN(v) || v <= 0 {
				continue
			}
			x = append(x, logT[i])
			y = append(y, math.Log(v))
		}

		if len(x) < 2 {
			fit.Skipped = append(fit.Skipped, p)
			continue
		}

		intercept, slope := stat.LinearRegression(x, y, nil, false)
		corr := stat.Correlation(x, y, nil)

		fit.Periods = append(fit.Periods, p)
		fit.Params[p] = MontanaParams{
			A:  -slope,
			B:  math.Exp(intercept),
			R2: corr * corr,
		}
	}
	return fit
}

// Intensity evaluates the Montana law I = B * t^(-A) at a duration in hours.
func (p MontanaParams) Intensity(hours float64) float64 {
	return p.B * math.Pow(hours, -p.A)
}

// Depth evaluates the rainfall depth B * t^(1-A) implied by the Montana law.
func (p MontanaParams) Depth(hours float64) float64 {
	return p.Intensity(hours) * hours
}

// EvaluateMontana reconstructs an intensity table from fitted Montana
// coefficients over an arbitrary duration list, for comparison against the
// Gumbel-quantile intensities or for interpolation beyond the fitted points.
// Skipped periods are absent from the result.
func EvaluateMontana(fit *MontanaFit, durations []series.Window) *Table {
	tbl := &Table{
		Durations: append([]series.Window(nil), durations...),
		Periods:   append([]ReturnPeriod(nil), fit.Periods...),
		Values:    make([][]float64, len(durations)),
	}
	for i, d := range durations {
		row := make([]float64, len(fit.Periods))
		for j, p := range fit.Periods {
			row[j] = fit.Params[p].Intensity(d.Hours())
		}
		tbl.Values[i] = row
	}
	return tbl
}
