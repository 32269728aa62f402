package idf

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/rainfall-idf/internal/series"
)

// eulerMascheroni is the Euler-Mascheroni constant, the mean of the standard
// Gumbel distribution.
const eulerMascheroni = 0.5772156649015329

// GumbelParams are the per-duration sample moments and the derived Gumbel
// location (Mu) and scale (Beta). Beta > 0 whenever Variance > 0; both Mu and
// Beta are NaN when the column is degenerate (Variance <= 0).
type GumbelParams struct {
	Mean     float64
	Variance float64
	Mu       float64
	Beta     float64
}

// GumbelFit holds Gumbel parameters for every duration column of an
// annual-maxima table, plus the list of degenerate durations whose parameters
// are NaN.
type GumbelFit struct {
	Windows    []series.Window
	Params     map[series.Window]GumbelParams
	Degenerate []series.Window
}

// FitGumbel fits Gumbel location and scale to each duration column of the
// table by the method of moments. Degenerate columns do not abort the fit;
// they yield NaN parameters and are recorded in Degenerate.
func FitGumbel(tbl *series.AnnualMaximaTable) *GumbelFit {
	fit := &GumbelFit{
		Windows: append([]series.Window(nil), tbl.Windows...),
		Params:  make(map[series.Window]GumbelParams, len(tbl.Windows)),
	}

	for _, w := range tbl.Windows {
		col, _ := tbl.Column(w)
		mean := stat.Mean(col, nil)
		variance := stat.Variance(col, nil) // unbiased, divisor n-1

		p := GumbelParams{Mean: mean, Variance: variance}
		if variance > 0 {
			p.Beta = math.Sqrt(6*variance) / math.Pi
			p.Mu = mean - p.Beta*eulerMascheroni
		} else {
			p.Beta = math.NaN()
			p.Mu = math.NaN()
			fit.Degenerate = append(fit.Degenerate, w)
		}
		fit.Params[w] = p
	}
	return fit
}
