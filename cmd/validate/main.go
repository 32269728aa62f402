// Command validate performs integrity checks on a raw precipitation
// observation file before it is used for IDF analysis: format and required
// columns, timestamp validity, per-station annual coverage, annual-maxima
// sanity, and a numeric self-check of the Montana fitting chain.
//
// Usage:
//
//	go run ./cmd/validate -file data/stations_2000_2020.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/rainfall-idf/internal/dataset"
	"github.com/couchcryptid/rainfall-idf/internal/idf"
	"github.com/couchcryptid/rainfall-idf/internal/observability"
	"github.com/couchcryptid/rainfall-idf/internal/series"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "raw observation file (.csv, .xls or .xlsx)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	logger := observability.NewLogger("error", "text")

	fmt.Println("=== Rainfall Data Integrity Validation ===")
	fmt.Println()

	loadPhase, tbl := validateLoad(path, logger)

	var phases []*phase
	phases = append(phases, loadPhase)

	var store *series.MaximaStore
	if tbl != nil {
		var transformPhase *phase
		transformPhase, store = validateTransform(tbl, logger)
		phases = append(phases, transformPhase)
	}
	if store != nil {
		phases = append(phases, validateMaxima(store))
	}
	phases = append(phases, validateFitterRoundTrip())

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Format & Columns ──

func validateLoad(path string, logger *slog.Logger) (*phase, *dataset.Table) {
	p := &phase{name: "Phase 1: Format & Required Columns"}

	tbl, err := dataset.Read(path, logger)
	if err != nil {
		p.errorf("load: %v", err)
		return p, nil
	}

	for _, col := range []string{series.ColYear, series.ColMonth, series.ColTime, series.ColStation} {
		if !tbl.HasColumn(col) {
			p.errorf("required column %q is missing", col)
		}
	}
	return p, tbl
}

// ── Phase 2: Hourly Transformation ──

func validateTransform(tbl *dataset.Table, logger *slog.Logger) (*phase, *series.MaximaStore) {
	p := &phase{name: "Phase 2: Hourly Transformation"}

	hourly, err := series.TransformHourly(tbl, logger)
	if err != nil {
		p.errorf("transform: %v", err)
		return p, nil
	}
	if len(hourly.Stations()) == 0 {
		p.errorf("no stations after transformation")
		return p, nil
	}

	store, err := series.ExtractAnnualMaxima(hourly, series.DefaultWindows, logger)
	if err != nil {
		p.errorf("annual maxima: %v", err)
		return p, nil
	}
	return p, store
}

// ── Phase 3: Annual Maxima Sanity ──
// Values must be non-negative, and the maxima of longer windows should not
// fall materially below those of shorter windows in the same year (rolling
// edge effects allow small violations).

func validateMaxima(store *series.MaximaStore) *phase {
	p := &phase{name: "Phase 3: Annual Maxima Sanity"}

	for _, station := range store.Stations() {
		tbl, err := store.Table(station)
		if err != nil {
			p.errorf("%s: %v", station, err)
			continue
		}
		if len(tbl.Years) < 2 {
			p.errorf("%s: only %d year(s) of data, Gumbel fitting needs more", station, len(tbl.Years))
		}
		for i, year := range tbl.Years {
			for j, v := range tbl.Values[i] {
				if v < 0 {
					p.errorf("%s %d %s: negative annual maximum %g", station, year, tbl.Windows[j].Label(), v)
				}
				if j > 0 && v < tbl.Values[i][j-1]*0.99 {
					p.errorf("%s %d: maximum for %s (%g) far below %s (%g)",
						station, year, tbl.Windows[j].Label(), v, tbl.Windows[j-1].Label(), tbl.Values[i][j-1])
				}
			}
		}
	}
	return p
}

// ── Phase 4: Fitter Round-Trip ──
// Intensities generated from a known Montana law must be recovered exactly.

func validateFitterRoundTrip() *phase {
	p := &phase{name: "Phase 4: Montana Fitter Round-Trip"}

	const a0, b0 = 0.72, 41.5
	durations := series.DefaultWindows
	periods := []idf.ReturnPeriod{10}

	synthetic := &idf.Table{Durations: durations, Periods: periods}
	for _, d := range durations {
		synthetic.Values = append(synthetic.Values, []float64{b0 * math.Pow(d.Hours(), -a0)})
	}

	fit := idf.FitMontana(synthetic)
	params, ok := fit.Params[10]
	if !ok {
		p.errorf("fit skipped the synthetic return period")
		return p
	}
	if math.Abs(params.A-a0) > 1e-9 || math.Abs(params.B-b0)/b0 > 1e-9 {
		p.errorf("recovered (a=%g, b=%g), expected (%g, %g)", params.A, params.B, a0, b0)
	}
	if math.Abs(params.R2-1) > 1e-12 {
		p.errorf("r² = %.15f on an exactly log-linear input, expected 1", params.R2)
	}
	return p
}
