// Package session orchestrates the IDF analysis pipeline for one loaded
// dataset: raw table to hourly series to annual maxima, then per-station
// Gumbel fitting, quantile estimation, and Montana regression on demand.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-idf/internal/dataset"
	"github.com/couchcryptid/rainfall-idf/internal/idf"
	"github.com/couchcryptid/rainfall-idf/internal/observability"
	"github.com/couchcryptid/rainfall-idf/internal/series"
)

// Pipeline step names reported to the StepObserver.
const (
	StepLoad        = "load"
	StepTransform   = "transform"
	StepMaxima      = "annual_maxima"
	StepGumbel      = "gumbel_fit"
	StepDepths      = "depth_estimation"
	StepIntensities = "intensity_estimation"
	StepMontana     = "montana_fit"
	StepMontanaEval = "montana_evaluation"
)

var (
	// ErrNotLoaded is returned when analysis is requested before any data
	// file was loaded.
	ErrNotLoaded = errors.New("no dataset loaded")

	// ErrNotAnalyzed is returned by point queries before Analyze has
	// completed for any station.
	ErrNotAnalyzed = errors.New("no station analyzed yet")
)

// ParameterNotFoundError is returned by point queries for a return period
// that is not among the analyzed (or was skipped by the Montana fitter).
type ParameterNotFoundError struct {
	Period idf.ReturnPeriod
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("no Montana parameters for return period %d", int(e.Period))
}

// Result is the complete output of one station's analysis. All tables are
// deep copies; mutating a Result never affects session state.
type Result struct {
	Station      string
	Gumbel       *idf.GumbelFit
	Depths       *idf.Table
	Intensities  *idf.Table
	Montana      *idf.MontanaFit
	MontanaTable *idf.Table
	Warnings     []string
	ComputedAt   time.Time
}

// Session owns one dataset's pipeline state. Derived per-station results are
// fully replaced on each Analyze call; on failure the previous result is
// kept untouched. A Session must not be shared across concurrent consumers —
// each consumer owns its own instance.
type Session struct {
	windows  []series.Window
	periods  []idf.ReturnPeriod
	logger   *slog.Logger
	metrics  *observability.Metrics
	observer StepObserver

	store   *series.MaximaStore
	current *Result
	cache   *resultCache
}

// New creates a Session analyzing the given aggregation windows and return
// periods. A cacheSize of 0 disables result caching.
func New(windows []series.Window, periods []idf.ReturnPeriod, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) (*Session, error) {
	if len(windows) == 0 {
		windows = series.DefaultWindows
	}
	if len(periods) == 0 {
		periods = idf.DefaultReturnPeriods
	}
	for _, w := range windows {
		if w <= 0 {
			return nil, &series.InvalidDurationError{Value: fmt.Sprint(int(w))}
		}
	}
	for _, p := range periods {
		if p < 2 {
			return nil, &idf.InvalidReturnPeriodError{Value: fmt.Sprint(int(p))}
		}
	}

	s := &Session{
		windows:  append([]series.Window(nil), windows...),
		periods:  append([]idf.ReturnPeriod(nil), periods...),
		logger:   logger,
		metrics:  metrics,
		observer: LogObserver{Logger: logger},
	}
	if cacheSize > 0 {
		s.cache = newResultCache(cacheSize)
	}
	return s, nil
}

// SetObserver replaces the default log-backed step observer.
func (s *Session) SetObserver(o StepObserver) {
	if o == nil {
		o = NopObserver{}
	}
	s.observer = o
}

// Load reads a data file and derives the per-station annual-maxima store.
// It returns the station names available for analysis. Previously loaded
// data, cached results and the current result survive only if loading
// succeeds end to end.
func (s *Session) Load(path string) ([]string, error) {
	s.observer.OnStep(StepLoad, StepStarted)
	tbl, err := dataset.Read(path, s.logger)
	if err != nil {
		s.observer.OnStep(StepLoad, StepFailed)
		s.metrics.LoadErrors.Inc()
		return nil, err
	}
	s.observer.OnStep(StepLoad, StepCompleted)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return s.LoadTable(tbl, name)
}

// LoadTable derives the annual-maxima store from an already parsed table.
// Wide calendar layouts go through the hourly transformation; tables with a
// Year column and duration-named columns are taken as a single pre-aggregated
// station named fallbackStation.
func (s *Session) LoadTable(tbl *dataset.Table, fallbackStation string) ([]string, error) {
	store, err := s.buildStore(tbl, fallbackStation)
	if err != nil {
		s.metrics.LoadErrors.Inc()
		return nil, err
	}

	s.store = store
	s.current = nil
	if s.cache != nil {
		s.cache.flush()
	}

	stations := store.Stations()
	s.metrics.FilesLoaded.Inc()
	s.metrics.StationsLoaded.Set(float64(len(stations)))
	s.logger.Info("dataset ready",
		"stations", len(stations),
		"windows", len(s.windows),
	)
	return stations, nil
}

func (s *Session) buildStore(tbl *dataset.Table, fallbackStation string) (*series.MaximaStore, error) {
	if tbl.HasColumn(series.ColStation) {
		s.observer.OnStep(StepTransform, StepStarted)
		hourly, err := series.TransformHourly(tbl, s.logger)
		if err != nil {
			s.observer.OnStep(StepTransform, StepFailed)
			return nil, err
		}
		s.observer.OnStep(StepTransform, StepCompleted)

		s.observer.OnStep(StepMaxima, StepStarted)
		store, err := series.ExtractAnnualMaxima(hourly, s.windows, s.logger)
		if err != nil {
			s.observer.OnStep(StepMaxima, StepFailed)
			return nil, err
		}
		s.observer.OnStep(StepMaxima, StepCompleted)
		return store, nil
	}

	// Pre-aggregated path: Year column plus duration columns, one station.
	s.observer.OnStep(StepMaxima, StepStarted)
	maxima, err := series.ParseAnnualMaxima(tbl, fallbackStation)
	if err != nil {
		s.observer.OnStep(StepMaxima, StepFailed)
		return nil, err
	}
	s.observer.OnStep(StepMaxima, StepCompleted)
	return series.StoreOf(maxima), nil
}

// Stations returns the station names of the loaded dataset.
func (s *Session) Stations() ([]string, error) {
	if s.store == nil {
		return nil, ErrNotLoaded
	}
	return s.store.Stations(), nil
}

// Analyze runs the full estimation chain for one station and makes its
// result current. The returned Result is a deep copy. Analyzing the same
// station twice on unchanged data produces bit-identical tables.
func (s *Session) Analyze(station string) (*Result, error) {
	if s.store == nil {
		return nil, ErrNotLoaded
	}

	if s.cache != nil {
		if cached, ok := s.cache.get(station); ok {
			s.metrics.ResultCache.WithLabelValues("hit").Inc()
			s.current = cached
			return cached.clone(), nil
		}
		s.metrics.ResultCache.WithLabelValues("miss").Inc()
	}

	tbl, err := s.store.Table(station)
	if err != nil {
		s.metrics.AnalysisErrors.Inc()
		return nil, err
	}

	start := time.Now()
	result := s.runPipeline(tbl)

	// Replace, never mutate: the previous result stays intact until the new
	// one is fully assembled.
	s.current = result
	if s.cache != nil {
		s.cache.put(station, result)
	}

	s.metrics.AnalysesCompleted.Inc()
	s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("station analyzed",
		"station", station,
		"years", len(tbl.Years),
		"warnings", len(result.Warnings),
	)
	return result.clone(), nil
}

func (s *Session) runPipeline(tbl *series.AnnualMaximaTable) *Result {
	s.observer.OnStep(StepGumbel, StepStarted)
	gumbel := idf.FitGumbel(tbl)
	s.observer.OnStep(StepGumbel, StepCompleted)

	s.observer.OnStep(StepDepths, StepStarted)
	depths := idf.EstimateDepths(gumbel, s.periods)
	s.observer.OnStep(StepDepths, StepCompleted)

	s.observer.OnStep(StepIntensities, StepStarted)
	intensities := idf.EstimateIntensities(depths)
	s.observer.OnStep(StepIntensities, StepCompleted)

	s.observer.OnStep(StepMontana, StepStarted)
	montana := idf.FitMontana(intensities)
	s.observer.OnStep(StepMontana, StepCompleted)

	s.observer.OnStep(StepMontanaEval, StepStarted)
	montanaTable := idf.EvaluateMontana(montana, tbl.Windows)
	s.observer.OnStep(StepMontanaEval, StepCompleted)

	result := &Result{
		Station:      tbl.Station,
		Gumbel:       gumbel,
		Depths:       depths,
		Intensities:  intensities,
		Montana:      montana,
		MontanaTable: montanaTable,
		ComputedAt:   clock.Now(),
	}

	for _, w := range gumbel.Degenerate {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("duration %s: non-positive variance, Gumbel parameters undefined", w.Label()))
		s.metrics.DegenerateFits.Inc()
	}
	for _, p := range montana.Skipped {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("return period %d: fewer than two positive intensities, Montana fit skipped", int(p)))
		s.metrics.DegenerateFits.Inc()
	}
	for _, warning := range result.Warnings {
		s.logger.Warn("data quality", "station", tbl.Station, "detail", warning)
	}
	return result
}

// PointIntensity evaluates the fitted Montana law of the current result at an
// arbitrary duration (hours) for one of the analyzed return periods.
func (s *Session) PointIntensity(hours float64, period idf.ReturnPeriod) (float64, error) {
	params, err := s.montanaParams(period)
	if err != nil {
		return 0, err
	}
	if hours <= 0 {
		return 0, &series.InvalidDurationError{Value: fmt.Sprint(hours)}
	}
	return params.Intensity(hours), nil
}

// PointDepth evaluates the rainfall depth implied by the Montana law at an
// arbitrary duration (hours) for one of the analyzed return periods.
func (s *Session) PointDepth(hours float64, period idf.ReturnPeriod) (float64, error) {
	intensity, err := s.PointIntensity(hours, period)
	if err != nil {
		return 0, err
	}
	return intensity * hours, nil
}

func (s *Session) montanaParams(period idf.ReturnPeriod) (idf.MontanaParams, error) {
	if s.current == nil {
		return idf.MontanaParams{}, ErrNotAnalyzed
	}
	params, ok := s.current.Montana.Params[period]
	if !ok {
		return idf.MontanaParams{}, &ParameterNotFoundError{Period: period}
	}
	return params, nil
}

// CheckReadiness reports whether the session has a dataset loaded, for the
// optional HTTP readiness endpoint.
func (s *Session) CheckReadiness() error {
	if s.store == nil {
		return ErrNotLoaded
	}
	return nil
}

func (r *Result) clone() *Result {
	out := &Result{
		Station:      r.Station,
		Gumbel:       cloneGumbel(r.Gumbel),
		Depths:       cloneTable(r.Depths),
		Intensities:  cloneTable(r.Intensities),
		Montana:      cloneMontana(r.Montana),
		MontanaTable: cloneTable(r.MontanaTable),
		Warnings:     append([]string(nil), r.Warnings...),
		ComputedAt:   r.ComputedAt,
	}
	return out
}

func cloneTable(t *idf.Table) *idf.Table {
	out := &idf.Table{
		Durations: append([]series.Window(nil), t.Durations...),
		Periods:   append([]idf.ReturnPeriod(nil), t.Periods...),
		Values:    make([][]float64, len(t.Values)),
	}
	for i, row := range t.Values {
		out.Values[i] = append([]float64(nil), row...)
	}
	return out
}

func cloneGumbel(g *idf.GumbelFit) *idf.GumbelFit {
	out := &idf.GumbelFit{
		Windows:    append([]series.Window(nil), g.Windows...),
		Degenerate: append([]series.Window(nil), g.Degenerate...),
		Params:     make(map[series.Window]idf.GumbelParams, len(g.Params)),
	}
	for k, v := range g.Params {
		out.Params[k] = v
	}
	return out
}

func cloneMontana(m *idf.MontanaFit) *idf.MontanaFit {
	out := &idf.MontanaFit{
		Periods: append([]idf.ReturnPeriod(nil), m.Periods...),
		Skipped: append([]idf.ReturnPeriod(nil), m.Skipped...),
		Params:  make(map[idf.ReturnPeriod]idf.MontanaParams, len(m.Params)),
	}
	for k, v := range m.Params {
		out.Params[k] = v
	}
	return out
}
