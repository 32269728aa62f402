package session_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-idf/internal/dataset"
	"github.com/couchcryptid/rainfall-idf/internal/idf"
	"github.com/couchcryptid/rainfall-idf/internal/observability"
	"github.com/couchcryptid/rainfall-idf/internal/series"
	"github.com/couchcryptid/rainfall-idf/internal/session"
)

// --- mocks ---

type recordingObserver struct {
	steps []string
}

func (o *recordingObserver) OnStep(step string, status session.StepStatus) {
	o.steps = append(o.steps, step+":"+string(status))
}

// preAggregated is a single-station annual-maxima file: the known scenario
// [10, 20, 15, 25, 30] at 1h, plus a 24h column.
func preAggregated() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"Year", "1", "24"},
		Rows: [][]string{
			{"2000", "10", "60"},
			{"2001", "20", "80"},
			{"2002", "15", "72"},
			{"2003", "25", "95"},
			{"2004", "30", "110"},
		},
	}
}

func newTestSession(t *testing.T, periods ...idf.ReturnPeriod) *session.Session {
	t.Helper()
	if len(periods) == 0 {
		periods = []idf.ReturnPeriod{2, 10, 100}
	}
	sess, err := session.New([]series.Window{1, 24}, periods, 4, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	return sess
}

// --- tests ---

func TestNew_RejectsInvalidParameters(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	_, err := session.New([]series.Window{0}, nil, 0, slog.Default(), metrics)
	var invalidW *series.InvalidDurationError
	assert.ErrorAs(t, err, &invalidW)

	_, err = session.New(nil, []idf.ReturnPeriod{1}, 0, slog.Default(), metrics)
	var invalidP *idf.InvalidReturnPeriodError
	assert.ErrorAs(t, err, &invalidP)
}

func TestAnalyze_KnownScenario(t *testing.T) {
	sess := newTestSession(t)

	stations, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gauge A"}, stations)

	result, err := sess.Analyze("Gauge A")
	require.NoError(t, err)

	assert.Equal(t, "Gauge A", result.Station)
	assert.Empty(t, result.Warnings)

	p := result.Gumbel.Params[1]
	assert.InDelta(t, 20.0, p.Mean, 1e-12)
	assert.InDelta(t, 62.5, p.Variance, 1e-12)

	// T=10 depth at 1h ≈ 30.31 mm, and intensity equals depth at 1h.
	depth, ok := result.Depths.Value(1, 10)
	require.True(t, ok)
	assert.InDelta(t, 30.31, depth, 0.02)

	intensity, ok := result.Intensities.Value(1, 10)
	require.True(t, ok)
	assert.InDelta(t, depth, intensity, 1e-12)

	// Montana r² is high: two durations give an exact log-linear fit.
	for _, period := range result.Montana.Periods {
		assert.InDelta(t, 1.0, result.Montana.Params[period].R2, 1e-9)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	session.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	defer session.SetClock(nil)

	sess := newTestSession(t)
	_, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)

	first, err := sess.Analyze("Gauge A")
	require.NoError(t, err)
	second, err := sess.Analyze("Gauge A")
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
}

func TestAnalyze_CacheHitOnSecondCall(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sess, err := session.New([]series.Window{1, 24}, []idf.ReturnPeriod{10}, 4, slog.Default(), metrics)
	require.NoError(t, err)

	_, err = sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)

	_, err = sess.Analyze("Gauge A")
	require.NoError(t, err)
	_, err = sess.Analyze("Gauge A")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResultCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResultCache.WithLabelValues("miss")))
}

func TestAnalyze_ResultIsACopy(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)

	first, err := sess.Analyze("Gauge A")
	require.NoError(t, err)
	first.Depths.Values[0][0] = -999 // must not leak into session state

	second, err := sess.Analyze("Gauge A")
	require.NoError(t, err)
	assert.NotEqual(t, -999.0, second.Depths.Values[0][0])
}

func TestAnalyze_UnknownStation(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)

	_, err = sess.Analyze("Gauge Z")

	var unknown *series.UnknownStationError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Gauge Z", unknown.Station)
}

func TestAnalyze_BeforeLoad(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Analyze("Gauge A")
	assert.ErrorIs(t, err, session.ErrNotLoaded)
}

func TestAnalyze_DegenerateColumnWarns(t *testing.T) {
	tbl := &dataset.Table{
		Columns: []string{"Year", "1", "24"},
		Rows: [][]string{
			{"2000", "7", "60"},
			{"2001", "7", "80"},
			{"2002", "7", "72"},
		},
	}

	sess := newTestSession(t)
	_, err := sess.LoadTable(tbl, "Gauge A")
	require.NoError(t, err)

	result, err := sess.Analyze("Gauge A")
	require.NoError(t, err)

	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "1h")
	assert.Equal(t, []series.Window{1}, result.Gumbel.Degenerate)
}

func TestPointQueries(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)

	t.Run("before analyze", func(t *testing.T) {
		_, err := sess.PointIntensity(2, 10)
		assert.ErrorIs(t, err, session.ErrNotAnalyzed)
	})

	result, err := sess.Analyze("Gauge A")
	require.NoError(t, err)

	t.Run("matches the Montana law", func(t *testing.T) {
		params := result.Montana.Params[10]

		intensity, err := sess.PointIntensity(3, 10)
		require.NoError(t, err)
		assert.InDelta(t, params.Intensity(3), intensity, 1e-12)

		depth, err := sess.PointDepth(3, 10)
		require.NoError(t, err)
		assert.InDelta(t, intensity*3, depth, 1e-12)
	})

	t.Run("period not analyzed", func(t *testing.T) {
		_, err := sess.PointIntensity(3, 7)
		var notFound *session.ParameterNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, idf.ReturnPeriod(7), notFound.Period)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		_, err := sess.PointIntensity(0, 10)
		var invalid *series.InvalidDurationError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestLoadTable_FlushesPreviousState(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)
	_, err = sess.Analyze("Gauge A")
	require.NoError(t, err)

	_, err = sess.LoadTable(preAggregated(), "Gauge B")
	require.NoError(t, err)

	// Point queries require a fresh Analyze after loading.
	_, err = sess.PointIntensity(1, 10)
	assert.ErrorIs(t, err, session.ErrNotAnalyzed)

	_, err = sess.Analyze("Gauge A")
	var unknown *series.UnknownStationError
	assert.ErrorAs(t, err, &unknown)
}

func TestLoadTable_WideLayoutGoesThroughTransform(t *testing.T) {
	tbl := &dataset.Table{
		Columns: []string{"Name", "Year", "Month", "Time", "1", "2"},
		Rows: [][]string{
			{"Gauge A", "2000", "6", "10:00", "5", "3"},
			{"Gauge A", "2001", "6", "10:00", "8", "1"},
			{"Gauge B", "2000", "6", "10:00", "2", "2"},
		},
	}

	obs := &recordingObserver{}
	sess := newTestSession(t)
	sess.SetObserver(obs)

	stations, err := sess.LoadTable(tbl, "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gauge A", "Gauge B"}, stations)
	assert.Contains(t, obs.steps, session.StepTransform+":completed")
	assert.Contains(t, obs.steps, session.StepMaxima+":completed")
}

func TestAnalyze_ReportsSteps(t *testing.T) {
	obs := &recordingObserver{}
	sess := newTestSession(t)
	sess.SetObserver(obs)

	_, err := sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)
	_, err = sess.Analyze("Gauge A")
	require.NoError(t, err)

	for _, step := range []string{
		session.StepGumbel, session.StepDepths, session.StepIntensities,
		session.StepMontana, session.StepMontanaEval,
	} {
		assert.Contains(t, obs.steps, step+":started")
		assert.Contains(t, obs.steps, step+":completed")
	}
}

func TestStations(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Stations()
	assert.ErrorIs(t, err, session.ErrNotLoaded)
	assert.Error(t, sess.CheckReadiness())

	_, err = sess.LoadTable(preAggregated(), "Gauge A")
	require.NoError(t, err)

	stations, err := sess.Stations()
	require.NoError(t, err)
	assert.Equal(t, []string{"Gauge A"}, stations)
	assert.NoError(t, sess.CheckReadiness())
}
