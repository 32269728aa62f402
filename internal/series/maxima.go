package series

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/couchcryptid/rainfall-idf/internal/dataset"
)

// AnnualMaximaTable holds one station's annual maxima: one row per year with
// data (gap years are simply absent, ascending order), one column per
// aggregation window. Values are maximum rolling-sum depths in mm.
type AnnualMaximaTable struct {
	Station string
	Years   []int
	Windows []Window
	Values  [][]float64 // Values[i][j] = year Years[i], window Windows[j]
}

// Column returns the values of one window column across all years.
func (t *AnnualMaximaTable) Column(w Window) ([]float64, bool) {
	for j, win := range t.Windows {
		if win == w {
			col := make([]float64, len(t.Years))
			for i := range t.Years {
				col[i] = t.Values[i][j]
			}
			return col, true
		}
	}
	return nil, false
}

// MaximaStore is a keyed, read-only collection of per-station annual-maxima
// tables. Absence of a station is an explicit error, never a silent miss.
type MaximaStore struct {
	stations []string
	tables   map[string]*AnnualMaximaTable
}

// Stations returns the station names in sorted order.
func (s *MaximaStore) Stations() []string { return s.stations }

// Table returns the annual-maxima table for one station.
func (s *MaximaStore) Table(station string) (*AnnualMaximaTable, error) {
	t, ok := s.tables[station]
	if !ok {
		return nil, &UnknownStationError{Station: station}
	}
	return t, nil
}

// StoreOf wraps already-built annual-maxima tables into a MaximaStore, used
// by the pre-aggregated input path and by tests.
func StoreOf(tables ...*AnnualMaximaTable) *MaximaStore {
	s := &MaximaStore{tables: make(map[string]*AnnualMaximaTable, len(tables))}
	for _, t := range tables {
		s.stations = append(s.stations, t.Station)
		s.tables[t.Station] = t
	}
	sort.Strings(s.stations)
	return s
}

// ExtractAnnualMaxima computes, for every station and every window, the
// annual maximum of the rolling-sum series. Rolling sums are positional over
// each calendar year's chronologically ordered values with minimum one
// contributing point; windows do not cross year boundaries.
func ExtractAnnualMaxima(h *HourlySeries, windows []Window, logger *slog.Logger) (*MaximaStore, error) {
	if len(h.Stations()) == 0 {
		return nil, ErrEmptySeries
	}
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	store := &MaximaStore{
		stations: h.Stations(),
		tables:   make(map[string]*AnnualMaximaTable, len(h.Stations())),
	}

	for _, station := range h.Stations() {
		pts, err := h.Station(station)
		if err != nil {
			return nil, err
		}
		store.tables[station] = stationMaxima(station, pts, windows)
		logger.Debug("annual maxima extracted",
			"station", station,
			"years", len(store.tables[station].Years),
		)
	}
	return store, nil
}

func stationMaxima(station string, pts []Point, windows []Window) *AnnualMaximaTable {
	byYear := make(map[int][]float64)
	for _, p := range pts {
		y := p.Time.Year()
		byYear[y] = append(byYear[y], p.Depth)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	tbl := &AnnualMaximaTable{
		Station: station,
		Years:   years,
		Windows: append([]Window(nil), windows...),
		Values:  make([][]float64, len(years)),
	}
	for i, y := range years {
		row := make([]float64, len(windows))
		for j, w := range windows {
			row[j] = maxRollingSum(byYear[y], int(w))
		}
		tbl.Values[i] = row
	}
	return tbl
}

// maxRollingSum returns the maximum over all positions of the sum of the last
// w values, with fewer than w values contributing near the start of the slice.
func maxRollingSum(values []float64, w int) float64 {
	var sum, best float64
	for i, v := range values {
		sum += v
		if i >= w {
			sum -= values[i-w]
		}
		if i == 0 || sum > best {
			best = sum
		}
	}
	return best
}

// ParseAnnualMaxima loads a pre-computed annual-maxima table directly from a
// raw table with a Year column and integer-named duration columns, the
// alternative input path for data that has already been aggregated.
func ParseAnnualMaxima(tbl *dataset.Table, station string) (*AnnualMaximaTable, error) {
	yearIdx := tbl.ColumnIndex(ColYear)
	if yearIdx < 0 {
		return nil, &dataset.MissingColumnError{Column: ColYear}
	}

	var windows []Window
	var colIdx []int
	for i, name := range tbl.Columns {
		if i == yearIdx {
			continue
		}
		w, err := ParseWindow(name)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
		colIdx = append(colIdx, i)
	}
	if len(windows) == 0 {
		return nil, &dataset.MissingColumnError{Column: "duration (integer-named)"}
	}

	out := &AnnualMaximaTable{Station: station, Windows: windows}
	for _, row := range tbl.Rows {
		year, err := strconv.Atoi(row[yearIdx])
		if err != nil {
			continue
		}
		vals := make([]float64, len(colIdx))
		valid := true
		for j, ci := range colIdx {
			v, ok := parseDepth(row[ci])
			if !ok {
				valid = false
				break
			}
			vals[j] = v
		}
		if !valid {
			continue
		}
		out.Years = append(out.Years, year)
		out.Values = append(out.Values, vals)
	}
	if len(out.Years) == 0 {
		return nil, ErrEmptySeries
	}

	sortByYear(out)
	return out, nil
}

func sortByYear(t *AnnualMaximaTable) {
	order := make([]int, len(t.Years))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return t.Years[order[a]] < t.Years[order[b]] })

	years := make([]int, len(t.Years))
	values := make([][]float64, len(t.Values))
	for i, o := range order {
		years[i] = t.Years[o]
		values[i] = t.Values[o]
	}
	t.Years = years
	t.Values = values
}
