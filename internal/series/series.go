// Package series turns raw observation tables into per-station hourly
// precipitation series and annual-maximum tables, the inputs to IDF fitting.
//
// # Input Layout
//
// Raw station exports arrive in a wide calendar layout: one row per
// (station, year, month, time-of-day) and one column per day of month, named
// "1" through "31". Identifier columns:
//
//	Year   four-digit calendar year
//	Month  month number, 1-12
//	Time   time of day in "HH:MM" 24-hour notation
//	Name   station name
//
// Day columns for days that do not exist in a given month (e.g. February 31)
// are present in the layout but produce invalid calendar dates; those cells
// are dropped during transformation rather than kept as nulls.
//
// # Annual Maxima
//
// For each station and each aggregation window w, the annual maximum is the
// largest w-hour rolling sum observed within a single calendar year. Rolling
// sums are positional over the year's chronologically ordered hourly values
// with a minimum of one contributing point, so a partial window at the start
// of a year still yields a value. Windows never span a year boundary: a
// 24-hour event straddling Dec 31/Jan 1 is credited to neither year. This
// matches the convention of the upstream acquisition tooling; see DESIGN.md.
package series

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-idf/internal/dataset"
)

// Identifier column names expected in the raw wide layout.
const (
	ColYear    = "Year"
	ColMonth   = "Month"
	ColTime    = "Time"
	ColStation = "Name"
)

// ErrEmptySeries indicates that a transformation produced zero valid
// observations, e.g. every timestamp in the input was an invalid calendar date.
var ErrEmptySeries = errors.New("no valid observations after timestamp filtering")

// UnknownStationError is returned when a station name is not present in the
// loaded data.
type UnknownStationError struct {
	Station string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("unknown station %q", e.Station)
}

// Point is a single hourly observation.
type Point struct {
	Time  time.Time
	Depth float64 // precipitation depth in mm
}

// HourlySeries holds one chronologically sorted hourly precipitation series
// per station. Timestamps are strictly increasing within a station; cells
// that collided during the pivot (same station, same timestamp) were summed.
type HourlySeries struct {
	stations []string
	points   map[string][]Point
}

// Stations returns the station names in sorted order.
func (h *HourlySeries) Stations() []string { return h.stations }

// Station returns the hourly series for one station.
func (h *HourlySeries) Station(name string) ([]Point, error) {
	pts, ok := h.points[name]
	if !ok {
		return nil, &UnknownStationError{Station: name}
	}
	return pts, nil
}

// TransformHourly reshapes a wide raw observation table into per-station
// hourly series: day-of-month columns are unpivoted to rows, timestamps are
// assembled and validated (invalid calendar dates are dropped), and the long
// form is pivoted so each station becomes its own series.
func TransformHourly(tbl *dataset.Table, logger *slog.Logger) (*HourlySeries, error) {
	idx, err := identifierIndexes(tbl)
	if err != nil {
		return nil, err
	}

	dayCols := dayColumns(tbl)
	if len(dayCols) == 0 {
		return nil, &dataset.MissingColumnError{Column: "day-of-month (integer-named)"}
	}

	acc := make(map[string]map[time.Time]float64)
	var dropped int

	for _, row := range tbl.Rows {
		year := row[idx.year]
		month := row[idx.month]
		tod := row[idx.time]
		station := row[idx.station]
		if station == "" {
			continue
		}

		for _, dc := range dayCols {
			depth, ok := parseDepth(row[dc.index])
			if !ok {
				continue
			}

			ts, err := buildTimestamp(year, month, dc.day, tod)
			if err != nil {
				dropped++
				continue
			}

			byTime, ok := acc[station]
			if !ok {
				byTime = make(map[time.Time]float64)
				acc[station] = byTime
			}
			// Colliding entries collapse by summation, as in a pivot table.
			byTime[ts] += depth
		}
	}

	if len(acc) == 0 {
		return nil, ErrEmptySeries
	}

	h := &HourlySeries{points: make(map[string][]Point, len(acc))}
	for station, byTime := range acc {
		pts := make([]Point, 0, len(byTime))
		for ts, depth := range byTime {
			pts = append(pts, Point{Time: ts, Depth: depth})
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })
		h.points[station] = pts
		h.stations = append(h.stations, station)
	}
	sort.Strings(h.stations)

	logger.Info("hourly series built",
		"stations", len(h.stations),
		"dropped_invalid_timestamps", dropped,
	)
	return h, nil
}

type columnIndexes struct {
	year, month, time, station int
}

func identifierIndexes(tbl *dataset.Table) (columnIndexes, error) {
	var idx columnIndexes
	for _, req := range []struct {
		name string
		dst  *int
	}{
		{ColYear, &idx.year},
		{ColMonth, &idx.month},
		{ColTime, &idx.time},
		{ColStation, &idx.station},
	} {
		i := tbl.ColumnIndex(req.name)
		if i < 0 {
			return idx, &dataset.MissingColumnError{Column: req.name}
		}
		*req.dst = i
	}
	return idx, nil
}

type dayColumn struct {
	index int
	day   int
}

// dayColumns returns the columns whose names parse as positive integers,
// in table order.
func dayColumns(tbl *dataset.Table) []dayColumn {
	var cols []dayColumn
	for i, name := range tbl.Columns {
		d, err := strconv.Atoi(name)
		if err != nil || d <= 0 {
			continue
		}
		cols = append(cols, dayColumn{index: i, day: d})
	}
	return cols
}

// buildTimestamp assembles "YYYY-MM-DD HH:MM" from zero-padded parts and
// parses it strictly, so invalid calendar dates (February 31) fail rather
// than normalize.
func buildTimestamp(year, month string, day int, tod string) (time.Time, error) {
	s := fmt.Sprintf("%s-%s-%02d %s", year, pad2(month), day, strings.TrimSpace(tod))
	return time.Parse("2006-01-02 15:04", s)
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// parseDepth parses a precipitation cell. Empty and non-numeric cells count
// as missing, not zero.
func parseDepth(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
