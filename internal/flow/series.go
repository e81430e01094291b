package flow

import "time"

// MetricSeries is a gap-free, day-indexed table of named numeric columns.
// Every chart producer returns one, so downstream consumers never have to
// guess at missing dates.
type MetricSeries struct {
	Dates   []time.Time          `json:"dates"`
	Columns map[string][]float64 `json:"columns"`
}

// NewMetricSeries builds a series covering every calendar day from start to
// end inclusive, with each named column zero-filled.
func NewMetricSeries(start, end time.Time, columns ...string) *MetricSeries {
	s := &MetricSeries{Columns: make(map[string][]float64)}
	day := startOfDay(start)
	last := startOfDay(end)
	for !day.After(last) {
		s.Dates = append(s.Dates, day)
		day = day.AddDate(0, 0, 1)
	}
	for _, name := range columns {
		s.Columns[name] = make([]float64, len(s.Dates))
	}
	return s
}

// Len returns the number of days covered.
func (s *MetricSeries) Len() int {
	return len(s.Dates)
}

// DayIndex maps a timestamp to its day slot, or -1 when it falls outside
// the covered range.
func (s *MetricSeries) DayIndex(t time.Time) int {
	if len(s.Dates) == 0 {
		return -1
	}
	idx := daysBetween(s.Dates[0], t)
	if idx < 0 || idx >= len(s.Dates) {
		return -1
	}
	return idx
}

// Column returns the values for a named column, ensuring it exists.
func (s *MetricSeries) Column(name string) []float64 {
	col, ok := s.Columns[name]
	if !ok {
		col = make([]float64, len(s.Dates))
		s.Columns[name] = col
	}
	return col
}

// Set assigns a value in a column, ignoring out-of-range indices.
func (s *MetricSeries) Set(name string, i int, v float64) {
	col := s.Column(name)
	if i >= 0 && i < len(col) {
		col[i] = v
	}
}

// Last returns the final value of a column, or 0 for an empty series.
func (s *MetricSeries) Last(name string) float64 {
	col := s.Column(name)
	if len(col) == 0 {
		return 0
	}
	return col[len(col)-1]
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from one date to another, negative when
// reversed. Both dates are re-anchored in UTC so 23- and 25-hour DST days
// still count as one day.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
