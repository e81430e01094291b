package flow

import "time"

// ForecastResult is the extrapolated completion outlook. Date is nil when
// the forecast is incalculable, with Reason explaining why.
type ForecastResult struct {
	Date                  *time.Time `json:"date,omitempty"`
	Reason                string     `json:"reason,omitempty"`
	TrendWeeklyVelocity   float64    `json:"trendWeeklyVelocity"`
	AverageWeeklyVelocity float64    `json:"averageWeeklyVelocity"`
	Remaining             float64    `json:"remaining"`
	Unit                  string     `json:"unit"`
}

// AverageWeeklyVelocity is total completed work divided by the weeks
// elapsed since the first completion registered on the burnup. No
// completions means zero velocity.
func AverageWeeklyVelocity(burnup *MetricSeries) float64 {
	completed := burnup.Column("completed")
	if len(completed) == 0 {
		return 0
	}
	total := completed[len(completed)-1]
	if total <= 0 {
		return 0
	}
	first := 0
	for i, v := range completed {
		if v > 0 {
			first = i
			break
		}
	}
	days := len(completed) - 1 - first
	if days < 1 {
		days = 1
	}
	return total / (float64(days) / 7)
}

// TrendWeeklyVelocity is the completion rate over the trailing window only,
// expressed per week. It reacts to recent pace where the average smears the
// whole history.
func TrendWeeklyVelocity(burnup *MetricSeries, trailingWeeks int) float64 {
	completed := burnup.Column("completed")
	if len(completed) < 2 {
		return 0
	}
	if trailingWeeks <= 0 {
		trailingWeeks = 4
	}
	first := len(completed) - 1 - trailingWeeks*7
	if first < 0 {
		first = 0
	}
	days := len(completed) - 1 - first
	if days == 0 {
		return 0
	}
	delta := completed[len(completed)-1] - completed[first]
	if delta < 0 {
		return 0
	}
	return delta / (float64(days) / 7)
}

// Forecast projects a completion date from the trailing velocity. The
// projection is anchored at asOf, never the wall clock, so results are
// reproducible. When trend velocity is zero or nothing remains, the date is
// nil and Reason says why.
func Forecast(burnup *MetricSeries, trailingWeeks int, asOf time.Time, unit string) ForecastResult {
	result := ForecastResult{
		TrendWeeklyVelocity:   TrendWeeklyVelocity(burnup, trailingWeeks),
		AverageWeeklyVelocity: AverageWeeklyVelocity(burnup),
		Remaining:             burnup.Last("scope") - burnup.Last("completed"),
		Unit:                  unit,
	}
	switch {
	case result.Remaining <= 0:
		result.Reason = "nothing remaining"
	case result.TrendWeeklyVelocity <= 0:
		result.Reason = "no recent completions"
	default:
		days := result.Remaining / result.TrendWeeklyVelocity * 7
		date := asOf.Add(time.Duration(days * 24 * float64(time.Hour)))
		result.Date = &date
	}
	return result
}

// TrendLine fits a least-squares line through the trailing completed
// window and extends it to extendTo. The returned series carries a single
// "trend" column aligned to the window start.
func TrendLine(burnup *MetricSeries, trailingWeeks int, extendTo time.Time) *MetricSeries {
	completed := burnup.Column("completed")
	if len(completed) < 2 {
		return NewMetricSeries(extendTo, extendTo.AddDate(0, 0, -1))
	}
	if trailingWeeks <= 0 {
		trailingWeeks = 4
	}
	first := len(completed) - 1 - trailingWeeks*7
	if first < 0 {
		first = 0
	}
	xs := make([]float64, 0, len(completed)-first)
	ys := make([]float64, 0, len(completed)-first)
	for i := first; i < len(completed); i++ {
		xs = append(xs, float64(i-first))
		ys = append(ys, completed[i])
	}
	slope, intercept := linearRegression(xs, ys)

	series := NewMetricSeries(burnup.Dates[first], extendTo, "trend")
	trend := series.Column("trend")
	for i := range trend {
		trend[i] = intercept + slope*float64(i)
	}
	return series
}

// RequiredThroughput is the weekly pace needed to retire the remaining work
// by the target date. The second return is false when the target is not in
// the future or nothing remains, making the question unanswerable.
func RequiredThroughput(remaining float64, targetDate, asOf time.Time) (float64, bool) {
	if remaining <= 0 {
		return 0, false
	}
	weeks := targetDate.Sub(asOf).Hours() / 24 / 7
	if weeks <= 0 {
		return 0, false
	}
	return remaining / weeks, true
}

// PeopleNeeded translates a required weekly pace into headcount, using the
// team's observed per-person velocity. It is unanswerable without a
// positive baseline velocity and team size.
func PeopleNeeded(requiredWeekly, baseWeeklyVelocity float64, teamSize int) (float64, bool) {
	if requiredWeekly <= 0 || baseWeeklyVelocity <= 0 || teamSize <= 0 {
		return 0, false
	}
	perPerson := baseWeeklyVelocity / float64(teamSize)
	return requiredWeekly / perPerson, true
}
