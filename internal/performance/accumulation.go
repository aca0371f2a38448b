// Package performance turns planned/actual period values into cumulative
// progress, the schedule performance index (IDP) and the IMR glosa.
// Everything here is pure: no storage, no errors.
package performance

import "sort"

// PeriodRecord is the planned value and the recorded actual of one
// measurement period. Actual is nil until the period has been measured.
type PeriodRecord struct {
	Period  int      `json:"period"`
	Planned float64  `json:"planned"`
	Actual  *float64 `json:"actual"`
}

// PeriodProgress is one row of the accumulation.
type PeriodProgress struct {
	Period  int      `json:"period"`
	Planned float64  `json:"planned"`
	Actual  *float64 `json:"actual"`

	PlannedCum float64 `json:"planned_cum"`
	ActualCum  float64 `json:"actual_cum"`

	PlannedCumPct float64 `json:"planned_cum_pct"`
	ActualCumPct  float64 `json:"actual_cum_pct"`
	DeviationPct  float64 `json:"deviation_pct"`
}

// Measured reports whether the period has a recorded actual value.
func (p PeriodProgress) Measured() bool {
	return p.Actual != nil
}

// Accumulate computes running planned/actual totals and their share of
// totalValue, in ascending period order. Absent actuals add 0 to the
// running sum. A zero totalValue yields 0 for every percentage.
func Accumulate(totalValue float64, periods []PeriodRecord) []PeriodProgress {
	sorted := make([]PeriodRecord, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period < sorted[j].Period
	})

	out := make([]PeriodProgress, 0, len(sorted))
	var plannedCum, actualCum float64
	for _, rec := range sorted {
		plannedCum += rec.Planned
		if rec.Actual != nil {
			actualCum += *rec.Actual
		}

		row := PeriodProgress{
			Period:     rec.Period,
			Planned:    rec.Planned,
			Actual:     copyValue(rec.Actual),
			PlannedCum: plannedCum,
			ActualCum:  actualCum,
		}
		row.PlannedCumPct = percentOf(plannedCum, totalValue)
		row.ActualCumPct = percentOf(actualCum, totalValue)
		row.DeviationPct = row.ActualCumPct - row.PlannedCumPct

		out = append(out, row)
	}
	return out
}

// LastMeasuredPeriod returns the highest period with a recorded actual.
func LastMeasuredPeriod(progress []PeriodProgress) (int, bool) {
	last, found := 0, false
	for _, p := range progress {
		if p.Measured() && p.Period >= last {
			last, found = p.Period, true
		}
	}
	return last, found
}

// UpTo returns the rows with Period <= n.
func UpTo(progress []PeriodProgress, n int) []PeriodProgress {
	out := make([]PeriodProgress, 0, len(progress))
	for _, p := range progress {
		if p.Period <= n {
			out = append(out, p)
		}
	}
	return out
}

func percentOf(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
