// Package report assembles the measurement report of a project from its
// period totals: accumulation, IDP, glosa and adherence indicators.
package report

import (
	"github.com/meljneres/sistema-obras/internal/performance"
)

// Header carries the project fields the report needs.
type Header struct {
	ProjectID      uint    `json:"project_id"`
	Name           string  `json:"name"`
	ContractNumber string  `json:"contract_number"`
	TotalValue     float64 `json:"total_value"`
	PlannedMonths  int     `json:"planned_months"`
	ActualMonths   *int    `json:"actual_months"`
}

// Row is one measurement period of the report. Performance fields are
// only set when the period has been measured.
type Row struct {
	performance.PeriodProgress

	IDP        *float64           `json:"idp"`
	PeriodIDP  *float64           `json:"period_idp"`
	Status     performance.Status `json:"status,omitempty"`
	Factor     *float64           `json:"factor"`
	Glosa      *float64           `json:"glosa"`
	GlosaValue *float64           `json:"glosa_value"`
}

// Adherence compares contract figures against what was executed.
type Adherence struct {
	PlannedMonths int     `json:"planned_months"`
	ActualMonths  int     `json:"actual_months"`
	PlannedPct    float64 `json:"planned_pct"`
	ActualPct     float64 `json:"actual_pct"`
	DeviationPct  float64 `json:"deviation_pct"`
}

type Summary struct {
	LastMeasured    int                `json:"last_measured"`
	CurrentIDP      *float64           `json:"current_idp"`
	CurrentStatus   performance.Status `json:"current_status"`
	TotalPlanned    float64            `json:"total_planned"`
	TotalActual     float64            `json:"total_actual"`
	TotalGlosaValue float64            `json:"total_glosa_value"`
	Adherence       Adherence          `json:"adherence"`
}

type Report struct {
	Header  Header  `json:"header"`
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// Build computes the report. factors resolves the weighting factor of each
// measured period; a nil lookup means "no overrides".
func Build(h Header, periods []performance.PeriodRecord, factors performance.FactorLookup) Report {
	if factors == nil {
		factors = performance.FactorsFromMap(nil)
	}

	progress := performance.Accumulate(h.TotalValue, periods)
	rows := make([]Row, 0, len(progress))

	sum := Summary{CurrentStatus: performance.StatusNotStarted}
	for _, p := range progress {
		row := Row{PeriodProgress: p}
		sum.TotalPlanned += p.Planned

		if p.Measured() {
			measured := *p.Actual
			sum.TotalActual += measured

			idp := performance.ComputeIDP(p.ActualCum, p.PlannedCum)
			periodIDP := performance.ComputeIDP(measured, p.Planned)
			factor := factors(p.Period)
			glosa := performance.ComputeGlosa(idp, factor)
			glosaValue := performance.ComputeGlosaValue(measured, glosa)

			row.IDP = &idp
			row.PeriodIDP = &periodIDP
			row.Status = performance.Classify(idp)
			row.Factor = &factor
			row.Glosa = &glosa
			row.GlosaValue = &glosaValue

			sum.TotalGlosaValue += glosaValue
		}

		rows = append(rows, row)
	}

	if last, ok := performance.LastMeasuredPeriod(progress); ok {
		sum.LastMeasured = last
		for _, r := range rows {
			if r.Period == last {
				idp := *r.IDP
				sum.CurrentIDP = &idp
				sum.CurrentStatus = r.Status
				sum.Adherence.PlannedPct = r.PlannedCumPct
				sum.Adherence.ActualPct = r.ActualCumPct
				sum.Adherence.DeviationPct = r.DeviationPct
			}
		}
	}

	sum.Adherence.PlannedMonths = h.PlannedMonths
	if h.ActualMonths != nil {
		sum.Adherence.ActualMonths = *h.ActualMonths
	}

	return Report{Header: h, Rows: rows, Summary: sum}
}

// Measured returns the rows up to the last measured period.
func (r Report) Measured() []Row {
	out := make([]Row, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Period <= r.Summary.LastMeasured {
			out = append(out, row)
		}
	}
	return out
}
