package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/meljneres/sistema-obras/internal/format"
	"github.com/meljneres/sistema-obras/internal/report"
)

const (
	SheetMonthly     = "Valores Mensais"
	SheetCumulative  = "Valores Acumulados"
	SheetPercentages = "Percentuais"
	SheetPerformance = "IDP e Glosa"
	SheetSummary     = "Resumo"
)

// WriteReport writes r as a workbook with one sheet per report table.
func WriteReport(w io.Writer, r report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMonthly); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCumulative, SheetPercentages, SheetPerformance, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	tables := []struct {
		sheet  string
		header []interface{}
		row    func(report.Row) []interface{}
	}{
		{
			sheet:  SheetMonthly,
			header: []interface{}{"Medição", "Valor Previsto", "Valor Realizado"},
			row: func(r report.Row) []interface{} {
				return []interface{}{r.Period, r.Planned, optional(r.Actual)}
			},
		},
		{
			sheet:  SheetCumulative,
			header: []interface{}{"Medição", "Previsto Acumulado", "Realizado Acumulado"},
			row: func(r report.Row) []interface{} {
				return []interface{}{r.Period, r.PlannedCum, r.ActualCum}
			},
		},
		{
			sheet:  SheetPercentages,
			header: []interface{}{"Medição", "% Previsto Acumulado", "% Realizado Acumulado", "Desvio"},
			row: func(r report.Row) []interface{} {
				return []interface{}{r.Period, round2(r.PlannedCumPct), round2(r.ActualCumPct), round2(r.DeviationPct)}
			},
		},
	}

	for _, t := range tables {
		if err := f.SetSheetRow(t.sheet, "A1", &t.header); err != nil {
			return fmt.Errorf("write header of %q: %w", t.sheet, err)
		}
		for i, row := range r.Rows {
			values := t.row(row)
			if err := setRow(f, t.sheet, i+2, values); err != nil {
				return err
			}
		}
	}

	// performance rows stop at the last measured period
	header := []interface{}{"Medição", "IDP", "IDP do Período", "Status", "Fator", "Glosa", "Valor da Glosa"}
	if err := f.SetSheetRow(SheetPerformance, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", SheetPerformance, err)
	}
	for i, row := range r.Measured() {
		values := []interface{}{
			row.Period, optional(row.IDP), optional(row.PeriodIDP), string(row.Status),
			optional(row.Factor), optional(row.Glosa), optional(row.GlosaValue),
		}
		if err := setRow(f, SheetPerformance, i+2, values); err != nil {
			return err
		}
	}

	if err := writeSummary(f, r); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSummary writes the headline figures as display text.
func writeSummary(f *excelize.File, r report.Report) error {
	s := r.Summary
	idp := "-"
	if s.CurrentIDP != nil {
		idp = strconv.FormatFloat(*s.CurrentIDP, 'f', 4, 64)
	}

	lines := [][]interface{}{
		{"Obra", r.Header.Name},
		{"Contrato", r.Header.ContractNumber},
		{"Valor Total", format.Currency(r.Header.TotalValue)},
		{"Valor Total (milhões)", format.Millions(r.Header.TotalValue)},
		{"Última Medição", s.LastMeasured},
		{"IDP Atual", idp},
		{"Status", string(s.CurrentStatus)},
		{"Total Previsto", format.Currency(s.TotalPlanned)},
		{"Total Realizado", format.Currency(s.TotalActual)},
		{"Total de Glosa", format.Currency(s.TotalGlosaValue)},
		{"Prazo Contratual (meses)", s.Adherence.PlannedMonths},
		{"Prazo Realizado (meses)", s.Adherence.ActualMonths},
		{"% Físico Previsto", format.Percent(s.Adherence.PlannedPct)},
		{"% Físico Realizado", format.Percent(s.Adherence.ActualPct)},
		{"Desvio", format.Percent(s.Adherence.DeviationPct)},
	}
	for i, line := range lines {
		if err := setRow(f, SheetSummary, i+1, line); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 28)
}

func setRow(f *excelize.File, sheet string, n int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %q: %w", n, sheet, err)
	}
	return nil
}

// optional leaves the cell empty for nil values.
func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
