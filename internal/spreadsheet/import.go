// Package spreadsheet reads progress schedules from xlsx files and writes
// measurement reports to xlsx.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/meljneres/sistema-obras/internal/format"
)

// ImportPeriods is the number of period columns read after the label column.
const ImportPeriods = 12

const (
	plannedPctLabel = "previsto acumulado"
	actualPctLabel  = "realizado acumulado"
	moneyMarker     = "R$"
)

var ErrLayout = errors.New("spreadsheet: unexpected layout")

// Imported is what could be read from a schedule sheet. Actual values of
// zero are reported as nil (not measured).
type Imported struct {
	PlannedCumPct []float64  `json:"planned_cum_pct"`
	ActualCumPct  []*float64 `json:"actual_cum_pct"`
	Planned       []float64  `json:"planned"`
	Actual        []*float64 `json:"actual"`
}

// Read parses the first sheet of an xlsx workbook. The sheet must have a
// row labelled "Previsto acumulado" and one labelled "Realizado acumulado"
// with cumulative percentages, and a money row followed by the row of
// actual values. A row is a money row when its second cell holds "R$" as
// text or is formatted with an "R$" number format. The last money row
// wins; when the row before it is a money row too, the two are taken as
// the planned and actual pair.
func Read(r io.Reader) (*Imported, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("%w: no sheets", ErrLayout)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return parseSheet(&sheet{f: f, name: name, rows: rows})
}

// sheet holds the raw cell values of a worksheet together with the file,
// so cell types and number formats can be looked up.
type sheet struct {
	f    *excelize.File
	name string
	rows [][]string
}

func (s *sheet) cell(row, col int) string {
	if row < len(s.rows) && col < len(s.rows[row]) {
		return strings.TrimSpace(s.rows[row][col])
	}
	return ""
}

func (s *sheet) ref(row, col int) string {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return ""
	}
	return ref
}

// isText reports whether the cell stores a string rather than a number.
func (s *sheet) isText(row, col int) bool {
	ref := s.ref(row, col)
	if ref == "" {
		return false
	}
	t, err := s.f.GetCellType(s.name, ref)
	if err != nil {
		return false
	}
	return t == excelize.CellTypeSharedString || t == excelize.CellTypeInlineString
}

// moneyFormatted reports whether the cell's number format shows "R$".
func (s *sheet) moneyFormatted(row, col int) bool {
	ref := s.ref(row, col)
	if ref == "" {
		return false
	}
	idx, err := s.f.GetCellStyle(s.name, ref)
	if err != nil || idx == 0 {
		return false
	}
	style, err := s.f.GetStyle(idx)
	if err != nil || style == nil || style.CustomNumFmt == nil {
		return false
	}
	return strings.Contains(*style.CustomNumFmt, moneyMarker)
}

func (s *sheet) isMoneyRow(row int) bool {
	if s.cell(row, 0) == "" {
		return false
	}
	return strings.Contains(s.cell(row, 1), moneyMarker) || s.moneyFormatted(row, 1)
}

func parseSheet(s *sheet) (*Imported, error) {
	plannedIdx, actualIdx, moneyIdx := -1, -1, -1
	for i := range s.rows {
		label := strings.ToLower(s.cell(i, 0))
		if plannedIdx < 0 && strings.Contains(label, plannedPctLabel) {
			plannedIdx = i
		}
		if actualIdx < 0 && strings.Contains(label, actualPctLabel) {
			actualIdx = i
		}
		if s.isMoneyRow(i) {
			moneyIdx = i
		}
	}
	if plannedIdx < 0 || actualIdx < 0 {
		return nil, fmt.Errorf("%w: cumulative percentage rows not found", ErrLayout)
	}
	if moneyIdx < 0 {
		return nil, fmt.Errorf("%w: money rows not found", ErrLayout)
	}
	if moneyIdx > 0 && s.isMoneyRow(moneyIdx-1) {
		moneyIdx--
	}

	out := &Imported{
		PlannedCumPct: s.values(plannedIdx, percent),
		ActualCumPct:  nonZero(s.values(actualIdx, percent)),
		Planned:       s.values(moneyIdx, money),
	}
	if moneyIdx+1 < len(s.rows) {
		out.Actual = nonZero(s.values(moneyIdx+1, money))
	} else {
		out.Actual = make([]*float64, ImportPeriods)
	}
	return out, nil
}

// values reads the period columns of a row; unreadable cells are 0.
// Numeric cells are taken as stored and text cells go through parse.
func (s *sheet) values(row int, parse func(string) float64) []float64 {
	out := make([]float64, ImportPeriods)
	for i := range out {
		raw := s.cell(row, i+1)
		if raw == "" {
			continue
		}
		if !s.isText(row, i+1) {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				out[i] = v
				continue
			}
		}
		out[i] = parse(raw)
	}
	return out
}

// percent parses a percentage typed as text, "30.5", "30,5" or "30,5%".
func percent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return format.ParseMoneyOrDefault(s, 0)
}

// money parses an amount typed as text in Brazilian notation, so "1.500"
// is fifteen hundred.
func money(s string) float64 {
	return format.ParseMoneyOrDefault(s, 0)
}

func nonZero(in []float64) []*float64 {
	out := make([]*float64, len(in))
	for i, v := range in {
		if v != 0 {
			v := v
			out[i] = &v
		}
	}
	return out
}
