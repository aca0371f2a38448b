package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/metrics"
	"github.com/meljneres/sistema-obras/internal/models"
	"github.com/meljneres/sistema-obras/internal/performance"
	"github.com/meljneres/sistema-obras/internal/report"
	"github.com/meljneres/sistema-obras/internal/spreadsheet"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func buildReport(project *models.Project) (report.Report, error) {
	periods, err := database.PeriodTotals(database.DB, project.ID)
	if err != nil {
		return report.Report{}, err
	}
	factors, err := database.WeightingFactors(database.DB, project.ID)
	if err != nil {
		return report.Report{}, err
	}

	return report.Build(report.Header{
		ProjectID:      project.ID,
		Name:           project.Name,
		ContractNumber: project.ContractNumber,
		TotalValue:     project.TotalValue,
		PlannedMonths:  project.PlannedMonths,
		ActualMonths:   project.ActualMonths,
	}, periods, performance.FactorsFromMap(factors)), nil
}

// recordGlosa counts the glosa tier reached by a period after its
// measurement is saved. Report reads are not counted.
func recordGlosa(project *models.Project, period int) {
	r, err := buildReport(project)
	if err != nil {
		zap.L().Warn("glosa not recorded", zap.Uint("project_id", project.ID), zap.Int("period", period), zap.Error(err))
		return
	}
	for _, row := range r.Rows {
		if row.Period == period && row.IDP != nil {
			metrics.IncrementGlosa(performance.GlosaTier(*row.IDP).MinIDP)
		}
	}
}

// GetReport returns the accumulation, IDP and glosa of every period.
// With ?measured=true rows stop at the last measured period.
func GetReport(c *gin.Context) {
	project, _, ok := loadProject(c)
	if !ok {
		return
	}

	r, err := buildReport(project)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	if c.Query("measured") == "true" {
		r.Rows = r.Measured()
	}
	render(c, http.StatusOK, r)
}

func ExportReport(c *gin.Context) {
	project, _, ok := loadProject(c)
	if !ok {
		return
	}

	r, err := buildReport(project)
	if err != nil {
		renderStoreError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteReport(&buf, r); err != nil {
		renderStoreError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"relatorio_obra_%d_%s.xlsx\"",
		project.ID, time.Now().Format("20060102")))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
