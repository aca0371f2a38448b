package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/format"
	"github.com/meljneres/sistema-obras/internal/metrics"
	"github.com/meljneres/sistema-obras/internal/validate"

	"github.com/gin-gonic/gin"
)

// GetMeasurement lists the items of a period with planned and actual values.
func GetMeasurement(c *gin.Context) {
	project, _, ok := loadProject(c)
	if !ok {
		return
	}
	period, ok := periodParam(c)
	if !ok {
		return
	}

	items, err := database.PeriodItems(database.DB, project.ID, period)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"project_id": project.ID, "period": period, "items": items})
}

type measurementForm struct {
	Values map[uint]Money `json:"values"`
	Date   string         `json:"date"` // YYYY-MM-DD, defaults to today
}

func SubmitMeasurement(c *gin.Context) {
	project, user, ok := loadProject(c)
	if !ok {
		return
	}
	period, ok := periodParam(c)
	if !ok {
		return
	}

	var form measurementForm
	if err := c.ShouldBindJSON(&form); err != nil || len(form.Values) == 0 {
		metrics.IncrementMeasurement("rejected")
		renderError(c, http.StatusBadRequest, "informe os valores medidos")
		return
	}

	now := time.Now()
	at := now
	if s := strings.TrimSpace(form.Date); s != "" {
		d, err := validate.ParseDate(s)
		if err == nil {
			err = validate.Date(d, now)
		}
		if err != nil {
			metrics.IncrementMeasurement("rejected")
			renderStoreError(c, err)
			return
		}
		at = d
	}

	values := make(map[uint]float64, len(form.Values))
	var total float64
	for itemID, v := range form.Values {
		if v < 0 {
			metrics.IncrementMeasurement("rejected")
			renderError(c, http.StatusBadRequest, "valores medidos não podem ser negativos")
			return
		}
		values[itemID] = float64(v)
		total += float64(v)
	}

	if err := database.SubmitMeasurement(database.DB, project.ID, period, values, at); err != nil {
		status := "failed"
		if errors.Is(err, database.ErrInvalidPeriod) || errors.Is(err, database.ErrForeignItem) {
			status = "rejected"
		}
		metrics.IncrementMeasurement(status)
		renderStoreError(c, err)
		return
	}
	metrics.IncrementMeasurement("success")
	recordGlosa(project, period)

	database.CreateAuditLog(database.DB, user.ID, database.EntityMeasurement, project.ID, "measure",
		fmt.Sprintf("Medição %d registrada: %d itens, total %s", period, len(values), format.Currency(total)))

	items, err := database.PeriodItems(database.DB, project.ID, period)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"project_id": project.ID, "period": period, "items": items})
}
