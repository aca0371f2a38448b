package handlers

import (
	"fmt"
	"net/http"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/performance"

	"github.com/gin-gonic/gin"
)

// ListFactors returns the weighting factor of every period of the project.
func ListFactors(c *gin.Context) {
	project, _, ok := loadProject(c)
	if !ok {
		return
	}

	stored, err := database.WeightingFactors(database.DB, project.ID)
	if err != nil {
		renderStoreError(c, err)
		return
	}

	type factor struct {
		Period int     `json:"period"`
		Value  float64 `json:"value"`
		Stored bool    `json:"stored"`
	}
	out := make([]factor, 0, project.NumPeriods)
	for p := 1; p <= project.NumPeriods; p++ {
		v, ok := stored[p]
		if !ok {
			v = performance.DefaultFactor
		}
		out = append(out, factor{Period: p, Value: v, Stored: ok})
	}
	render(c, http.StatusOK, out)
}

type factorForm struct {
	Value *float64 `json:"value"`
}

func SetFactor(c *gin.Context) {
	project, user, ok := loadProject(c)
	if !ok {
		return
	}
	period, ok := periodParam(c)
	if !ok {
		return
	}

	var form factorForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Value == nil {
		renderError(c, http.StatusBadRequest, "informe o fator")
		return
	}
	if *form.Value < 0 {
		renderError(c, http.StatusBadRequest, "o fator não pode ser negativo")
		return
	}

	if err := database.SetWeightingFactor(database.DB, project.ID, period, *form.Value); err != nil {
		renderStoreError(c, err)
		return
	}

	database.CreateAuditLog(database.DB, user.ID, database.EntityFactor, project.ID, "update",
		fmt.Sprintf("Fator da medição %d definido como %.4f", period, *form.Value))

	render(c, http.StatusOK, gin.H{"period": period, "value": *form.Value})
}
