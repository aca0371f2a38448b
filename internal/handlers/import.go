package handlers

import (
	"fmt"
	"net/http"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/metrics"
	"github.com/meljneres/sistema-obras/internal/spreadsheet"
	"github.com/meljneres/sistema-obras/internal/validate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImportSpreadsheet reads an uploaded xlsx schedule (form field "file").
// With ?preview=true the parsed values are returned without saving.
func ImportSpreadsheet(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		renderError(c, http.StatusUnauthorized, "login necessário")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		renderError(c, http.StatusBadRequest, "envie a planilha no campo file")
		return
	}
	file, err := fh.Open()
	if err != nil {
		renderError(c, http.StatusBadRequest, "não foi possível ler a planilha")
		return
	}
	defer file.Close()

	imported, err := spreadsheet.Read(file)
	if err != nil {
		zap.L().Warn("spreadsheet rejected", zap.String("filename", fh.Filename), zap.Error(err))
		renderError(c, http.StatusUnprocessableEntity, "erro ao processar planilha: "+err.Error())
		return
	}

	warnings := checkImported(imported)

	if c.Query("preview") == "true" {
		render(c, http.StatusOK, gin.H{"imported": imported, "warnings": warnings})
		return
	}

	project, err := database.ImportProject(database.DB, user.ID, database.ImportInput{
		Planned: imported.Planned,
		Actual:  imported.Actual,
	})
	if err != nil {
		renderStoreError(c, err)
		return
	}
	metrics.IncrementImport()

	database.CreateAuditLog(database.DB, user.ID, database.EntityProject, project.ID, "import",
		fmt.Sprintf("Obra importada da planilha %q", fh.Filename))

	render(c, http.StatusCreated, gin.H{"project": project, "imported": imported, "warnings": warnings})
}

// checkImported flags cumulative percentages outside 0..100.
func checkImported(im *spreadsheet.Imported) []string {
	var warnings []string
	for i, v := range im.PlannedCumPct {
		if err := validate.Percent(v); err != nil {
			warnings = append(warnings, fmt.Sprintf("medição %d: percentual previsto %.2f fora do intervalo", i+1, v))
		}
	}
	for i, v := range im.ActualCumPct {
		if v == nil {
			continue
		}
		if err := validate.Percent(*v); err != nil {
			warnings = append(warnings, fmt.Sprintf("medição %d: percentual realizado %.2f fora do intervalo", i+1, *v))
		}
	}
	return warnings
}
