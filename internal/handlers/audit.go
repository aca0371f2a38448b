package handlers

import (
	"net/http"
	"strconv"

	"github.com/meljneres/sistema-obras/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	defaultAuditLimit = 200
	maxAuditLimit     = 1000
)

// ListAuditLogs returns the latest audit entries, optionally only those
// of one project (?obra=ID).
func ListAuditLogs(c *gin.Context) {
	limit := defaultAuditLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	var projectID uint
	if s := c.Query("obra"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			renderError(c, http.StatusBadRequest, "parâmetro obra inválido")
			return
		}
		projectID = uint(v)
	}

	logs, err := database.ListAuditLogs(database.DB, projectID, limit)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	render(c, http.StatusOK, logs)
}
