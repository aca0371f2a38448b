package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/format"
	"github.com/meljneres/sistema-obras/internal/middleware"
	"github.com/meljneres/sistema-obras/internal/models"
	"github.com/meljneres/sistema-obras/internal/validate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// render writes data under the "data" key.
func render(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func renderError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// renderStoreError maps store and validation errors to a status code.
func renderStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		renderError(c, http.StatusNotFound, "obra não encontrada")
	case errors.Is(err, database.ErrInvalidPeriod):
		renderError(c, http.StatusBadRequest, "medição fora do intervalo da obra")
	case errors.Is(err, database.ErrForeignItem):
		renderError(c, http.StatusBadRequest, "item não pertence à obra")
	case errors.Is(err, database.ErrMeasured):
		renderError(c, http.StatusConflict, "existem medições registradas nos períodos removidos")
	case errors.Is(err, validate.ErrInvalid):
		renderError(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		renderError(c, http.StatusInternalServerError, "erro interno")
	}
}

func currentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(middleware.CurrentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		renderError(c, http.StatusBadRequest, fmt.Sprintf("parâmetro %s inválido", name))
		return 0, false
	}
	return uint(v), true
}

func periodParam(c *gin.Context) (int, bool) {
	v, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		renderError(c, http.StatusBadRequest, "número da medição inválido")
		return 0, false
	}
	return v, true
}

// Money accepts a JSON number or Brazilian money text ("R$ 1.234,56").
// Unreadable text counts as zero.
type Money float64

func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*m = Money(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("money must be a number or a string")
	}
	*m = Money(format.ParseMoneyOrDefault(s, 0))
	return nil
}
