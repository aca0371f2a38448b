package server

import (
	"net/http"

	"github.com/meljneres/sistema-obras/internal/config"
	"github.com/meljneres/sistema-obras/internal/handlers"
	"github.com/meljneres/sistema-obras/internal/middleware"
	"github.com/meljneres/sistema-obras/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionName = "obras_session"

func NewRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 8 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))

	// HEALTHCHECK + METRICS
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.InjectUser())

	// AUTH
	api.POST("/register", handlers.Register)
	api.POST("/login", handlers.Login)
	api.GET("/logout", handlers.Logout)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth())

	writers := middleware.RequireRole(models.RoleAdmin, models.RoleEngineer)

	// OBRAS
	auth.GET("/obras", handlers.ListProjects)
	auth.POST("/obras/draft", writers, handlers.EditDraft)
	auth.POST("/obras", writers, handlers.CreateProject)
	auth.GET("/obras/:id", handlers.GetProject)
	auth.PUT("/obras/:id", writers, handlers.UpdateProject)
	auth.PUT("/obras/:id/previsoes", writers, handlers.UpdatePlannedValues)

	// MEDIÇÕES
	auth.GET("/obras/:id/medicoes/:period", handlers.GetMeasurement)
	auth.POST("/obras/:id/medicoes/:period", writers, handlers.SubmitMeasurement)

	// FATORES IMR
	auth.GET("/obras/:id/fatores",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListFactors,
	)
	auth.PUT("/obras/:id/fatores/:period",
		middleware.RequireRole(models.RoleAdmin),
		handlers.SetFactor,
	)

	// RELATÓRIOS
	auth.GET("/obras/:id/relatorio", handlers.GetReport)
	auth.GET("/obras/:id/relatorio.xlsx", handlers.ExportReport)

	// IMPORTAÇÃO
	auth.POST("/import", writers, handlers.ImportSpreadsheet)

	// AUDITORIA
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleViewer),
		handlers.ListAuditLogs,
	)

	return r
}
