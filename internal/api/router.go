package api

import (
	"net/http"
	"strings"

	"dayahead-market/internal/api/handlers"
	"dayahead-market/internal/api/middleware"
	"dayahead-market/internal/api/models"
	"dayahead-market/internal/config"
	"dayahead-market/internal/data"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires middleware and routes. runs keeps results for
// GET /api/v1/runs/:id.
func NewRouter(cfg *config.Config, runs *data.RunCache[models.RunResponse], log *zap.SugaredLogger) *gin.Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	marketHandler := handlers.NewMarketHandler(cfg, runs, log)
	methodsHandler := handlers.NewMethodsHandler(cfg.Clearing.DistributionMethod, log)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.API.RatePerSecond, cfg.API.Burst))
	{
		api.GET("/distribution-methods", methodsHandler.ListDistributionMethods)

		api.POST("/clear", marketHandler.Clear)
		api.POST("/couple", marketHandler.Couple)
		api.GET("/runs/:id", marketHandler.GetRun)
	}

	router.NoRoute(func(c *gin.Context) {
		msg := "Not found"
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			msg = "unknown API route " + c.Request.URL.Path
		}
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: msg},
		})
	})
	return router
}
