package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rollcall-hq/constituent-export/internal/api/auth"
	"github.com/rollcall-hq/constituent-export/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint; reports unhealthy when the database is down
	r.GET("/health", func(c *gin.Context) {
		if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "constituent-export",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	exportHandler := handler.NewExportHandler(deps)

	// API v1 routes; the whole exports group sits behind session +
	// entitlement checks
	v1 := r.Group("/api/v1")
	{
		exports := v1.Group("/exports")
		exports.Use(AuthMiddleware(deps.Logger, deps.Sessions, deps.Authorizer, auth.ModuleVoterExports))
		{
			// POST /api/v1/exports - Create an export job
			exports.POST("", exportHandler.CreateExport)

			// GET /api/v1/exports - List the caller's recent export jobs
			exports.GET("", exportHandler.ListExports)

			// GET /api/v1/exports/:job_id - Poll one export job
			exports.GET("/:job_id", exportHandler.GetExport)
		}
	}

	return r
}
