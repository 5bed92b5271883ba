// internal/server/router.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/common/observability"
)

// Pinger is anything with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers collects the endpoint handlers the router mounts. A nil entry
// means the function is disabled; its route is simply not registered.
type Handlers struct {
	MarketAdvisory gin.HandlerFunc
	CropAdvisories gin.HandlerFunc
	CropCalendar   gin.HandlerFunc
	Assistant      gin.HandlerFunc
	CropAnalysis   gin.HandlerFunc
	Weather        gin.HandlerFunc
}

// Dependencies carries the infrastructure the router needs beyond the
// endpoint handlers.
type Dependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	Postgres      Pinger
	Redis         Pinger
}

// New assembles the gin engine with middleware, function routes, health and
// metrics endpoints.
func New(handlers Handlers, deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS())
	router.Use(RequestID())
	router.Use(AccessLog(deps.Logger))
	router.Use(Instrument(deps.Observability))

	functions := router.Group("/functions")
	register := func(path string, handler gin.HandlerFunc) {
		if handler == nil {
			deps.Logger.Info("function disabled", map[string]interface{}{"path": path})
			return
		}
		// Preflight requests never reach the route table: the CORS
		// middleware answers every OPTIONS with 204.
		functions.POST(path, handler)
	}

	register("/ai-market-advisory", handlers.MarketAdvisory)
	register("/ai-crop-advisories", handlers.CropAdvisories)
	register("/ai-crop-calendar", handlers.CropCalendar)
	register("/ai-generate", handlers.Assistant)
	register("/gemini-crop-analysis", handlers.CropAnalysis)
	register("/weather-api", handlers.Weather)

	router.GET("/healthz", healthz(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// healthz reports liveness plus the state of each datastore dependency.
// A failing dependency degrades the status but still returns 200: the
// pipelines tolerate cache outages, so the process stays in rotation.
func healthz(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		status := "healthy"
		for name, pinger := range map[string]Pinger{"postgres": deps.Postgres, "redis": deps.Redis} {
			if pinger == nil {
				checks[name] = "disabled"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				checks[name] = "unreachable"
				status = "degraded"
				continue
			}
			checks[name] = "ok"
		}

		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
