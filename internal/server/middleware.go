// internal/server/middleware.go
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/common/metrics"
	"smartbharat-functions/internal/common/observability"
)

// CORS mirrors the headers the web client expects on every function route,
// including the preflight response.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID tags every request so log lines from one call can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Instrument records per-function request counts and latency into both the
// Prometheus vectors and the OTel meter.
func Instrument(obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		function := c.FullPath()
		if function == "" {
			return
		}
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start)

		metrics.AdvisoryRequests.WithLabelValues(function, status).Inc()
		metrics.AdvisoryRequestDuration.WithLabelValues(function).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordRequest(c.Request.Context(), function, status)
			obs.RecordRequestDuration(c.Request.Context(), function, elapsed)
		}
	}
}

// AccessLog writes one structured line per completed request.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request completed", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestID":  c.GetString("requestID"),
		})
	}
}
