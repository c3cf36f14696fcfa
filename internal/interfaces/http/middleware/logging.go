package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
)

// HTTPRecorder records a served request; satisfied by the prometheus metrics.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route, status string, elapsed time.Duration)
}

// RequestLogging logs each request and records it in the metrics when a
// recorder is provided.
func RequestLogging(log logging.Logger, recorder HTTPRecorder) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if recorder != nil {
			recorder.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		if status >= 500 {
			log.Error("request failed", fields...)
		} else {
			log.Info("request served", fields...)
		}
	}
}
