package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/logging"
)

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if id := c.Param("id"); id != "" {
			keyvals = append(keyvals, "sandbox_id", id)
		}
		if len(c.Errors) > 0 {
			keyvals = append(keyvals, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logging.Error("request", keyvals...)
		case status >= 400:
			logging.Warn("request", keyvals...)
		default:
			logging.Debug("request", keyvals...)
		}
	}
}
