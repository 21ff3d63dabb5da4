package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitBody caps how many request body bytes a handler may read. Reading
// past the cap fails with *http.MaxBytesError. A cap <= 0 disables it.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
