package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/pkg/clientip"
)

// Logger logs each request with method, path, status, and latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %d %s %s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			clientip.FromRequest(c.Request),
		)
	}
}
