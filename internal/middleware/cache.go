package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControl marks GET responses as publicly cacheable for maxAge. Errors
// left for ErrorHandler are switched to no-store before they are written.
func CacheControl(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		// Headers must be set before the handler writes the body.
		c.Header("Cache-Control", value)
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.Header("Cache-Control", "no-store")
		}
	}
}
