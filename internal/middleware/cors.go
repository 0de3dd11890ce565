package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORS allows any origin in development. In production only allowedOrigin is
// echoed back; an empty allowedOrigin disables cross-origin access.
func CORS(production bool, allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := "*"
		if production {
			origin = allowedOrigin
		}
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
