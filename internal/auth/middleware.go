package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests whose Authorization header does not carry the admin secret.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Authorize(c.GetHeader("Authorization")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
