package middleware

import (
	"net/http"

	"medilink/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// OverrideGuardMiddleware requires the support override key, on top of the
// admin role, for endpoints that bypass the transition graph or hard-delete
// records. The key is compared against a bcrypt hash from configuration.
func OverrideGuardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := config.AppConfig.AdminOverrideKeyHash
		if hash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Override key not configured"})
			return
		}
		key := c.GetHeader("X-Override-Key")
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid override key"})
			return
		}
		c.Next()
	}
}
