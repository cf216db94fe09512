package middleware

import (
	"net/http"
	"strings"

	"medilink/utils"

	"github.com/gin-gonic/gin"
)

// Actor roles carried in the JWT role claim.
const (
	RoleUser       = "user"
	RolePartner    = "partner"
	RoleDoctor     = "doctor"
	RoleServiceBoy = "serviceboy"
	RoleAdmin      = "admin"
)

// JWTAuthMiddleware validates the bearer token and requires the role claim to
// be one of allowedRoles (any role when none are given). On success the actor
// id and role are placed in the request context.
func JWTAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, role, err := utils.ExtractActorFromToken(tokenString)
		if err != nil || actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		if len(allowedRoles) > 0 {
			allowed := false
			for _, r := range allowedRoles {
				if r == role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden for role"})
				return
			}
		}

		c.Set("actorID", actorID)
		c.Set("actorRole", role)
		c.Next()
	}
}

// ActorID returns the authenticated actor id from the request context.
func ActorID(c *gin.Context) string {
	v, _ := c.Get("actorID")
	id, _ := v.(string)
	return id
}
