package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lexflow/backend/internal/application/services"
)

// ContextKeyActor is the gin context key under which the
// authenticated actor session is stored
const ContextKeyActor = "actor"

// RequireAuth is a middleware that validates session tokens. It tags
// the request with the actor identity; it enforces no permissions
// beyond requiring a valid session.
func RequireAuth(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "No authorization token provided",
				"code":    "UNAUTHORIZED",
				"data":    nil,
			})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Invalid authorization header format",
				"code":    "UNAUTHORIZED",
				"data":    nil,
			})
			c.Abort()
			return
		}

		claims, err := authSvc.ValidateSession(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": err.Error(),
				"code":    "UNAUTHORIZED",
				"data":    nil,
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyActor, claims.Actor)

		c.Next()
	}
}
