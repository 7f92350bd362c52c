package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/internal/auth"
)

// AuthMiddleware validates the admin session cookie and aborts with 401
// when it is missing or invalid.
func AuthMiddleware(jwtService *auth.JWTService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Next()
	}
}
