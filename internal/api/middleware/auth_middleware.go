package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contentwizard/internal/auth"
)

func abortAuthError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": msg})
}

// AuthMiddleware validates the bearer access token and injects the userID
// into the context. A missing token and an invalid/expired token are distinct
// failures: the former is 401, the latter 403.
func AuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortAuthError(c, http.StatusUnauthorized, "No token provided")
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortAuthError(c, http.StatusUnauthorized, "No token provided")
			return
		}

		rawToken := parts[1]
		if strings.TrimSpace(rawToken) == "" {
			abortAuthError(c, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := tokens.ValidateToken(rawToken)
		if err != nil || claims.TokenType != "access" {
			abortAuthError(c, http.StatusForbidden, "Invalid token")
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}
