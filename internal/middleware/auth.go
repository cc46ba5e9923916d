package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/auth"
)

const operatorContextKey = "operator"

func OperatorFromContext(c *gin.Context) (string, bool) {
	operator, ok := c.Get(operatorContextKey)
	if !ok {
		return "", false
	}
	value, ok := operator.(string)
	return value, ok && value != ""
}

// RequireAuth guards a route group with the operator bearer token.
func RequireAuth(cfg auth.TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			c.Abort()
			return
		}

		claims, err := auth.VerifyToken(parts[1], cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			c.Abort()
			return
		}

		c.Set(operatorContextKey, claims.Operator)
		c.Next()
	}
}
