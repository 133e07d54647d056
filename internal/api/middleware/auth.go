// Package middleware provides HTTP middleware for the Gin router.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the request-context key under which the authenticated user id
// is stored.
const UserIDKey = "user_id"

// BearerAuth extracts the user id from the Authorization header, format
// "Bearer <user-id>". Token issuance and verification belong to the
// authentication collaborator; this engine only needs a stable non-empty
// user id for vote idempotency, so the middleware accepts the bearer value
// as-is.
func BearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, parts[1])
		c.Next()
	}
}

// GetUserID retrieves the user id previously set by BearerAuth. Only valid
// on routes behind that middleware.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(UserIDKey)
	id, _ := userID.(string)
	return id
}
