package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"linkup/tools/security"
)

// CtxUserIDKey is where Auth stores the verified caller id.
const CtxUserIDKey = "userID"

// Auth verifies the Bearer token and stores the caller's user id in the
// request context. Requests without a valid token are rejected before the
// handler runs.
func Auth(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing token",
			})
			return
		}
		userID, err := security.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid token",
			})
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the id Auth stored; empty when the route skipped Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
