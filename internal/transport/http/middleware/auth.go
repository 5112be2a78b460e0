package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/authline/authline/internal/infra/security"
)

const accountIDKey = "account_id"

// RequireAuth validates the bearer token and stashes the account id in the
// gin context. Absent, malformed, and expired tokens all produce the same
// 401 body so callers cannot distinguish token states.
func RequireAuth(sessions *security.SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c)
			return
		}

		claims, err := sessions.Parse(token)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(accountIDKey, claims.AccountID)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": "unauthorized",
	})
}

// AccountID returns the authenticated account id set by RequireAuth.
func AccountID(c *gin.Context) string {
	id, _ := c.Get(accountIDKey)
	s, _ := id.(string)
	return s
}
