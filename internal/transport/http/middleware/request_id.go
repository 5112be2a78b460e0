// Package middleware holds the gin middleware shared by all routes.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/authline/authline/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates an incoming request id or generates a fresh one.
// The id lands in the request context and the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()
	}
}
