package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// maxRequestIDLen bounds caller-supplied ids so they cannot bloat every log line.
const maxRequestIDLen = 128

// RequestID is a Gin middleware that tags each request with an identifier.
//
// An X-Request-ID sent by the caller (such as the dashboard client) is reused so
// both sides log the same id; otherwise a new UUID v4 is generated. The id is
// stored under RequestIDKey and echoed in the X-Request-ID response header.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID())
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		c.Next()
	}
}
