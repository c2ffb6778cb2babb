package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/rs/zerolog"
)

// RequestLogger is a Gin middleware that attaches a request-scoped logger to the
// request context and logs one line per request once it completes.
//
// Handlers and services reach the scoped logger through logger.Ctx(ctx); every
// line they write carries the request_id set by RequestID().
//
// The completion line is logged at error level for 5xx, warn for 4xx and info otherwise.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	{"level":"info","request_id":"123e4567-...","method":"GET","path":"/api/stock-data","status":200,"latency_ms":15,"message":"http_request"}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		rid, _ := c.Get(RequestIDKey)
		scoped := logger.L().With().Str("request_id", toString(rid)).Logger()
		c.Request = c.Request.WithContext(scoped.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = scoped.Error()
		case status >= 400:
			ev = scoped.Warn()
		default:
			ev = scoped.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
