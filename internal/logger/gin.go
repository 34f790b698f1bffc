package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// Context keys set by the auth middleware and read back when the request ends.
const (
	FieldUserID   = "user_id"
	FieldUsername = "username"
)

// GinMiddleware tags every request with an id, puts a child logger in the
// request context and logs the outcome.
func GinMiddleware(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := l.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		evt := child.Info()
		if c.Writer.Status() >= 500 {
			evt = child.Error()
		}
		evt = evt.Int("status", c.Writer.Status()).
			Int64("latency_ms", time.Since(start).Milliseconds())
		if id, ok := c.Get(FieldUserID); ok {
			evt = evt.Uint(FieldUserID, id.(uint))
		}
		if name, ok := c.Get(FieldUsername); ok {
			evt = evt.Str(FieldUsername, name.(string))
		}
		evt.Msg("request completed")
	}
}
