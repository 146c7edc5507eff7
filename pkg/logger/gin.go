package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// Middleware injects a request_id scoped logger into both the gin context and
// the request context, then logs a summary line once the handler chain returns.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if uid, ok := c.Get("user_id"); ok {
			attrs = append(attrs, "user_id", uid)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
