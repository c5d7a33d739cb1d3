package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// Gin context keys the request summary reads back after the handler chain.
// company_id and role are set by the auth middleware on protected routes;
// public intake traffic logs without them.
const (
	ctxKeyLogger    = "logger"
	ctxKeyCompanyID = "company_id"
	ctxKeyRole      = "role"
)

// Middleware injects a request-scoped logger and emits one summary line per
// request, tagged with the tenant when the caller is authenticated.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(ctxKeyLogger, reqLogger)

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
			"client_ip", c.ClientIP(),
		}
		if cid := c.GetString(ctxKeyCompanyID); cid != "" {
			attrs = append(attrs, "company_id", cid)
		}
		if role := c.GetString(ctxKeyRole); role != "" {
			attrs = append(attrs, "role", role)
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
	if v, ok := c.Get(ctxKeyLogger); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
