package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/core/apperror"
	"invoicehub/pkg/logger"
)

// Logger middleware logs one line per request. 5xx responses log at error level, 4xx at warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		if last := c.Errors.Last(); last != nil {
			if appErr, ok := apperror.AsAppError(last.Err); ok {
				kv = append(kv, "error_code", appErr.Code)
			}
		}

		// c.Request carries the user set by Auth by now.
		l := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Errorw("http request", kv...)
		case status >= http.StatusBadRequest:
			l.Warnw("http request", kv...)
		default:
			l.Infow("http request", kv...)
		}
	}
}
