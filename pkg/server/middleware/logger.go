package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/logger"
)

const loggerKey = "plannerd_logger"

// AppLoggerMiddleware injects a request-scoped logger into gin.Context
func AppLoggerMiddleware(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := l.With("log_type", "application", "route", c.FullPath(), "request_id", RequestID(c))
		c.Set(loggerKey, reqLogger)
		c.Next()
	}
}

// GetLogger retrieves the request-scoped logger from context. Without one it
// returns a no-op logger.
func GetLogger(c *gin.Context) logger.LogManager {
	if val, ok := c.Get(loggerKey); ok {
		if lm, yes := val.(logger.LogManager); yes {
			return lm
		}
	}
	return logger.NewNop()
}

// AccessLoggerMiddleware logs each request after completion
func AccessLoggerMiddleware(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []any{
			"log_type", "access",
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", latency.Milliseconds(),
			"size", c.Writer.Size(),
		}
		if rid := RequestID(c); rid != "" {
			fields = append(fields, "request_id", rid)
		}
		for _, p := range c.Params {
			fields = append(fields, p.Key, p.Value)
		}

		entry := l.With(fields...)
		switch {
		case status >= 500:
			entry.ErrorF("request completed")
		case status >= 400:
			entry.WarnF("request completed")
		default:
			entry.InfoF("request completed")
		}
	}
}
