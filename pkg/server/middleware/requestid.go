package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/milan604/travelplanner-client/pkg/logger"
)

// default header names
const (
	HeaderRequestID = "X-Request-ID"
)

type RequestIDConfig struct {
	HeaderName string
	// If true, accept incoming request id header; otherwise always generate new
	AllowIncoming bool
}

func defaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		HeaderName:    HeaderRequestID,
		AllowIncoming: true,
	}
}

// RequestIDMiddleware returns a Gin middleware that injects request id in context and header
func RequestIDMiddleware(opts ...RequestIDConfig) gin.HandlerFunc {
	cfg := defaultRequestIDConfig()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	return func(c *gin.Context) {
		var reqID string
		if cfg.AllowIncoming {
			reqID = c.GetHeader(cfg.HeaderName)
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(string(logger.RequestIDKey), reqID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), reqID))
		c.Writer.Header().Set(cfg.HeaderName, reqID)
		c.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(string(logger.RequestIDKey))
}
