package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/envelope"
	"github.com/milan604/travelplanner-client/pkg/logger"
)

// RecoveryMiddleware logs a panic with its stack and answers with an
// internal_error envelope and HTTP 500.
func RecoveryMiddleware(l logger.LogManager) gin.HandlerFunc {
	if l == nil {
		l = logger.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.With("log_type", "panic", "path", c.Request.URL.Path).
					ErrorFCtx(c.Request.Context(), "panic recovered: %v\n%s", r, string(debug.Stack()))
				envelope.Abort(c, apperr.New(apperr.ErrorCodeInternal))
			}
		}()
		c.Next()
	}
}
