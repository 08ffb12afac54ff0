package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/envelope"
)

// ErrorHandlerMiddleware turns the last error attached with c.Error into an
// envelope response, unless the handler already wrote one.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		if last == nil || last.Err == nil {
			return
		}
		GetLogger(c).WarnFCtx(c.Request.Context(), "request failed: %v", last.Err)
		envelope.HandleError(c, last.Err)
		c.Abort()
	}
}
