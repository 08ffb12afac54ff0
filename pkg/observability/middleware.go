package observability

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware creates a Gin middleware for automatic tracing
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceExternalCall starts a client span for an outgoing call to serviceName.
func TraceExternalCall(ctx context.Context, t Tracing, serviceName, method, url string) (context.Context, trace.Span) {
	return t.StartSpan(ctx, fmt.Sprintf("http.%s %s", serviceName, method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrHTTPMethod.String(method),
			AttrHTTPURL.String(url),
			attribute.String("peer.service", serviceName),
		),
	)
}
