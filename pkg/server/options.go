package server

import (
	"net"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/server/middleware"
	"github.com/milan604/travelplanner-client/pkg/validator"
)

// StartOption configures Start behavior (functional options)
type StartOption func(*startOptions)

type startOptions struct {
	cfg    *config.Config
	logger logger.LogManager

	// server-level: graceful shutdown timeout
	shutdownTimeout time.Duration

	// TLS
	tlsCertFile string
	tlsKeyFile  string
	addr        string

	listener net.Listener
}

// StartWithConfig passes config to the server startup
func StartWithConfig(c *config.Config) StartOption {
	return func(o *startOptions) { o.cfg = c }
}

// StartWithLogger passes a logger
func StartWithLogger(l logger.LogManager) StartOption {
	return func(o *startOptions) { o.logger = l }
}

// StartWithShutdownTimeout custom shutdown timeout
func StartWithShutdownTimeout(d time.Duration) StartOption {
	return func(o *startOptions) { o.shutdownTimeout = d }
}

// StartWithAddr override listen address (host:port)
func StartWithAddr(addr string) StartOption {
	return func(o *startOptions) { o.addr = addr }
}

// StartWithListener serves on an already bound listener; the address options are ignored.
func StartWithListener(ln net.Listener) StartOption {
	return func(o *startOptions) { o.listener = ln }
}

// StartWithTLS enables TLS with cert/key files
func StartWithTLS(certFile, keyFile string) StartOption {
	return func(o *startOptions) {
		o.tlsCertFile = certFile
		o.tlsKeyFile = keyFile
	}
}

// EngineOption configures NewEngine: logger, custom middleware, recovery
// toggle, CORS config, rate limiting, metrics and tracing.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger          logger.LogManager
	recovery        bool
	corsConfig      middleware.CorsConfig
	prometheus      *middleware.PrometheusCollector
	rateLimitConfig *middleware.RateLimitConfig
	tracingService  string
	validator       *validator.Validator
	addMiddleware   []gin.HandlerFunc
}

// Enables rate limiting with custom parameters
func WithRateLimit(cfg *middleware.RateLimitConfig) EngineOption {
	return func(e *engineOptions) {
		e.rateLimitConfig = cfg
	}
}

// Engine option helpers
func WithLogger(l logger.LogManager) EngineOption {
	return func(e *engineOptions) { e.logger = l }
}

func WithRecovery(enabled bool) EngineOption {
	return func(e *engineOptions) { e.recovery = enabled }
}

func WithCors(c middleware.CorsConfig) EngineOption {
	return func(e *engineOptions) { e.corsConfig = c }
}

// WithPrometheus collects request metrics into pc and serves them on pc.MetricsPath.
func WithPrometheus(pc *middleware.PrometheusCollector) EngineOption {
	return func(e *engineOptions) { e.prometheus = pc }
}

// WithTracing adds otelgin server spans named after serviceName.
func WithTracing(serviceName string) EngineOption {
	return func(e *engineOptions) { e.tracingService = serviceName }
}

// WithValidator makes vi available to handlers through middleware.GetValidator.
func WithValidator(vi *validator.Validator) EngineOption {
	return func(e *engineOptions) { e.validator = vi }
}

func WithMiddleware(m ...gin.HandlerFunc) EngineOption {
	return func(e *engineOptions) { e.addMiddleware = append(e.addMiddleware, m...) }
}
