package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/observability"
	"github.com/milan604/travelplanner-client/pkg/server/middleware"
	"github.com/milan604/travelplanner-client/pkg/version"
)

// NewEngine creates a Gin engine with recommended middleware ordering and modular options.
func NewEngine(opts ...EngineOption) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	var opt engineOptions
	for _, o := range opts {
		o(&opt)
	}

	logMgr := opt.logger
	if logMgr == nil {
		logMgr = logger.MustNewDefaultLogger()
	}

	// 1. Recovery wraps everything that follows
	if opt.recovery {
		engine.Use(middleware.RecoveryMiddleware(logMgr))
	}

	// 2. Request ID
	engine.Use(middleware.RequestIDMiddleware())

	// 3. Tracing (optional)
	if opt.tracingService != "" {
		engine.Use(observability.GinMiddleware(opt.tracingService))
	}

	// 4. Access and app loggers
	engine.Use(middleware.AccessLoggerMiddleware(logMgr))
	engine.Use(middleware.AppLoggerMiddleware(logMgr))

	// 5. CORS (optional)
	if opt.corsConfig.Enabled {
		engine.Use(middleware.CORSMiddleware(opt.corsConfig))
	}

	// 6. Prometheus (optional)
	if opt.prometheus != nil {
		engine.Use(opt.prometheus.PrometheusMiddleware())
		opt.prometheus.RegisterMetricsEndpoint(engine)
	}

	// 7. Rate Limiting (optional)
	if opt.rateLimitConfig != nil && opt.rateLimitConfig.Enabled {
		engine.Use(opt.rateLimitConfig.Middleware())
	}

	// 8. Validator
	if opt.validator != nil {
		engine.Use(middleware.ValidatorMiddleware(opt.validator))
	}

	// 9. Error Handler
	engine.Use(middleware.ErrorHandlerMiddleware())

	// 10. User-provided middlewares
	for _, m := range opt.addMiddleware {
		engine.Use(m)
	}

	return engine
}

func resolveAddress(so *startOptions) string {
	addr := so.addr
	if addr == "" && so.cfg != nil {
		addr = fmt.Sprintf(":%d", so.cfg.GetIntD(config.KeyBackendPort, 8080))
	}
	if addr == "" {
		addr = ":8080"
	}
	return addr
}

func serviceBanner(addr string, cfg *config.Config) string {
	name := "plannerd"
	if cfg != nil {
		name = cfg.GetStringD(config.KeyServiceName, name)
	}
	info := version.Info()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("\n==============================\n")
	fmt.Fprintf(&b, " Service: %s\n", name)
	b.WriteString("------------------------------\n")
	for _, k := range keys {
		if info[k] != "" {
			fmt.Fprintf(&b, " %-8s %s\n", k+":", info[k])
		}
	}
	b.WriteString("------------------------------\n")
	fmt.Fprintf(&b, " Listening on: %s\n", addr)
	b.WriteString("==============================\n")
	return b.String()
}

func serve(srv *http.Server, ln net.Listener, so *startOptions) error {
	if so.tlsCertFile != "" && so.tlsKeyFile != "" {
		if _, err := os.Stat(so.tlsCertFile); err != nil {
			return fmt.Errorf("tls cert file: %w", err)
		}
		if _, err := os.Stat(so.tlsKeyFile); err != nil {
			return fmt.Errorf("tls key file: %w", err)
		}
		so.logger.InfoF("server started (TLS)")
		return srv.ServeTLS(ln, so.tlsCertFile, so.tlsKeyFile)
	}
	so.logger.InfoF("server started")
	return srv.Serve(ln)
}

func shutdown(srv *http.Server, so *startOptions) error {
	so.logger.InfoF("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), so.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		so.logger.ErrorF("server shutdown error: %v", err)
		return err
	}
	so.logger.InfoF("server stopped gracefully")
	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts it down
// gracefully. Blocks until shutdown or error.
func Start(engine *gin.Engine, opts ...StartOption) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, engine, opts...)
}

// Run is Start with the shutdown trigger supplied by ctx.
func Run(ctx context.Context, engine *gin.Engine, opts ...StartOption) error {
	so := &startOptions{shutdownTimeout: 15 * time.Second}
	for _, o := range opts {
		o(so)
	}
	if so.logger == nil {
		so.logger = logger.NewNop()
	}

	ln := so.listener
	if ln == nil {
		addr := resolveAddress(so)
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			so.logger.ErrorF("cannot listen on %s: %v", addr, err)
			return err
		}
	}

	srv := &http.Server{
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	fmt.Print(serviceBanner(ln.Addr().String(), so.cfg))

	errCh := make(chan error, 1)
	go func() { errCh <- serve(srv, ln, so) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		so.logger.ErrorF("serve error: %v", err)
		return err
	case <-ctx.Done():
		return shutdown(srv, so)
	}
}
