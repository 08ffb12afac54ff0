// Command plannerd serves the in-memory travel planner backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/milan604/travelplanner-client/pkg/auth"
	"github.com/milan604/travelplanner-client/pkg/backend"
	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/i18n"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/observability"
	"github.com/milan604/travelplanner-client/pkg/server"
	"github.com/milan604/travelplanner-client/pkg/server/middleware"
	"github.com/milan604/travelplanner-client/pkg/validator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "plannerd:", err)
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config.Config, error) {
	fs := pflag.NewFlagSet("plannerd", pflag.ContinueOnError)
	file := fs.StringP("config", "c", "", "config file (yaml, json or toml)")
	fs.Int("port", 8080, "listen port")
	fs.String("jwt-secret", "", "HS256 signing secret")
	fs.Duration("token-ttl", 24*time.Hour, "issued token lifetime")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("tracing-endpoint", "", "OTLP/HTTP collector, e.g. localhost:4318")
	fs.StringSlice("cors-origins", nil, "allowed browser origins (default any)")
	fs.Bool("watch", false, "reload log.level when the config file changes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := []config.Option{
		config.WithDefaults(config.Defaults()),
		config.WithSensitiveKeys(config.SensitiveKeys()...),
		config.WithEnv(config.EnvPrefix),
	}
	if *file != "" {
		opts = append(opts, config.WithFile(*file))
	} else {
		opts = append(opts, config.WithConfigNamePaths("plannerd"))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	for key, flag := range map[string]string{
		config.KeyBackendPort:        "port",
		config.KeyBackendJWTSecret:   "jwt-secret",
		config.KeyBackendTokenTTL:    "token-ttl",
		config.KeyLogLevel:           "log-level",
		config.KeyTracingEndpoint:    "tracing-endpoint",
		config.KeyConfigWatch:        "watch",
		config.KeyBackendCORSOrigins: "cors-origins",
	} {
		if err := cfg.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func run(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	settings, err := cfg.BackendSettings()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logger.LoggerOptions{
		Level:        cfg.GetStringD(config.KeyLogLevel, "info"),
		Encoding:     "json",
		EnableCaller: true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.With("settings", cfg.MaskedSettings()).InfoF("configuration loaded")
	if err := watchConfig(cfg, log); err != nil {
		return err
	}

	obs, err := observability.New(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	tokens, err := auth.NewTokens(settings.JWTSecret, settings.TokenTTL)
	if err != nil {
		return err
	}
	h, err := backend.NewHandler(tokens, backend.WithLogger(log))
	if err != nil {
		return err
	}

	rl := middleware.NewRateLimitConfig(settings.RateRPS > 0, settings.RateRPS, settings.RateBurst, 5*time.Minute)
	defer rl.Stop()

	engine := server.NewEngine(
		server.WithLogger(log),
		server.WithRecovery(true),
		server.WithTracing(settings.ServiceName),
		server.WithCors(middleware.DefaultCorsConfig().WithOrigins(settings.CORSOrigins)),
		server.WithRateLimit(rl),
		server.WithPrometheus(middleware.NewPrometheusCollector("/metrics")),
		server.WithValidator(validator.New()),
		server.WithMiddleware(i18n.Default().GinMiddleware()),
	)
	h.Register(engine)

	return server.Run(ctx, engine,
		server.StartWithConfig(cfg),
		server.StartWithLogger(log),
		server.StartWithShutdownTimeout(10*time.Second),
	)
}

// watchConfig applies log.level changes from the config file while running.
func watchConfig(cfg *config.Config, log logger.LogManager) error {
	if !cfg.GetBool(config.KeyConfigWatch) {
		return nil
	}
	if cfg.ConfigFileUsed() == "" {
		log.WarnF("--watch ignored: no config file in use")
		return nil
	}
	return config.WithWatch(func() {
		level := cfg.GetStringD(config.KeyLogLevel, "info")
		if err := log.SetLogLevel(level); err != nil {
			log.WarnF("config reload: %v", err)
			return
		}
		log.InfoF("config reload: log level %s", level)
	})(cfg)
}
