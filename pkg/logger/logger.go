package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "requestID"
	OperationKey ContextKey = "operation"
)

func init() {
	RegisterContextKey(RequestIDKey, "request_id")
	RegisterContextKey(OperationKey, "operation")
}

type LogManager interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	DebugF(format string, args ...any)
	InfoF(format string, args ...any)
	WarnF(format string, args ...any)
	ErrorF(format string, args ...any)

	DebugFCtx(ctx context.Context, format string, args ...any)
	InfoFCtx(ctx context.Context, format string, args ...any)
	WarnFCtx(ctx context.Context, format string, args ...any)
	ErrorFCtx(ctx context.Context, format string, args ...any)

	With(keyValues ...any) LogManager

	Sync() error
	SetLogLevel(level string) error
}

// LoggerOptions for custom configuration
type LoggerOptions struct {
	Level        string
	Encoding     string // "json" or "console"
	OutputPaths  []string
	ErrorPaths   []string
	EnableCaller bool
	EnableStack  bool
	TimeFormat   string
}

// NewLogger creates a zap backed LogManager from options.
func NewLogger(opts LoggerOptions) (LogManager, error) {
	atomicLevel := zap.NewAtomicLevel()

	if err := atomicLevel.UnmarshalText([]byte(opts.Level)); err != nil {
		atomicLevel.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:       "time",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			if opts.TimeFormat != "" {
				enc.AppendString(t.Format(opts.TimeFormat))
			} else {
				enc.AppendString(t.Format(time.RFC3339))
			}
		},
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	if opts.Encoding == "" {
		opts.Encoding = "console"
	}
	if opts.Encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if len(opts.OutputPaths) == 0 {
		opts.OutputPaths = []string{"stderr"}
	}
	if len(opts.ErrorPaths) == 0 {
		opts.ErrorPaths = []string{"stderr"}
	}
	if !opts.EnableCaller {
		encoderCfg.CallerKey = ""
	}

	cfg := zap.Config{
		Level:            atomicLevel,
		Development:      opts.Level == "debug",
		Encoding:         opts.Encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      opts.OutputPaths,
		ErrorOutputPaths: opts.ErrorPaths,
	}

	zapLogger, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}

	if opts.EnableStack {
		zapLogger = zapLogger.WithOptions(zap.AddStacktrace(zap.WarnLevel))
	}

	return &logger{
		Log:         zapLogger.Sugar(),
		atomicLevel: atomicLevel,
	}, nil
}

// MustNewDefaultLogger creates a console logger at info level or exits.
func MustNewDefaultLogger() LogManager {
	logger, err := NewLogger(LoggerOptions{
		Level:        "info",
		Encoding:     "console",
		EnableCaller: true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	return logger
}

// NewNop returns a LogManager that discards everything.
func NewNop() LogManager {
	return FromZap(zap.NewNop())
}

// FromZap wraps an existing zap logger, e.g. one built on zaptest/observer.
func FromZap(z *zap.Logger) LogManager {
	return &logger{
		Log:         z.Sugar(),
		atomicLevel: zap.NewAtomicLevelAt(z.Level()),
	}
}

// WithRequestID stores a request id for the *FCtx helpers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithOperation stores the logical operation name (e.g. "GET /api/travel-plans").
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}
