package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/milan604/travelplanner-client/pkg/apiclient"
	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/navigate"
	"github.com/milan604/travelplanner-client/pkg/notify"
	"github.com/milan604/travelplanner-client/pkg/observability"
	"github.com/milan604/travelplanner-client/pkg/planner"
)

// app is everything a command needs.
type app struct {
	cfg     *config.Config
	log     logger.LogManager
	out     io.Writer
	store   credential.Store
	client  *apiclient.Client
	planner *planner.Service
	metrics *prometheus.Registry
	closers []func() error
}

var flagKeys = map[string]string{
	config.KeyClientBaseURL:     "base-url",
	config.KeyClientTimeout:     "timeout",
	config.KeyCredentialBackend: "store",
	config.KeyCredentialFile:    "token-file",
	config.KeyRedisAddr:         "redis-addr",
	config.KeyClientLocale:      "locale",
	config.KeyLogLevel:          "log-level",
	config.KeyKafkaBrokers:      "kafka-brokers",
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "travelplanner", "credentials.json")
}

func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	defaults := config.Defaults()
	// a CLI session has to survive the process
	defaults[config.KeyCredentialBackend] = config.CredentialFile
	defaults[config.KeyCredentialFile] = defaultTokenFile()
	defaults[config.KeyLogLevel] = "warn"

	opts := []config.Option{
		config.WithDefaults(defaults),
		config.WithEnv(config.EnvPrefix),
	}
	if file, _ := fs.GetString("config"); file != "" {
		opts = append(opts, config.WithFile(file))
	} else {
		opts = append(opts, config.WithConfigNamePaths("plannerctl"))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	for key, name := range flagKeys {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if err := cfg.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

func openStore(s config.ClientSettings) (credential.Store, func() error, error) {
	switch s.CredentialBackend {
	case config.CredentialFile:
		return credential.NewFileStore(s.CredentialFile, s.CredentialKey), nil, nil
	case config.CredentialRedis:
		rdb := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
		return credential.NewRedisStore(rdb, s.RedisPrefix, s.CredentialKey), rdb.Close, nil
	case config.CredentialMemory:
		return credential.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown credential backend %q", s.CredentialBackend)
}

func newApp(ctx context.Context, fs *pflag.FlagSet, out io.Writer) (*app, error) {
	cfg, err := loadConfig(fs)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.ClientSettings()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(logger.LoggerOptions{
		Level:    cfg.GetStringD(config.KeyLogLevel, "warn"),
		Encoding: "console",
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, out: out, metrics: prometheus.NewRegistry()}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	store, closeStore, err := openStore(settings)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	a.store = store

	notifier := notify.Notifier(notify.NewLogNotifier(log))
	if len(settings.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(notify.NewKafkaWriter(settings.KafkaBrokers, settings.KafkaTopic), notify.WithKafkaLogger(log))
		a.closers = append(a.closers, kn.Close)
		notifier = notify.Multi(notifier, kn)
	}

	obs, err := observability.New(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return obs.Shutdown(context.Background()) })

	client, err := apiclient.NewFromSettings(settings, store, log,
		apiclient.WithNotifier(notifier),
		apiclient.WithNavigator(navigate.NewLogNavigator(log, out)),
		apiclient.WithClientTracing(obs),
		apiclient.WithMetrics(observability.NewClientMetrics(a.metrics)),
	)
	if err != nil {
		return nil, err
	}
	a.client = client
	a.planner = planner.New(client, store, planner.WithLogger(log))
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeMetrics dumps the client series in the Prometheus text format.
func (a *app) writeMetrics(w io.Writer) error {
	mfs, err := a.metrics.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
