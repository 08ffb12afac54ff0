package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment prefix: PLANNER_CLIENT_BASE_URL overrides
// client.base_url.
const EnvPrefix = "PLANNER"

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	sensitiveKeys map[string]struct{}
	onChange      func()
	searchFile    bool
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance. Use options to customize behavior.
// Example:
//
//	cfg := config.New(
//	  config.WithDefaults(config.Defaults()),
//	  config.WithFile("plannerctl.yaml"),
//	  config.WithEnv(config.EnvPrefix),
//	  config.WithPFlags(flags),
//	)
func New(opts ...Option) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Load is New with the error returned instead of exiting. A missing config
// file found by name search is not an error; a missing explicit file is.
func Load(opts ...Option) (*Config, error) {
	cfg := &Config{
		Viper:         viper.New(),
		sensitiveKeys: map[string]struct{}{},
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	if err := cfg.readConfigIfPossible(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readConfigIfPossible() error {
	if c.ConfigFileUsed() != "" {
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", c.ConfigFileUsed(), err)
		}
		return nil
	}
	if !c.searchFile {
		return nil
	}
	err := c.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

/* ---------------------------
   Options
----------------------------*/

// WithDefaults sets default values (applied first)
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) error {
		for k, v := range defaults {
			c.SetDefault(k, v)
		}
		return nil
	}
}

// WithFile sets an exact config file (absolute or relative).
// viper will use SetConfigFile(path) so the extension determines type.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext != "" {
			c.SetConfigType(ext)
		}
		return nil
	}
}

// WithConfigNamePaths sets config name (without ext) and search paths.
func WithConfigNamePaths(name string, paths ...string) Option {
	return func(c *Config) error {
		if name != "" {
			c.SetConfigName(name)
		}
		if len(paths) == 0 {
			paths = []string{".", "./env", "/etc/travelplanner"}
		}
		for _, p := range paths {
			c.AddConfigPath(p)
		}
		c.searchFile = true
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "PLANNER" means PLANNER_LOG_LEVEL will override log.level.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds a pflag.FlagSet to viper. If flags are nil, we bind the default command line.
func WithPFlags(flags *pflag.FlagSet) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		return c.BindPFlags(flags)
	}
}

// WithWatch enables hot-reload. onChange will be called after a successful reload.
func WithWatch(onChange func()) Option {
	return func(c *Config) error {
		c.onChange = onChange
		c.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("config: file changed: %s", e.Name)
			if c.onChange != nil {
				c.onChange()
			}
		})
		c.WatchConfig()
		return nil
	}
}

// WithSensitiveKeys registers keys which should be redacted when printing/logging.
func WithSensitiveKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.sensitiveKeys[strings.ToLower(k)] = struct{}{}
		}
		return nil
	}
}

/* ---------------------------
   Typed getters with defaults
----------------------------*/

// GetStringD returns string or def
func (c *Config) GetStringD(key, def string) string {
	if val := c.GetString(key); val != "" {
		return val
	}
	return def
}

// GetIntD returns int or def
func (c *Config) GetIntD(key string, def int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}
	return def
}

// GetFloat64D returns float64 or def
func (c *Config) GetFloat64D(key string, def float64) float64 {
	if c.IsSet(key) {
		return c.GetFloat64(key)
	}
	return def
}

// GetBoolD returns bool or def
func (c *Config) GetBoolD(key string, def bool) bool {
	if c.IsSet(key) {
		return c.GetBool(key)
	}
	return def
}

// GetDurationD returns time.Duration or def
func (c *Config) GetDurationD(key string, def time.Duration) time.Duration {
	if c.IsSet(key) {
		return c.GetDuration(key)
	}
	return def
}

// GetStringSliceD returns a string slice or def. A single comma separated
// string (as env vars and flags deliver it) is split.
func (c *Config) GetStringSliceD(key string, def []string) []string {
	if !c.IsSet(key) {
		return def
	}
	var out []string
	for _, v := range c.GetStringSlice(key) {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

/* ---------------------------
   Validation & Utilities
----------------------------*/

// ValidateRequired ensures keys exist and are non-empty.
func (c *Config) ValidateRequired(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.IsSet(k) || c.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %v", strings.Join(missing, ", "))
	}
	return nil
}

// MaskedSettings returns every effective key with sensitive values redacted.
// Keys are flattened ("backend.jwt_secret").
func (c *Config) MaskedSettings() map[string]any {
	out := map[string]any{}
	for _, k := range c.AllKeys() {
		if _, ok := c.sensitiveKeys[k]; ok {
			out[k] = "***REDACTED***"
			continue
		}
		out[k] = c.Get(k)
	}
	return out
}

// Print prints all settings to stdout with optional masking for sensitive keys.
func (c *Config) Print(mask bool) {
	keys := c.AllKeys()
	sort.Strings(keys)
	masked := c.MaskedSettings()
	for _, k := range keys {
		v := c.Get(k)
		if mask {
			v = masked[k]
		}
		fmt.Printf("%s = %v\n", k, v)
	}
}
