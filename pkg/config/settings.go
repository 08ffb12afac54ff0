package config

import (
	"fmt"
	"net/url"
	"time"
)

// Recognized keys.
const (
	KeyClientBaseURL      = "client.base_url"
	KeyClientTimeout      = "client.timeout"
	KeyClientLoginURL     = "client.login_url"
	KeyClientExemptPaths  = "client.exempt_paths"
	KeyClientLocale       = "client.locale"
	KeyBreakerEnabled     = "client.breaker.enabled"
	KeyBreakerMaxFailures = "client.breaker.max_failures"
	KeyBreakerOpenTimeout = "client.breaker.open_timeout"
	KeyCredentialBackend  = "credential.backend"
	KeyCredentialKey      = "credential.key"
	KeyCredentialFile     = "credential.file"
	KeyRedisAddr          = "redis.addr"
	KeyRedisPrefix        = "redis.prefix"
	KeyKafkaBrokers       = "notify.kafka.brokers"
	KeyKafkaTopic         = "notify.kafka.topic"
	KeyLogLevel           = "log.level"
	KeyBackendPort        = "backend.port"
	KeyBackendJWTSecret   = "backend.jwt_secret"
	KeyBackendTokenTTL    = "backend.token_ttl"
	KeyBackendRateRPS     = "backend.rate.rps"
	KeyBackendRateBurst   = "backend.rate.burst"
	KeyBackendCORSOrigins = "backend.cors.origins"
	KeyTracingEndpoint    = "tracing.endpoint"
	KeyServiceName        = "service_name"
	KeyConfigWatch        = "config.watch"
)

// Credential backends.
const (
	CredentialMemory = "memory"
	CredentialFile   = "file"
	CredentialRedis  = "redis"
)

// Defaults are the built-in values for every key.
func Defaults() map[string]any {
	return map[string]any{
		KeyClientBaseURL:      "http://localhost:8080",
		KeyClientTimeout:      "10s",
		KeyClientLoginURL:     "login.html",
		KeyClientExemptPaths:  []string{"/auth/login", "/auth/register"},
		KeyClientLocale:       "en",
		KeyBreakerEnabled:     false,
		KeyBreakerMaxFailures: 5,
		KeyBreakerOpenTimeout: "30s",
		KeyCredentialBackend:  CredentialMemory,
		KeyCredentialKey:      "token",
		KeyRedisPrefix:        "travelplanner",
		KeyKafkaTopic:         "travelplanner.client.notifications",
		KeyLogLevel:           "info",
		KeyBackendPort:        8080,
		KeyBackendTokenTTL:    "24h",
		KeyBackendRateRPS:     20.0,
		KeyBackendRateBurst:   40,
		KeyBackendCORSOrigins: []string{"*"},
		KeyServiceName:        "travelplanner",
		KeyConfigWatch:        false,
	}
}

// SensitiveKeys are redacted by MaskedSettings.
func SensitiveKeys() []string {
	return []string{KeyBackendJWTSecret}
}

// ClientSettings configures the API client and its collaborators.
type ClientSettings struct {
	BaseURL     string
	Timeout     time.Duration
	LoginURL    string
	ExemptPaths []string
	Locale      string

	BreakerEnabled     bool
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	CredentialBackend string
	CredentialKey     string
	CredentialFile    string
	RedisAddr         string
	RedisPrefix       string

	KafkaBrokers []string
	KafkaTopic   string
}

// ClientSettings reads and validates the client keys.
func (c *Config) ClientSettings() (ClientSettings, error) {
	d := Defaults()
	s := ClientSettings{
		BaseURL:            c.GetStringD(KeyClientBaseURL, d[KeyClientBaseURL].(string)),
		Timeout:            c.GetDurationD(KeyClientTimeout, 10*time.Second),
		LoginURL:           c.GetStringD(KeyClientLoginURL, d[KeyClientLoginURL].(string)),
		ExemptPaths:        c.GetStringSliceD(KeyClientExemptPaths, d[KeyClientExemptPaths].([]string)),
		Locale:             c.GetStringD(KeyClientLocale, "en"),
		BreakerEnabled:     c.GetBoolD(KeyBreakerEnabled, false),
		BreakerMaxFailures: uint32(c.GetIntD(KeyBreakerMaxFailures, 5)),
		BreakerOpenTimeout: c.GetDurationD(KeyBreakerOpenTimeout, 30*time.Second),
		CredentialBackend:  c.GetStringD(KeyCredentialBackend, CredentialMemory),
		CredentialKey:      c.GetStringD(KeyCredentialKey, "token"),
		CredentialFile:     c.GetString(KeyCredentialFile),
		RedisAddr:          c.GetString(KeyRedisAddr),
		RedisPrefix:        c.GetString(KeyRedisPrefix),
		KafkaBrokers:       c.GetStringSliceD(KeyKafkaBrokers, nil),
		KafkaTopic:         c.GetStringD(KeyKafkaTopic, d[KeyKafkaTopic].(string)),
	}

	if u, err := url.Parse(s.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return s, fmt.Errorf("%s: %q is not an absolute URL", KeyClientBaseURL, s.BaseURL)
	}
	if s.Timeout <= 0 {
		return s, fmt.Errorf("%s must be positive", KeyClientTimeout)
	}
	switch s.CredentialBackend {
	case CredentialMemory:
	case CredentialFile:
		if s.CredentialFile == "" {
			return s, fmt.Errorf("%s is required for the file credential backend", KeyCredentialFile)
		}
	case CredentialRedis:
		if s.RedisAddr == "" {
			return s, fmt.Errorf("%s is required for the redis credential backend", KeyRedisAddr)
		}
	default:
		return s, fmt.Errorf("%s: unknown backend %q", KeyCredentialBackend, s.CredentialBackend)
	}
	return s, nil
}

// BackendSettings configures the reference backend.
type BackendSettings struct {
	Port        int
	JWTSecret   string
	TokenTTL    time.Duration
	RateRPS     float64
	RateBurst   int
	CORSOrigins []string
	ServiceName string
}

// BackendSettings reads and validates the backend keys. backend.jwt_secret
// is required.
func (c *Config) BackendSettings() (BackendSettings, error) {
	s := BackendSettings{
		Port:        c.GetIntD(KeyBackendPort, 8080),
		JWTSecret:   c.GetString(KeyBackendJWTSecret),
		TokenTTL:    c.GetDurationD(KeyBackendTokenTTL, 24*time.Hour),
		RateRPS:     c.GetFloat64D(KeyBackendRateRPS, 20),
		RateBurst:   c.GetIntD(KeyBackendRateBurst, 40),
		CORSOrigins: c.GetStringSliceD(KeyBackendCORSOrigins, []string{"*"}),
		ServiceName: c.GetStringD(KeyServiceName, "travelplanner"),
	}
	if err := c.ValidateRequired(KeyBackendJWTSecret); err != nil {
		return s, err
	}
	if s.TokenTTL <= 0 {
		return s, fmt.Errorf("%s must be positive", KeyBackendTokenTTL)
	}
	return s, nil
}
