package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSettingsDefaults(t *testing.T) {
	cfg, err := Load(WithDefaults(Defaults()))
	require.NoError(t, err)

	s, err := cfg.ClientSettings()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", s.BaseURL)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.Equal(t, "login.html", s.LoginURL)
	assert.Equal(t, []string{"/auth/login", "/auth/register"}, s.ExemptPaths)
	assert.Equal(t, CredentialMemory, s.CredentialBackend)
	assert.False(t, s.BreakerEnabled)
	assert.Empty(t, s.KafkaBrokers)
}

func TestFileEnvAndFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plannerctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  base_url: http://file:9000
  timeout: 3s
credential:
  backend: file
  file: /tmp/session.json
`), 0o600))

	t.Setenv("PLANNER_NOTIFY_KAFKA_BROKERS", "k1:9092, k2:9092")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyClientLoginURL, "", "")
	require.NoError(t, fs.Parse([]string{"--client.login_url=/signin"}))

	cfg, err := Load(WithDefaults(Defaults()), WithFile(path), WithEnv(EnvPrefix), WithPFlags(fs))
	require.NoError(t, err)

	s, err := cfg.ClientSettings()
	require.NoError(t, err)
	assert.Equal(t, "http://file:9000", s.BaseURL)
	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.Equal(t, "/signin", s.LoginURL)
	assert.Equal(t, CredentialFile, s.CredentialBackend)
	assert.Equal(t, "/tmp/session.json", s.CredentialFile)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, s.KafkaBrokers)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestNameSearchWithoutFileIsFine(t *testing.T) {
	_, err := Load(WithConfigNamePaths("plannerctl", t.TempDir()))
	assert.NoError(t, err)
}

func TestClientSettingsValidation(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{"relative base url", map[string]any{KeyClientBaseURL: "/api"}},
		{"zero timeout", map[string]any{KeyClientTimeout: "0s"}},
		{"file without path", map[string]any{KeyCredentialBackend: CredentialFile}},
		{"redis without addr", map[string]any{KeyCredentialBackend: CredentialRedis}},
		{"unknown backend", map[string]any{KeyCredentialBackend: "cookie"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDefaults(Defaults()))
			require.NoError(t, err)
			for k, v := range tt.set {
				cfg.Set(k, v)
			}
			_, err = cfg.ClientSettings()
			assert.Error(t, err)
		})
	}
}

func TestBackendSettingsRequiresSecretAndMasksIt(t *testing.T) {
	cfg, err := Load(WithDefaults(Defaults()), WithSensitiveKeys(SensitiveKeys()...))
	require.NoError(t, err)

	_, err = cfg.BackendSettings()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyBackendJWTSecret)

	cfg.Set(KeyBackendJWTSecret, "s3cret")
	s, err := cfg.BackendSettings()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", s.JWTSecret)
	assert.Equal(t, 24*time.Hour, s.TokenTTL)
	assert.Equal(t, 8080, s.Port)

	masked := cfg.MaskedSettings()
	assert.Equal(t, "***REDACTED***", masked[KeyBackendJWTSecret])
	assert.Equal(t, "login.html", masked[KeyClientLoginURL])
}

func TestGetStringSliceD(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, cfg.GetStringSliceD("missing", []string{"x"}))

	cfg.Set("list", "a,b")
	assert.Equal(t, []string{"a", "b"}, cfg.GetStringSliceD("list", nil))
}
