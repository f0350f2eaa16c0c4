package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeEnvFile(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, DefaultEnvFile, []byte(content), 0o600))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), DefaultEnvFile, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8089", cfg.AuthURL)
	assert.Equal(t, 10*time.Second, cfg.AuthTimeout)
	assert.Equal(t, "127.0.0.1:8089", cfg.ProbeTarget)
	assert.Equal(t, 5*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 2*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, ":8089", cfg.Server.Addr)
	assert.Equal(t, "user:pass", cfg.Server.Users)
	assert.Empty(t, cfg.Server.TokenSecret)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, 10, cfg.Server.RateLimit)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "loginflow", cfg.Tracing.ServiceName)
}

func TestLoad_EnvFileAndOverlay(t *testing.T) {
	fs := writeEnvFile(t, `
# dev settings
AUTH_URL=https://auth.example.com
LOG_FORMAT=json
SERVER_RATE_LIMIT=3
TRACING_ENABLED=true
`)

	cfg, err := Load(fs, DefaultEnvFile, env(map[string]string{
		"LOG_FORMAT":   "TEXT",
		"AUTH_TIMEOUT": "250ms",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", cfg.AuthURL)
	assert.Equal(t, "auth.example.com:443", cfg.ProbeTarget, "probe target follows the auth URL")
	assert.Equal(t, "text", cfg.LogFormat, "the environment wins over the file")
	assert.Equal(t, 250*time.Millisecond, cfg.AuthTimeout)
	assert.Equal(t, 3, cfg.Server.RateLimit)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_ExplicitProbeTarget(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), DefaultEnvFile, env(map[string]string{
		"AUTH_URL":     "http://auth.internal",
		"PROBE_TARGET": "1.1.1.1:53",
	}))
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1:53", cfg.ProbeTarget)

	cfg, err = Load(afero.NewMemMapFs(), DefaultEnvFile, env(map[string]string{"AUTH_URL": "http://auth.internal"}))
	require.NoError(t, err)
	assert.Equal(t, "auth.internal:80", cfg.ProbeTarget)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad duration", map[string]string{"AUTH_TIMEOUT": "soon"}, "AUTH_TIMEOUT"},
		{"bad integer", map[string]string{"SERVER_RATE_LIMIT": "many"}, "SERVER_RATE_LIMIT"},
		{"bad bool", map[string]string{"TRACING_ENABLED": "maybe"}, "TRACING_ENABLED"},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}, "LogFormat"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "loud"}, "LogLevel"},
		{"zero rate limit", map[string]string{"SERVER_RATE_LIMIT": "0"}, "RateLimit"},
		{"negative timeout", map[string]string{"PROBE_TIMEOUT": "-1s"}, "ProbeTimeout"},
		{"not a url", map[string]string{"AUTH_URL": "::nope"}, "AuthURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(afero.NewMemMapFs(), DefaultEnvFile, env(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	fs := writeEnvFile(t, "AUTH_URL='unterminated\n")
	_, err := Load(fs, DefaultEnvFile, env(nil))
	assert.Error(t, err)
}
