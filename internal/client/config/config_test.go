package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, common.DefaultServiceName, c.ServiceName)
	assert.Equal(t, "keyring", c.CredentialBackend)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 15*time.Minute, c.EntitlementRefreshInterval)
	assert.NotEmpty(t, c.DataDir)
	assert.False(t, c.AllowFallbackUserID)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.CredentialBackend = "vault" }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.CredentialBackend = "redis" }, wantErr: true},
		{name: "redis with addr", mutate: func(c *Config) { c.CredentialBackend = "redis"; c.RedisAddr = "127.0.0.1:6379" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
		{name: "empty service", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "bad revenuecat url", mutate: func(c *Config) { c.RevenueCatBaseURL = "not a url" }, wantErr: true},
		{name: "negative refresh", mutate: func(c *Config) { c.EntitlementRefreshInterval = -time.Second }, wantErr: true},
		{name: "unsupported locale", mutate: func(c *Config) { c.Locale = "de" }, wantErr: true},
		{name: "supported locale", mutate: func(c *Config) { c.Locale = "he" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParsedLocale(t *testing.T) {
	c := Config{}
	l, err := c.ParsedLocale()
	require.NoError(t, err)
	assert.Empty(t, l)

	c.Locale = "tr_TR"
	l, err = c.ParsedLocale()
	require.NoError(t, err)
	assert.Equal(t, i18n.Turkish, l)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"credential_backend": "sqlite",
		"log_level":          "debug",
		"data_dir":           filepath.Join(dir, "data"),
	})

	t.Chdir(dir)
	t.Setenv("APPKIT_LOG_LEVEL", "warn")
	t.Setenv("APPKIT_REVENUECAT_API_KEY", "appl_env")

	cfg, err := LoadConfig([]string{"-c", path, "-log-level", "error"})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.CredentialBackend)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, "appl_env", cfg.RevenueCatAPIKey)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APPKIT_PAYWALL_API_KEY=pk_dotenv\n"), 0o600))
	t.Chdir(dir)
	// registered so the variable godotenv exports is removed afterwards
	t.Setenv("APPKIT_PAYWALL_API_KEY", "")
	require.NoError(t, os.Unsetenv("APPKIT_PAYWALL_API_KEY"))

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "pk_dotenv", cfg.PaywallAPIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig([]string{"-backend", "vault"})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}
