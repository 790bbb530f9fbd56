package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mobirithm/appkit/internal/client/repositories/credentials"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/i18n"
)

// Config holds runtime settings for the appkit CLI.
type Config struct {
	ServiceName       string `env:"APPKIT_SERVICE_NAME" validate:"required"`
	CredentialBackend string `env:"APPKIT_CREDENTIAL_BACKEND" validate:"oneof=keyring sqlite redis memory"`
	DataDir           string `env:"APPKIT_DATA_DIR" validate:"required"`
	RedisAddr         string `env:"APPKIT_REDIS_ADDR" validate:"required_if=CredentialBackend redis"`
	// Passphrase seals sqlite credentials; prompted for when empty.
	Passphrase string `env:"APPKIT_PASSPHRASE"`

	LogFormat string `env:"APPKIT_LOG_FORMAT" validate:"oneof=text json zap"`
	LogLevel  string `env:"APPKIT_LOG_LEVEL" validate:"oneof=debug info warn error"`
	Locale    string `env:"APPKIT_LOCALE"`

	AppleClientID      string `env:"APPKIT_APPLE_CLIENT_ID"`
	AppleRedirectURL   string `env:"APPKIT_APPLE_REDIRECT_URL" validate:"omitempty,url"`
	GoogleClientID     string `env:"APPKIT_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"APPKIT_GOOGLE_CLIENT_SECRET"`

	RevenueCatAPIKey           string        `env:"APPKIT_REVENUECAT_API_KEY"`
	RevenueCatBaseURL          string        `env:"APPKIT_REVENUECAT_BASE_URL" validate:"omitempty,url"`
	EntitlementRefreshInterval time.Duration `env:"APPKIT_ENTITLEMENT_REFRESH_INTERVAL" validate:"gte=0"`
	PaywallAPIKey              string        `env:"APPKIT_PAYWALL_API_KEY"`

	// AllowFallbackUserID lets third-party sign-in without a user id
	// continue under a random id.
	AllowFallbackUserID bool `env:"APPKIT_ALLOW_FALLBACK_USER_ID"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServiceName = common.DefaultServiceName
	c.CredentialBackend = credentials.BackendKeyring
	c.DataDir = defaultDataDir()
	c.RedisAddr = ""
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.Locale = ""
	c.EntitlementRefreshInterval = 15 * time.Minute
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "appkit")
	}
	return "~/.appkit"
}

// ParsedLocale returns the configured locale, or "" when none is set.
func (c *Config) ParsedLocale() (i18n.Locale, error) {
	if c.Locale == "" {
		return "", nil
	}
	return i18n.ParseLocale(c.Locale)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.ParsedLocale(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then JSON, environment and
// command-line flags found in args (without the program name). Later
// sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, nil); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
