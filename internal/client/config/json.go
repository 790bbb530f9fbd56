package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mobirithm/appkit/internal/flagx"
	"github.com/mobirithm/appkit/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "empty" so only present keys override.
type JSONConfig struct {
	ServiceName                *string         `json:"service_name"`
	CredentialBackend          *string         `json:"credential_backend"`
	DataDir                    *string         `json:"data_dir"`
	RedisAddr                  *string         `json:"redis_addr"`
	LogFormat                  *string         `json:"log_format"`
	LogLevel                   *string         `json:"log_level"`
	Locale                     *string         `json:"locale"`
	AppleClientID              *string         `json:"apple_client_id"`
	AppleRedirectURL           *string         `json:"apple_redirect_url"`
	GoogleClientID             *string         `json:"google_client_id"`
	GoogleClientSecret         *string         `json:"google_client_secret"`
	RevenueCatAPIKey           *string         `json:"revenuecat_api_key"`
	RevenueCatBaseURL          *string         `json:"revenuecat_base_url"`
	EntitlementRefreshInterval *timex.Duration `json:"entitlement_refresh_interval"`
	PaywallAPIKey              *string         `json:"paywall_api_key"`
	AllowFallbackUserID        *bool           `json:"allow_fallback_user_id"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays cfg with the JSON file named by -c/-config in args.
// No flag means no change. The passphrase is never read from the file.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.ServiceName, jc.ServiceName)
	setString(&cfg.CredentialBackend, jc.CredentialBackend)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.Locale, jc.Locale)
	setString(&cfg.AppleClientID, jc.AppleClientID)
	setString(&cfg.AppleRedirectURL, jc.AppleRedirectURL)
	setString(&cfg.GoogleClientID, jc.GoogleClientID)
	setString(&cfg.GoogleClientSecret, jc.GoogleClientSecret)
	setString(&cfg.RevenueCatAPIKey, jc.RevenueCatAPIKey)
	setString(&cfg.RevenueCatBaseURL, jc.RevenueCatBaseURL)
	setString(&cfg.PaywallAPIKey, jc.PaywallAPIKey)
	if jc.EntitlementRefreshInterval != nil {
		cfg.EntitlementRefreshInterval = jc.EntitlementRefreshInterval.Duration
	}
	if jc.AllowFallbackUserID != nil {
		cfg.AllowFallbackUserID = *jc.AllowFallbackUserID
	}
	return nil
}
