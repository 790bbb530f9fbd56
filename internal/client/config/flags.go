package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/mobirithm/appkit/internal/flagx"
)

var knownFlags = []string{"backend", "data-dir", "redis", "log-format", "log-level", "locale", "refresh"}

// parseFlags populates selected Config fields from command-line flags.
// args is filtered with flagx.FilterArgs first so flags owned by other
// components do not fail parsing.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("appkit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.CredentialBackend, "backend", cfg.CredentialBackend, "credential backend: keyring, sqlite, redis, memory")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory of the local database")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address for the redis backend")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text, json, zap")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "interface language")
	fs.DurationVar(&cfg.EntitlementRefreshInterval, "refresh", cfg.EntitlementRefreshInterval, "entitlement refresh interval, 0 disables")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
