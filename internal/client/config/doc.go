// Package config loads runtime configuration for the appkit CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJSON) selected via flags: -c or -config.
//  3. Environment variables prefixed APPKIT_, after loading an optional
//     .env file from the working directory (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// The result is validated with struct tags before it is returned.
//
// Supported flags
//
//	-backend string     credential backend: keyring, sqlite, redis, memory
//	-data-dir string    directory of the local database
//	-redis string       redis address for the redis backend
//	-log-format string  text, json or zap
//	-log-level string   debug, info, warn, error
//	-locale string      interface language (en, tr, ar, he)
//	-refresh duration   entitlement refresh interval, 0 disables
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "15m" or integer nanoseconds:
//
//	{
//	  "service_name": "com.mobirithm.iOSBoilerplate",
//	  "credential_backend": "sqlite",
//	  "entitlement_refresh_interval": "15m"
//	}
package config
