// Package common defines shared constants and sentinel errors used across
// storage, auth and integration layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Storage value errors.
	ErrorInvalidFormat = errors.New("invalid item format")

	// Integration errors.
	ErrorNotConfigured = errors.New("not configured")
	ErrorUnsupported   = errors.New("operation not supported")
)
