package paywall

import (
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/i18n"
)

var (
	ErrNotConfigured = errors.New("paywall: not configured")
	ErrInvalidAPIKey = errors.New("paywall: invalid api key")
)

// EventRegistrationError means the placement could not be registered.
type EventRegistrationError struct {
	Event string
	Err   error
}

func (e *EventRegistrationError) Error() string {
	return fmt.Sprintf("paywall: register %s: %v", e.Event, e.Err)
}

func (e *EventRegistrationError) Unwrap() error { return e.Err }

// PresentationError means a paywall could not be shown.
type PresentationError struct {
	Reason string
	Err    error
}

func (e *PresentationError) Error() string {
	if e.Err == nil {
		return "paywall: present: " + e.Reason
	}
	return fmt.Sprintf("paywall: present: %s: %v", e.Reason, e.Err)
}

func (e *PresentationError) Unwrap() error { return e.Err }

// Message renders err for display.
func Message(err error, t *i18n.Translator) string {
	var (
		reg  *EventRegistrationError
		pres *PresentationError
	)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return t.T("paywall.error.notConfigured")
	case errors.Is(err, ErrInvalidAPIKey):
		return t.T("paywall.error.invalidAPIKey")
	case errors.As(err, &reg):
		return t.T("paywall.error.eventRegistration", reg.Event)
	case errors.As(err, &pres):
		return t.T("paywall.error.presentation", pres.Reason)
	default:
		return err.Error()
	}
}
