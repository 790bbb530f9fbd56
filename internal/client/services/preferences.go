// Package services contains application services for the appkit client.
// This file defines the preferences service: the user's interface language
// and color theme, persisted in the local preferences table.
package services

import (
	"context"
	"fmt"

	"github.com/mobirithm/appkit/internal/client/repositories/preferences"
	"github.com/mobirithm/appkit/internal/i18n"
	"github.com/mobirithm/appkit/internal/logging"
)

const (
	KeyLocale    = "app_locale"
	KeyThemeMode = "app_theme_mode"
)

// ThemeMode is the color scheme preference.
type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

func ParseThemeMode(s string) (ThemeMode, error) {
	switch m := ThemeMode(s); m {
	case ThemeSystem, ThemeLight, ThemeDark:
		return m, nil
	default:
		return "", fmt.Errorf("unknown theme mode %q", s)
	}
}

// Next is the mode a toggle switches to: dark from system or light, light
// from dark.
func (m ThemeMode) Next() ThemeMode {
	if m == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// PreferencesService reads and writes user preferences.
//
// Contract:
//   - Locale/Theme never fail on missing or unreadable values; they return
//     the defaults (i18n.DefaultLocale, ThemeSystem).
//   - SetLocale/SetTheme persist the value and, for the locale, switch the
//     bound translator.
//   - ToggleTheme persists and returns the new mode.
type PreferencesService interface {
	Locale(ctx context.Context) i18n.Locale
	SetLocale(ctx context.Context, l i18n.Locale) error
	Theme(ctx context.Context) ThemeMode
	SetTheme(ctx context.Context, m ThemeMode) error
	ToggleTheme(ctx context.Context) (ThemeMode, error)
}

type preferencesService struct {
	repo preferences.Repository
	tr   *i18n.Translator
	log  logging.Logger
}

// NewPreferencesService binds the repository and, optionally, a translator
// that follows locale changes.
func NewPreferencesService(repo preferences.Repository, tr *i18n.Translator, log logging.Logger) PreferencesService {
	if log == nil {
		log = logging.Nop{}
	}
	return &preferencesService{repo: repo, tr: tr, log: log.With("component", "preferences")}
}

func (s *preferencesService) get(ctx context.Context, key string) string {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "failed to read preference", "key", key, "error", err)
		return ""
	}
	return string(v)
}

func (s *preferencesService) Locale(ctx context.Context) i18n.Locale {
	raw := s.get(ctx, KeyLocale)
	if raw == "" {
		return i18n.DefaultLocale
	}
	l, err := i18n.ParseLocale(raw)
	if err != nil {
		s.log.Warn(ctx, "ignoring stored locale", "value", raw, "error", err)
		return i18n.DefaultLocale
	}
	return l
}

func (s *preferencesService) SetLocale(ctx context.Context, l i18n.Locale) error {
	if err := s.repo.Set(ctx, KeyLocale, []byte(l)); err != nil {
		return fmt.Errorf("save locale: %w", err)
	}
	if s.tr != nil {
		s.tr.SetLocale(l)
	}
	s.log.Info(ctx, "locale changed", "locale", string(l), "rtl", l.IsRTL())
	return nil
}

func (s *preferencesService) Theme(ctx context.Context) ThemeMode {
	raw := s.get(ctx, KeyThemeMode)
	if raw == "" {
		return ThemeSystem
	}
	m, err := ParseThemeMode(raw)
	if err != nil {
		s.log.Warn(ctx, "ignoring stored theme", "value", raw)
		return ThemeSystem
	}
	return m
}

func (s *preferencesService) SetTheme(ctx context.Context, m ThemeMode) error {
	if _, err := ParseThemeMode(string(m)); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, KeyThemeMode, []byte(m)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	s.log.Info(ctx, "theme changed", "theme", string(m))
	return nil
}

func (s *preferencesService) ToggleTheme(ctx context.Context) (ThemeMode, error) {
	next := s.Theme(ctx).Next()
	if err := s.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
