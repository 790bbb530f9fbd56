package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale is one of the languages the app ships catalogs for.
type Locale string

const (
	English Locale = "en"
	Turkish Locale = "tr"
	Arabic  Locale = "ar"
	Hebrew  Locale = "he"
)

// DefaultLocale is used when nothing was chosen yet and as the fallback
// for keys missing from another catalog.
const DefaultLocale = English

var supported = []Locale{English, Turkish, Arabic, Hebrew}

// Supported lists the locales in display order.
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// ParseLocale accepts a BCP 47 tag ("tr", "he-IL", "ar_SA") and returns the
// supported locale with the same base language.
func ParseLocale(s string) (Locale, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", s, err)
	}
	base, _ := tag.Base()
	for _, l := range supported {
		if string(l) == base.String() {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported locale %q", s)
}

// Tag returns the language tag of l.
func (l Locale) Tag() language.Tag {
	return language.Make(string(l))
}

// IsRTL reports whether text in l is laid out right to left.
func (l Locale) IsRTL() bool {
	return l == Arabic || l == Hebrew
}

// DisplayName is the language name in that language.
func (l Locale) DisplayName() string {
	switch l {
	case English:
		return "English"
	case Turkish:
		return "Türkçe"
	case Arabic:
		return "العربية"
	case Hebrew:
		return "עברית"
	default:
		return string(l)
	}
}

// Direction is "rtl" or "ltr".
func (l Locale) Direction() string {
	if l.IsRTL() {
		return "rtl"
	}
	return "ltr"
}
