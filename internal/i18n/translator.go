// Package i18n loads the embedded YAML message catalogs and translates
// message keys for the active locale.
package i18n

import (
	"embed"
	"fmt"
	"sync"

	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Messages maps message keys to printf-style formats.
type Messages map[string]string

func loadMessages(l Locale) (Messages, error) {
	raw, err := localeFS.ReadFile("locales/" + string(l) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", l, err)
	}
	var m Messages
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", l, err)
	}
	return m, nil
}

// Bundle is the compiled catalog for every supported locale. Keys missing
// from a locale are filled in from DefaultLocale.
type Bundle struct {
	cat  *catalog.Builder
	keys map[string]struct{}
}

// LoadBundle reads all embedded catalogs.
func LoadBundle() (*Bundle, error) {
	base, err := loadMessages(DefaultLocale)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		cat:  catalog.NewBuilder(catalog.Fallback(DefaultLocale.Tag())),
		keys: make(map[string]struct{}, len(base)),
	}

	for _, l := range supported {
		msgs := base
		if l != DefaultLocale {
			if msgs, err = loadMessages(l); err != nil {
				return nil, err
			}
		}
		for key, fallback := range base {
			text, ok := msgs[key]
			if !ok || text == "" {
				text = fallback
			}
			if err := b.cat.SetString(l.Tag(), key, text); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", l, key, err)
			}
			b.keys[key] = struct{}{}
		}
	}
	return b, nil
}

// Has reports whether key exists in the catalogs.
func (b *Bundle) Has(key string) bool {
	_, ok := b.keys[key]
	return ok
}

// Translator renders message keys in its current locale. It is safe for
// concurrent use; SetLocale takes effect for subsequent calls.
type Translator struct {
	bundle *Bundle

	mu      sync.RWMutex
	locale  Locale
	printer *message.Printer
}

func NewTranslator(b *Bundle, l Locale) *Translator {
	t := &Translator{bundle: b}
	t.SetLocale(l)
	return t
}

// Default builds a translator over the embedded catalogs in DefaultLocale.
// The catalogs are compiled into the binary, so failure here is a build defect.
func Default() *Translator {
	b, err := LoadBundle()
	if err != nil {
		panic(err)
	}
	return NewTranslator(b, DefaultLocale)
}

func (t *Translator) SetLocale(l Locale) {
	p := message.NewPrinter(l.Tag(), message.Catalog(t.bundle.cat))
	t.mu.Lock()
	t.locale = l
	t.printer = p
	t.mu.Unlock()
}

func (t *Translator) Locale() Locale {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locale
}

func (t *Translator) IsRTL() bool {
	return t.Locale().IsRTL()
}

// T formats the message for key with args. Unknown keys come back unchanged.
func (t *Translator) T(key string, args ...any) string {
	if !t.bundle.Has(key) {
		return key
	}
	t.mu.RLock()
	p := t.printer
	t.mu.RUnlock()
	return p.Sprintf(key, args...)
}
