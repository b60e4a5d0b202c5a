package i18n

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Config captures locale defaults.
type Config struct {
	DefaultLocale string
}

// Loader reads locale dictionaries from theme trees. Dictionaries are cached
// per store, theme and locale until invalidated; concurrent loads of the
// same dictionary share one read.
type Loader struct {
	provider      interfaces.FileProvider
	defaultLocale string
	logger        interfaces.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]loaded
}

type loaded struct {
	dict   Dictionary
	locale string
}

// NewLoader builds a loader over provider.
func NewLoader(provider interfaces.FileProvider, cfg Config, logger interfaces.Logger) *Loader {
	if logger == nil {
		logger = logging.NoOp()
	}
	locale := normalizeLocale(cfg.DefaultLocale)
	if locale == "" {
		locale = "en"
	}
	return &Loader{
		provider:      provider,
		defaultLocale: locale,
		logger:        logger,
		cache:         map[string]loaded{},
	}
}

// DefaultLocale returns the configured fallback locale.
func (l *Loader) DefaultLocale() string {
	return l.defaultLocale
}

// Load returns the dictionary for locale along with the locale it was
// resolved from. An absent dictionary is not an error: the result is empty
// and lookups fall back to the key.
func (l *Loader) Load(ctx context.Context, storeID, themeID, locale string) (Dictionary, string, error) {
	locale = normalizeLocale(locale)
	if locale == "" {
		locale = l.defaultLocale
	}
	key := storeID + "/" + themeID + "/" + locale

	l.mu.RLock()
	entry, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return entry.dict, entry.locale, nil
	}

	value, err, _ := l.group.Do(key, func() (any, error) {
		l.mu.RLock()
		cached, ok := l.cache[key]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}
		dict, resolved, err := l.read(ctx, storeID, themeID, locale)
		if err != nil {
			return nil, err
		}
		fresh := loaded{dict: dict, locale: resolved}
		l.mu.Lock()
		l.cache[key] = fresh
		l.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return Dictionary{}, locale, err
	}
	entry = value.(loaded)
	return entry.dict, entry.locale, nil
}

// Invalidate drops cached dictionaries of a theme.
func (l *Loader) Invalidate(storeID, themeID string) {
	prefix := storeID + "/" + themeID + "/"
	l.mu.Lock()
	for key := range l.cache {
		if strings.HasPrefix(key, prefix) {
			delete(l.cache, key)
		}
	}
	l.mu.Unlock()
}

func (l *Loader) read(ctx context.Context, storeID, themeID, locale string) (Dictionary, string, error) {
	for _, candidate := range l.candidates(locale) {
		raw, err := l.provider.Read(ctx, storeID, themeID, candidate.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("i18n: read %s: %w", candidate.path, err)
		}
		dict, err := ParseDictionary(raw)
		if err != nil {
			l.logger.Warn("i18n.locale_invalid", "path", candidate.path, "error", err)
			continue
		}
		l.logger.Debug("i18n.locale_loaded", "path", candidate.path, "keys", len(dict))
		return dict, candidate.locale, nil
	}
	l.logger.Debug("i18n.locale_missing", "locale", locale)
	return Dictionary{}, locale, nil
}

type candidate struct {
	path   string
	locale string
}

// candidates lists locale files in lookup order: the requested locale, its
// base language, then the default locale; each as <locale>.json followed by
// <locale>.default.json.
func (l *Loader) candidates(locale string) []candidate {
	var locales []string
	seen := map[string]bool{}
	add := func(value string) {
		if value != "" && !seen[value] {
			seen[value] = true
			locales = append(locales, value)
		}
	}
	add(locale)
	if base, _, ok := strings.Cut(locale, "-"); ok {
		add(base)
	}
	add(l.defaultLocale)

	out := make([]candidate, 0, len(locales)*2)
	for _, value := range locales {
		out = append(out,
			candidate{path: "locales/" + value + ".json", locale: value},
			candidate{path: "locales/" + value + ".default.json", locale: value},
		)
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}
