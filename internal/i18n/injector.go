package i18n

import (
	"context"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Register keys written by the Injector.
const (
	RegisterTranslations = "translations"
	RegisterLocale       = "locale"
)

// Injector attaches the locale dictionary of a render to its registers.
type Injector struct {
	loader *Loader
	logger interfaces.Logger
}

// NewInjector builds an injector backed by loader.
func NewInjector(loader *Loader, logger interfaces.Logger) *Injector {
	return &Injector{loader: loader, logger: logger}
}

// Inject loads the dictionary for locale and stores it in registers. Load
// failures are logged and leave an empty dictionary in place.
func (i *Injector) Inject(ctx context.Context, registers map[string]any, storeID, themeID, locale string) Dictionary {
	dict, resolved, err := i.loader.Load(ctx, storeID, themeID, locale)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("i18n.inject_failed", "locale", locale, "error", err)
		}
		dict = Dictionary{}
	}
	if registers != nil {
		registers[RegisterTranslations] = dict
		registers[RegisterLocale] = resolved
	}
	return dict
}

// FromRegisters returns the dictionary previously injected into registers.
func FromRegisters(registers map[string]any) Dictionary {
	if registers == nil {
		return nil
	}
	dict, _ := registers[RegisterTranslations].(Dictionary)
	return dict
}

// Translate resolves key against the dictionary held by registers.
func Translate(registers map[string]any, key string, params map[string]any) string {
	return FromRegisters(registers).Translate(key, params)
}
