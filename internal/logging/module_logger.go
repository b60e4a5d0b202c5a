package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const (
	rootModule   = "storefront"
	renderModule = "storefront.render"
	themesModule = "storefront.themes"
	i18nModule   = "storefront.i18n"
	httpModule   = "storefront.http"
)

const (
	fieldStoreID  = "store_id"
	fieldThemeID  = "theme_id"
	fieldPath     = "path"
	fieldTemplate = "template"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RenderLogger returns the logger namespace reserved for the composition engine.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// ThemesLogger returns the logger namespace reserved for theme file providers.
func ThemesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, themesModule)
}

// I18NLogger returns the logger namespace reserved for translation loading.
func I18NLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, i18nModule)
}

// HTTPLogger returns the logger namespace reserved for the storefront handler.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithRenderContext enriches the logger with the store, theme and request path
// of a page render. Empty values are ignored.
func WithRenderContext(logger interfaces.Logger, storeID, themeID, path string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(storeID); trimmed != "" {
		fields[fieldStoreID] = trimmed
	}
	if trimmed := strings.TrimSpace(themeID); trimmed != "" {
		fields[fieldThemeID] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPath] = trimmed
	}
	return WithFields(logger, fields)
}

// WithTemplate tags entries with the resolved template name.
func WithTemplate(logger interfaces.Logger, template string) interfaces.Logger {
	if trimmed := strings.TrimSpace(template); trimmed != "" {
		return WithFields(logger, map[string]any{fieldTemplate: trimmed})
	}
	return logger
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
