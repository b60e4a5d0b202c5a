package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var ErrThemesRootRequired = errors.New("storefront config: themes root directory is required for the fs provider")
var ErrThemesProviderUnknown = errors.New("storefront config: themes provider is invalid")
var ErrThemesWatchRequiresFS = errors.New("storefront config: theme watching requires the fs provider")
var ErrStorageDSNRequired = errors.New("storefront config: storage dsn is required for database theme providers")
var ErrStorageDriverMismatch = errors.New("storefront config: storage driver does not match themes provider")
var ErrLoggingProviderRequired = errors.New("storefront config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("storefront config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("storefront config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("storefront config: logging format is invalid")
var ErrHTTPStoreRouteDuplicate = errors.New("storefront config: store route host is declared twice")

// Theme provider identifiers.
const (
	ThemeProviderFS       = "fs"
	ThemeProviderMemory   = "memory"
	ThemeProviderSQLite   = "sqlite"
	ThemeProviderPostgres = "postgres"
)

// DefaultMaxDepth is the nested render ceiling applied when none is configured.
const DefaultMaxDepth = 10

// Config aggregates runtime settings for the storefront renderer and its
// outer surfaces (CLI, HTTP handler).
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Render      RenderConfig      `yaml:"render"`
	Assets      AssetsConfig      `yaml:"assets"`
	Themes      ThemeConfig       `yaml:"themes"`
	Storage     StorageConfig     `yaml:"storage"`
	I18N        I18NConfig        `yaml:"i18n"`
	Logging     LoggingConfig     `yaml:"logging"`
	HTTP        HTTPConfig        `yaml:"http"`
}

// EnvironmentConfig captures deployment mode. Production suppresses
// diagnostic comments in rendered markup.
type EnvironmentConfig struct {
	Name       string `yaml:"name"`
	Production bool   `yaml:"production"`
}

// RenderConfig controls the composition engine.
type RenderConfig struct {
	MaxDepth      int    `yaml:"max_depth"`
	DefaultLayout string `yaml:"default_layout"`
	// SampleBytes bounds offending source excerpts attached to log entries.
	SampleBytes int `yaml:"sample_bytes"`
}

// AssetsConfig configures placeholder rewriting.
type AssetsConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ThemeConfig selects the theme file provider.
type ThemeConfig struct {
	Provider       string      `yaml:"provider"`
	Root           string      `yaml:"root"`
	Watch          bool        `yaml:"watch"`
	DefaultVariant string      `yaml:"default_variant"`
	Cache          CacheConfig `yaml:"cache"`
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// StorageConfig lists database settings for the database backed theme providers.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// I18NConfig configures translation dictionaries.
type I18NConfig struct {
	DefaultLocale string `yaml:"default_locale"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// HTTPConfig configures the storefront handler.
type HTTPConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Stores       []StoreRoute  `yaml:"stores"`
}

// StoreRoute maps a request host onto a store and its published theme.
type StoreRoute struct {
	Host    string `yaml:"host"`
	StoreID string `yaml:"store_id"`
	ThemeID string `yaml:"theme_id"`
	Locale  string `yaml:"locale"`
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		Environment: EnvironmentConfig{
			Name: "development",
		},
		Render: RenderConfig{
			MaxDepth:      DefaultMaxDepth,
			DefaultLayout: "theme",
			SampleBytes:   120,
		},
		Assets: AssetsConfig{
			BaseURL: "/cdn/shop",
		},
		Themes: ThemeConfig{
			Provider: ThemeProviderFS,
			Root:     "themes",
			Cache: CacheConfig{
				Enabled:    true,
				DefaultTTL: time.Minute,
			},
		},
		Storage: StorageConfig{},
		I18N: I18NConfig{
			DefaultLocale: "en",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate performs field rules per section followed by cross-section
// consistency checks.
func (cfg Config) Validate() error {
	if err := cfg.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := cfg.I18N.Validate(); err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	if err := cfg.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}

	provider := normalize(cfg.Themes.Provider)
	switch provider {
	case ThemeProviderFS:
		if strings.TrimSpace(cfg.Themes.Root) == "" {
			return ErrThemesRootRequired
		}
	case ThemeProviderMemory:
	case ThemeProviderSQLite, ThemeProviderPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
		if driver := normalize(cfg.Storage.Driver); driver != "" && driver != provider {
			return fmt.Errorf("%w: %s != %s", ErrStorageDriverMismatch, driver, provider)
		}
	default:
		return fmt.Errorf("%w: %s", ErrThemesProviderUnknown, cfg.Themes.Provider)
	}
	if cfg.Themes.Watch && provider != ThemeProviderFS {
		return ErrThemesWatchRequiresFS
	}

	if err := cfg.Logging.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(cfg.HTTP.Stores))
	for _, route := range cfg.HTTP.Stores {
		host := normalize(route.Host)
		if _, ok := seen[host]; ok {
			return fmt.Errorf("%w: %s", ErrHTTPStoreRouteDuplicate, host)
		}
		seen[host] = struct{}{}
	}
	return nil
}

// Validate checks the render section.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.DefaultLayout, validation.Required),
		validation.Field(&c.SampleBytes, validation.Min(0)),
	)
}

// Validate checks the i18n section.
func (c *I18NConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLocale, validation.Required, validation.Length(2, 16)),
	)
}

// Validate checks the HTTP section and each store route.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Address, validation.Required),
		validation.Field(&c.Stores),
	)
}

// Validate checks a single store route.
func (r StoreRoute) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Host, validation.Required),
		validation.Field(&r.StoreID, validation.Required),
		validation.Field(&r.ThemeID, validation.Required),
	)
}

// Validate checks the logging provider, level and format.
func (c LoggingConfig) Validate() error {
	provider := normalize(c.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(c.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(c.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// Diagnostics reports whether diagnostic comments should be emitted into markup.
func (cfg Config) Diagnostics() bool {
	return !cfg.Environment.Production
}

// StoreForHost returns the route declared for host, ignoring case and port.
func (c HTTPConfig) StoreForHost(host string) (StoreRoute, bool) {
	host = normalize(host)
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	for _, route := range c.Stores {
		if normalize(route.Host) == host {
			return route, true
		}
	}
	for _, route := range c.Stores {
		if route.Host == "*" {
			return route, true
		}
	}
	return StoreRoute{}, false
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
