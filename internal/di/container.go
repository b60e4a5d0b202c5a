package di

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-storefront/internal/commands"
	"github.com/goliatone/go-storefront/internal/commands/rendercmd"
	"github.com/goliatone/go-storefront/internal/commands/themescmd"
	"github.com/goliatone/go-storefront/internal/engine/pongo"
	storefronthttp "github.com/goliatone/go-storefront/internal/http"
	"github.com/goliatone/go-storefront/internal/i18n"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/logging/console"
	"github.com/goliatone/go-storefront/internal/logging/gologger"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
	"github.com/goliatone/go-storefront/internal/themes"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Container wires the storefront runtime from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	provider    interfaces.FileProvider
	memory      *themes.MemoryProvider
	cached      *themes.CachedProvider
	bunProvider *themes.BunFileProvider

	engine      interfaces.TemplateEngine
	loader      *i18n.Loader
	descriptors *themes.DescriptorSelector
	renderer    *render.Renderer
	watcher     *themes.Watcher

	renderHandler *rendercmd.RenderPageHandler
	importHandler *themescmd.ImportThemeHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies the database used by the sqlite and postgres theme
// providers. The container does not close databases it did not open.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by database providers.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithFileProvider replaces the configured theme file provider.
func WithFileProvider(provider interfaces.FileProvider) Option {
	return func(c *Container) {
		c.provider = provider
	}
}

// WithTemplateEngine replaces the pongo2 engine.
func WithTemplateEngine(engine interfaces.TemplateEngine) Option {
	return func(c *Container) {
		c.engine = engine
	}
}

// NewContainer validates cfg and builds the runtime graph.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureProvider(); err != nil {
		return nil, err
	}
	if err := c.configureRenderer(); err != nil {
		return nil, err
	}
	c.configureWatcher()
	c.configureCommands()

	c.logger.Info("storefront.configured",
		"themes_provider", cfg.Themes.Provider,
		"cache", cfg.Themes.Cache.Enabled,
		"watch", c.watcher != nil,
		"production", cfg.Environment.Production,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider == nil {
		switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     c.Config.Logging.Level,
				Format:    c.Config.Logging.Format,
				AddSource: c.Config.Logging.AddSource,
				Focus:     c.Config.Logging.Focus,
			})
			if err != nil {
				return fmt.Errorf("di: configure go-logger: %w", err)
			}
			c.loggerProvider = provider
		default:
			opts := []console.Option{console.WithFocus(c.Config.Logging.Focus...)}
			if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
				opts = append(opts, console.WithLevel(level))
			}
			c.loggerProvider = console.NewProvider(opts...)
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "storefront.di")
	return nil
}

func (c *Container) configureProvider() error {
	if c.provider != nil {
		return nil
	}

	themesCfg := c.Config.Themes
	switch strings.ToLower(strings.TrimSpace(themesCfg.Provider)) {
	case runtimeconfig.ThemeProviderMemory:
		c.memory = themes.NewMemoryProvider()
		c.provider = c.memory
	case runtimeconfig.ThemeProviderSQLite, runtimeconfig.ThemeProviderPostgres:
		if err := c.configureDatabase(); err != nil {
			return err
		}
		c.configureCacheDefaults()
		c.bunProvider = themes.NewBunFileProviderWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.provider = c.bunProvider
	default:
		c.provider = themes.NewFSProvider(themesCfg.Root)
		if themesCfg.Cache.Enabled {
			c.cached = themes.NewCachedProvider(c.provider, themesCfg.Cache.DefaultTTL)
			c.provider = c.cached
		}
	}
	return nil
}

func (c *Container) configureDatabase() error {
	if c.bunDB == nil {
		driver, dsn := strings.ToLower(strings.TrimSpace(c.Config.Themes.Provider)), c.Config.Storage.DSN
		var (
			sqlDB *sql.DB
			err   error
		)
		switch driver {
		case runtimeconfig.ThemeProviderPostgres:
			sqlDB, err = sql.Open("postgres", dsn)
			if err == nil {
				c.bunDB = bun.NewDB(sqlDB, pgdialect.New())
			}
		default:
			sqlDB, err = sql.Open("sqlite3", dsn)
			if err == nil {
				c.bunDB = bun.NewDB(sqlDB, sqlitedialect.New())
				c.bunDB.SetMaxOpenConns(1)
			}
		}
		if err != nil {
			return fmt.Errorf("di: open %s database: %w", driver, err)
		}
		c.ownsDB = true
	}

	if err := themes.RegisterModels(context.Background(), c.bunDB); err != nil {
		return fmt.Errorf("di: register theme models: %w", err)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Themes.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Themes.Cache.DefaultTTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("storefront.cache_unavailable", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRenderer() error {
	if c.engine == nil {
		engine, err := pongo.New()
		if err != nil {
			return fmt.Errorf("di: template engine: %w", err)
		}
		c.engine = engine
	}

	c.loader = i18n.NewLoader(c.provider, i18n.Config{
		DefaultLocale: c.Config.I18N.DefaultLocale,
	}, logging.I18NLogger(c.loggerProvider))
	c.descriptors = themes.NewDescriptorSelector(c.provider, c.Config.Themes.DefaultVariant)

	opts := []render.Option{
		render.WithConfig(render.Config{
			MaxDepth:      c.Config.Render.MaxDepth,
			DefaultLayout: c.Config.Render.DefaultLayout,
			AssetBaseURL:  c.Config.Assets.BaseURL,
			Production:    c.Config.Environment.Production,
			SampleBytes:   c.Config.Render.SampleBytes,
		}),
		render.WithRendererLogger(logging.RenderLogger(c.loggerProvider)),
		render.WithTranslations(i18n.NewInjector(c.loader, logging.I18NLogger(c.loggerProvider))),
		render.WithDescriptors(c.descriptors),
	}
	if c.bunProvider != nil {
		opts = append(opts, render.WithThemeSource(c.bunProvider))
	}

	renderer, err := render.NewRenderer(c.engine, c.provider, opts...)
	if err != nil {
		return fmt.Errorf("di: renderer: %w", err)
	}
	c.renderer = renderer
	return nil
}

func (c *Container) configureWatcher() {
	if !c.Config.Themes.Watch {
		return
	}

	var target themes.Invalidator = noopInvalidator{}
	if c.cached != nil {
		target = c.cached
	}
	c.watcher = themes.NewWatcher(c.Config.Themes.Root, target, logging.ThemesLogger(c.loggerProvider), c.ThemeChanged)
}

func (c *Container) configureCommands() {
	c.renderHandler = rendercmd.NewRenderPageHandler(c.renderer, commands.CommandLogger(c.loggerProvider, "render"))

	var importer themescmd.Importer
	if c.bunProvider != nil {
		importer = c.bunProvider
	} else if c.memory != nil {
		importer = memoryImporter{provider: c.memory}
	}
	if importer != nil {
		importer = changeNotifyingImporter{next: importer, changed: c.ThemeChanged}
		c.importHandler = themescmd.NewImportThemeHandler(importer, commands.CommandLogger(c.loggerProvider, "themes"))
	}
}

// ThemeChanged drops state derived from a theme after its files change.
func (c *Container) ThemeChanged(storeID, themeID, _ string) {
	if c.cached != nil {
		c.cached.Invalidate(storeID, themeID)
	}
	if c.loader != nil {
		c.loader.Invalidate(storeID, themeID)
	}
	if c.descriptors != nil {
		c.descriptors.Reset()
	}
}

// Close releases resources opened by the container.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		return c.bunDB.Close()
	}
	return nil
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// FileProvider exposes the theme file provider used by the renderer.
func (c *Container) FileProvider() interfaces.FileProvider {
	return c.provider
}

// MemoryProvider returns the in-memory provider when configured.
func (c *Container) MemoryProvider() *themes.MemoryProvider {
	return c.memory
}

// Renderer returns the page renderer.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// Watcher returns the theme watcher, or nil when watching is disabled.
func (c *Container) Watcher() *themes.Watcher {
	return c.watcher
}

// RenderPageHandler returns the render command handler.
func (c *Container) RenderPageHandler() *rendercmd.RenderPageHandler {
	return c.renderHandler
}

// ImportThemeHandler returns the theme import handler, or nil when the
// configured provider is read-only.
func (c *Container) ImportThemeHandler() *themescmd.ImportThemeHandler {
	return c.importHandler
}

// StorefrontHandler builds the HTTP handler for the configured store routes.
func (c *Container) StorefrontHandler() *storefronthttp.StorefrontHandler {
	return storefronthttp.NewStorefrontHandler(c.renderer, c.Config.HTTP,
		storefronthttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		storefronthttp.WithDiagnosticsHeader(!c.Config.Environment.Production),
	)
}

// Server builds an http.Server around the storefront handler.
func (c *Container) Server() *storefronthttp.Server {
	return storefronthttp.NewServer(c.Config.HTTP, c.StorefrontHandler().Router())
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string, string)             {}
func (noopInvalidator) InvalidatePath(string, string, string) {}

// changeNotifyingImporter reports every stored theme so caches derived from
// the previous import are dropped.
type changeNotifyingImporter struct {
	next    themescmd.Importer
	changed themes.ChangeCallback
}

func (i changeNotifyingImporter) Import(ctx context.Context, theme *themes.Theme, files map[string][]byte) error {
	if err := i.next.Import(ctx, theme, files); err != nil {
		return err
	}
	i.changed(theme.StoreID, theme.Handle, "")
	return nil
}

// memoryImporter loads theme trees into the in-memory provider.
type memoryImporter struct {
	provider *themes.MemoryProvider
}

func (m memoryImporter) Import(_ context.Context, theme *themes.Theme, files map[string][]byte) error {
	for name, content := range files {
		if err := m.provider.Put(theme.StoreID, theme.Handle, name, content); err != nil {
			return err
		}
	}
	return nil
}
