package storefront

import (
	"context"
	"net/http"
	"sync"

	"github.com/goliatone/go-storefront/internal/commands/themescmd"
	"github.com/goliatone/go-storefront/internal/di"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Request describes a page render.
type Request = render.Request

// Page is a rendered document.
type Page = render.Page

// Diagnostic records a contained render fault.
type Diagnostic = render.Diagnostic

// ImportThemeCommand imports a theme directory.
type ImportThemeCommand = themescmd.ImportThemeCommand

// FileProvider exports the theme file provider contract.
type FileProvider = interfaces.FileProvider

// TemplateEngine exports the template engine contract.
type TemplateEngine = interfaces.TemplateEngine

// Module represents the top level storefront runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a storefront module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// RenderPage renders one storefront page.
func (m *Module) RenderPage(ctx context.Context, req Request) (*Page, error) {
	return m.container.Renderer().RenderPage(ctx, req)
}

// ImportTheme stores a theme directory in the configured provider.
func (m *Module) ImportTheme(ctx context.Context, cmd ImportThemeCommand) error {
	handler := m.container.ImportThemeHandler()
	if handler == nil {
		return ErrImportUnsupported
	}
	return handler.Execute(ctx, cmd)
}

// Handler returns the HTTP handler serving the configured store routes.
func (m *Module) Handler() http.Handler {
	return m.container.StorefrontHandler().Router()
}

// Run serves HTTP and watches theme files until ctx is done. A failing
// watcher is logged and the server keeps running without reloads.
func (m *Module) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if watcher := m.container.Watcher(); watcher != nil {
		logger := logging.ThemesLogger(m.container.LoggerProvider())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logger.Error("themes.watcher.failed", "root", m.container.Config.Themes.Root, "error", err)
			}
		}()
	}

	err := m.container.Server().Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// Close releases resources held by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
