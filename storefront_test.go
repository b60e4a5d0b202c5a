package storefront_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/internal/di"
	"github.com/goliatone/go-storefront/internal/logging/console"
)

func newMemoryModule(t *testing.T) *storefront.Module {
	t.Helper()
	cfg := storefront.DefaultConfig()
	cfg.Themes.Provider = "memory"
	cfg.HTTP.Stores = []storefront.StoreRoute{{Host: "*", StoreID: "acme", ThemeID: "dawn"}}

	module, err := storefront.New(cfg)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestModuleImportsAndRenders(t *testing.T) {
	module := newMemoryModule(t)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "templates", "cart.tmpl"), []byte(`<p>cart for {{ shop.id }}</p>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx := context.Background()
	if err := module.ImportTheme(ctx, storefront.ImportThemeCommand{StoreID: "acme", ThemeID: "dawn", Dir: dir}); err != nil {
		t.Fatalf("import: %v", err)
	}

	page, err := module.RenderPage(ctx, storefront.Request{StoreID: "acme", ThemeID: "dawn", Path: "/cart"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if page.Template != "cart" || !strings.Contains(page.HTML, "<p>cart for acme</p>") {
		t.Fatalf("unexpected page %+v", page)
	}

	w := httptest.NewRecorder()
	module.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://any.test/cart", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "cart for acme") {
		t.Fatalf("unexpected handler response %d %q", w.Code, w.Body.String())
	}
}

func TestModuleRejectsImportsForReadOnlyProviders(t *testing.T) {
	cfg := storefront.DefaultConfig()
	cfg.Themes.Root = t.TempDir()

	module, err := storefront.New(cfg)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	err = module.ImportTheme(context.Background(), storefront.ImportThemeCommand{StoreID: "acme", ThemeID: "dawn", Dir: t.TempDir()})
	if !errors.Is(err, storefront.ErrImportUnsupported) {
		t.Fatalf("expected import unsupported, got %v", err)
	}
}

func TestModuleRunLogsWatcherFailures(t *testing.T) {
	cfg := storefront.DefaultConfig()
	cfg.Themes.Root = filepath.Join(t.TempDir(), "missing")
	cfg.Themes.Watch = true
	cfg.HTTP.Address = "127.0.0.1:0"

	var buf bytes.Buffer
	module, err := storefront.New(cfg, di.WithLoggerProvider(console.NewProvider(console.WithWriter(&buf))))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := module.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ERROR themes.watcher.failed") || !strings.Contains(out, "logger=storefront.themes") {
		t.Fatalf("expected watcher failure to be logged, got:\n%s", out)
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

type recordingDispatcher struct {
	subscriptions []*recordingSubscription
	err           error
}

type recordingSubscription struct {
	closed bool
}

func (s *recordingSubscription) Unsubscribe() { s.closed = true }

func (d *recordingDispatcher) RegisterCommand(any) (storefront.CommandSubscription, error) {
	if d.err != nil {
		return nil, d.err
	}
	sub := &recordingSubscription{}
	d.subscriptions = append(d.subscriptions, sub)
	return sub, nil
}

func TestRegisterCommands(t *testing.T) {
	module := newMemoryModule(t)
	registry := &recordingRegistry{}
	dispatcher := &recordingDispatcher{}

	result, err := storefront.RegisterCommands(module, storefront.RegistrationOptions{
		Registry:   registry,
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) != 2 || len(registry.handlers) != 2 || len(result.Subscriptions) != 2 {
		t.Fatalf("expected render and import handlers registered, got %+v", result)
	}

	boom := errors.New("dispatcher closed")
	result, err = storefront.RegisterCommands(module, storefront.RegistrationOptions{Dispatcher: &recordingDispatcher{err: boom}})
	if !errors.Is(err, boom) || len(result.Handlers) != 2 || len(result.Subscriptions) != 0 {
		t.Fatalf("expected joined dispatcher error, got %v %+v", err, result)
	}
}
