package storefront_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	storefront "github.com/goliatone/go-storefront"
)

func TestConfigValidateRequiresThemesRoot(t *testing.T) {
	cfg := storefront.DefaultConfig()
	cfg.Themes.Root = ""
	if err := cfg.Validate(); !errors.Is(err, storefront.ErrThemesRootRequired) {
		t.Fatalf("expected ErrThemesRootRequired, got %v", err)
	}
}

func TestConfigValidateWatchRequiresFS(t *testing.T) {
	cfg := storefront.DefaultConfig()
	cfg.Themes.Provider = "memory"
	cfg.Themes.Watch = true
	if err := cfg.Validate(); !errors.Is(err, storefront.ErrThemesWatchRequiresFS) {
		t.Fatalf("expected ErrThemesWatchRequiresFS, got %v", err)
	}
}

func TestConfigValidateDatabaseProviders(t *testing.T) {
	cfg := storefront.DefaultConfig()
	cfg.Themes.Provider = "postgres"
	if err := cfg.Validate(); !errors.Is(err, storefront.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}

	cfg.Storage.DSN = "postgres://localhost/storefront"
	cfg.Storage.Driver = "sqlite"
	if err := cfg.Validate(); !errors.Is(err, storefront.ErrStorageDriverMismatch) {
		t.Fatalf("expected ErrStorageDriverMismatch, got %v", err)
	}
}

func TestConfigValidateDuplicateStoreHosts(t *testing.T) {
	cfg := storefront.DefaultConfig()
	cfg.HTTP.Stores = []storefront.StoreRoute{
		{Host: "acme.test", StoreID: "a", ThemeID: "t"},
		{Host: "ACME.test", StoreID: "b", ThemeID: "t"},
	}
	if err := cfg.Validate(); !errors.Is(err, storefront.ErrHTTPStoreRouteDuplicate) {
		t.Fatalf("expected ErrHTTPStoreRouteDuplicate, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	t.Setenv("STOREFRONT_TEST_ROOT", "/srv/themes")
	data := "render:\n  max_depth: 5\nthemes:\n  root: ${STOREFRONT_TEST_ROOT}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := storefront.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Render.MaxDepth != 5 || cfg.Themes.Root != "/srv/themes" || cfg.I18N.DefaultLocale != "en" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
