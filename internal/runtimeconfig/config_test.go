package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-storefront/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresRootForFSProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Themes.Root = " "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrThemesRootRequired) {
		t.Fatalf("expected ErrThemesRootRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownThemesProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Themes.Provider = "s3"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrThemesProviderUnknown) {
		t.Fatalf("expected ErrThemesProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_DatabaseProviderRequiresDSN(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Themes.Provider = runtimeconfig.ThemeProviderSQLite

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}

	cfg.Storage.DSN = "file::memory:?cache=shared"
	cfg.Storage.Driver = "postgres"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverMismatch) {
		t.Fatalf("expected ErrStorageDriverMismatch, got %v", err)
	}

	cfg.Storage.Driver = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected sqlite config to validate, got %v", err)
	}
}

func TestConfigValidate_WatchRequiresFSProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Themes.Provider = runtimeconfig.ThemeProviderMemory
	cfg.Themes.Watch = true

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrThemesWatchRequiresFS) {
		t.Fatalf("expected ErrThemesWatchRequiresFS, got %v", err)
	}
}

func TestConfigValidate_RenderRules(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Render.MaxDepth = 0

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero max depth")
	}

	cfg.Render.MaxDepth = 500
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for oversized max depth")
	}
}

func TestConfigValidate_LoggingRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{
			name:   "missing provider",
			mutate: func(c *runtimeconfig.Config) { c.Logging.Provider = "" },
			want:   runtimeconfig.ErrLoggingProviderRequired,
		},
		{
			name:   "unknown provider",
			mutate: func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" },
			want:   runtimeconfig.ErrLoggingProviderUnknown,
		},
		{
			name:   "bad level",
			mutate: func(c *runtimeconfig.Config) { c.Logging.Level = "loud" },
			want:   runtimeconfig.ErrLoggingLevelInvalid,
		},
		{
			name: "bad gologger format",
			mutate: func(c *runtimeconfig.Config) {
				c.Logging.Provider = "gologger"
				c.Logging.Format = "xml"
			},
			want: runtimeconfig.ErrLoggingFormatInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidate_StoreRoutes(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.HTTP.Stores = []runtimeconfig.StoreRoute{
		{Host: "shop.example.com", StoreID: "store-1", ThemeID: "dawn"},
		{Host: "SHOP.example.com", StoreID: "store-2", ThemeID: "dawn"},
	}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrHTTPStoreRouteDuplicate) {
		t.Fatalf("expected ErrHTTPStoreRouteDuplicate, got %v", err)
	}

	cfg.HTTP.Stores = []runtimeconfig.StoreRoute{{Host: "shop.example.com"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for incomplete store route")
	}
}

func TestStoreForHostIgnoresPortAndCase(t *testing.T) {
	http := runtimeconfig.HTTPConfig{
		Stores: []runtimeconfig.StoreRoute{
			{Host: "shop.example.com", StoreID: "store-1", ThemeID: "dawn"},
			{Host: "*", StoreID: "fallback", ThemeID: "base"},
		},
	}

	route, ok := http.StoreForHost("Shop.Example.com:8080")
	if !ok || route.StoreID != "store-1" {
		t.Fatalf("expected store-1, got %+v (ok=%v)", route, ok)
	}

	route, ok = http.StoreForHost("other.test")
	if !ok || route.StoreID != "fallback" {
		t.Fatalf("expected wildcard route, got %+v (ok=%v)", route, ok)
	}
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_ROOT", "/srv/themes")

	cfg, err := runtimeconfig.Parse([]byte(`
environment:
  production: true
themes:
  root: ${STOREFRONT_TEST_ROOT}
  cache:
    default_ttl: 5m
render:
  max_depth: 4
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Themes.Root != "/srv/themes" {
		t.Fatalf("expected expanded root, got %q", cfg.Themes.Root)
	}
	if cfg.Themes.Cache.DefaultTTL != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", cfg.Themes.Cache.DefaultTTL)
	}
	if cfg.Render.MaxDepth != 4 {
		t.Fatalf("expected max depth 4, got %d", cfg.Render.MaxDepth)
	}
	if cfg.I18N.DefaultLocale != "en" {
		t.Fatalf("expected defaults to survive, got %q", cfg.I18N.DefaultLocale)
	}
	if cfg.Diagnostics() {
		t.Fatalf("expected production config to disable diagnostics")
	}
}

func TestLoadOrDefaultFallsBackWhenMissing(t *testing.T) {
	cfg, err := runtimeconfig.LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Render.MaxDepth != runtimeconfig.DefaultMaxDepth {
		t.Fatalf("expected default max depth, got %d", cfg.Render.MaxDepth)
	}
}

func TestLoadReportsValidationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	if err := os.WriteFile(path, []byte("themes:\n  provider: s3\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runtimeconfig.Load(path); !errors.Is(err, runtimeconfig.ErrThemesProviderUnknown) {
		t.Fatalf("expected ErrThemesProviderUnknown, got %v", err)
	}
}
