package storefront

import (
	"errors"

	"github.com/goliatone/go-storefront/internal/runtimeconfig"
)

// ErrImportUnsupported reports a read-only theme provider.
var ErrImportUnsupported = errors.New("storefront: themes provider does not accept imports")

var (
	ErrThemesRootRequired      = runtimeconfig.ErrThemesRootRequired
	ErrThemesProviderUnknown   = runtimeconfig.ErrThemesProviderUnknown
	ErrThemesWatchRequiresFS   = runtimeconfig.ErrThemesWatchRequiresFS
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrStorageDriverMismatch   = runtimeconfig.ErrStorageDriverMismatch
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrHTTPStoreRouteDuplicate = runtimeconfig.ErrHTTPStoreRouteDuplicate
)

type (
	Config            = runtimeconfig.Config
	EnvironmentConfig = runtimeconfig.EnvironmentConfig
	RenderConfig      = runtimeconfig.RenderConfig
	AssetsConfig      = runtimeconfig.AssetsConfig
	ThemeConfig       = runtimeconfig.ThemeConfig
	CacheConfig       = runtimeconfig.CacheConfig
	StorageConfig     = runtimeconfig.StorageConfig
	I18NConfig        = runtimeconfig.I18NConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
	HTTPConfig        = runtimeconfig.HTTPConfig
	StoreRoute        = runtimeconfig.StoreRoute
)

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(filename string) (Config, error) {
	return runtimeconfig.Load(filename)
}
