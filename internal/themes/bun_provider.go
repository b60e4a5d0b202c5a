package themes

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/internal/identity"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// BunFileProvider serves theme files stored in the theme_files table. Reads
// go through id lookups so a repository cache keys every file separately;
// listings query the uncached repository.
type BunFileProvider struct {
	files   repository.Repository[*ThemeFile]
	listing repository.Repository[*ThemeFile]
	themes  repository.Repository[*Theme]
	now     func() time.Time
}

var (
	_ interfaces.FileProvider = (*BunFileProvider)(nil)
	_ interfaces.FileLister   = (*BunFileProvider)(nil)
)

// NewBunFileProvider creates a provider without caching.
func NewBunFileProvider(db *bun.DB) *BunFileProvider {
	return NewBunFileProviderWithCache(db, nil, nil)
}

// NewBunFileProviderWithCache creates a provider whose repositories are
// wrapped by go-repository-cache when a cache service is supplied.
func NewBunFileProviderWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunFileProvider {
	listing := NewThemeFileRepository(db)
	files := listing
	themes := NewThemeRepository(db)
	if cacheService != nil && serializer != nil {
		files = repositorycache.New(files, cacheService, serializer)
		themes = repositorycache.New(themes, cacheService, serializer)
	}
	return &BunFileProvider{files: files, listing: listing, themes: themes, now: time.Now}
}

// RegisterModels creates the provider tables when missing.
func RegisterModels(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Theme)(nil),
		(*ThemeFile)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("themes: create table %T: %w", model, err)
		}
	}
	return nil
}

func (p *BunFileProvider) Read(ctx context.Context, storeID, themeID, name string) ([]byte, error) {
	record, err := p.find(ctx, storeID, themeID, name)
	if err != nil {
		return nil, err
	}
	return []byte(record.Content), nil
}

func (p *BunFileProvider) List(ctx context.Context, storeID, themeID, prefix string) ([]string, error) {
	if err := validateTheme(storeID, themeID); err != nil {
		return nil, err
	}
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	records, _, err := p.listing.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.store_id = ?", storeID).Where("?TableAlias.theme_id = ?", themeID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if prefix == "" {
				return q
			}
			return q.Where("?TableAlias.path LIKE ?", prefix+"%")
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("path ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "theme files", cacheKey(storeID, themeID))
	}
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Path)
	}
	return out, nil
}

// Put creates or replaces a theme file.
func (p *BunFileProvider) Put(ctx context.Context, storeID, themeID, name string, content []byte) error {
	if err := validateTheme(storeID, themeID); err != nil {
		return err
	}
	clean, err := CleanPath(name)
	if err != nil {
		return err
	}
	id := identity.ThemeFileUUID(storeID, themeID, clean)
	now := p.now().UTC()

	existing, err := p.files.GetByID(ctx, id.String())
	if err != nil && !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return mapRepositoryError(err, "theme file", clean)
	}
	if err == nil && existing != nil {
		existing.Content = string(content)
		existing.UpdatedAt = now
		if _, err := p.files.Update(ctx, existing); err != nil {
			return mapRepositoryError(err, "theme file", clean)
		}
		return nil
	}

	_, err = p.files.Create(ctx, &ThemeFile{
		ID:        id,
		StoreID:   storeID,
		ThemeID:   themeID,
		Path:      clean,
		Content:   string(content),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("theme file repository error: %w", err)
	}
	return nil
}

// Import stores every file of a theme tree and records the theme itself.
func (p *BunFileProvider) Import(ctx context.Context, theme *Theme, files map[string][]byte) error {
	if theme == nil {
		return ErrThemeRequired
	}
	if err := p.SaveTheme(ctx, theme); err != nil {
		return err
	}
	for name, content := range files {
		if err := p.Put(ctx, theme.StoreID, theme.Handle, name, content); err != nil {
			return err
		}
	}
	return nil
}

// SaveTheme creates or updates the theme record.
func (p *BunFileProvider) SaveTheme(ctx context.Context, theme *Theme) error {
	if theme == nil {
		return ErrThemeRequired
	}
	if err := validateTheme(theme.StoreID, theme.Handle); err != nil {
		return err
	}
	theme.ID = identity.ThemeUUID(theme.StoreID, theme.Handle)
	if strings.TrimSpace(theme.Role) == "" {
		theme.Role = RoleUnpublished
	}
	theme.UpdatedAt = p.now().UTC()

	if _, err := p.themes.GetByID(ctx, theme.ID.String()); err == nil {
		if _, err := p.themes.Update(ctx, theme); err != nil {
			return mapRepositoryError(err, "theme", theme.Handle)
		}
		return nil
	} else if !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return mapRepositoryError(err, "theme", theme.Handle)
	}

	theme.CreatedAt = theme.UpdatedAt
	if _, err := p.themes.Create(ctx, theme); err != nil {
		return fmt.Errorf("theme repository error: %w", err)
	}
	return nil
}

// Theme returns the stored theme record.
func (p *BunFileProvider) Theme(ctx context.Context, storeID, themeID string) (*Theme, error) {
	if err := validateTheme(storeID, themeID); err != nil {
		return nil, err
	}
	record, err := p.themes.GetByID(ctx, identity.ThemeUUID(storeID, themeID).String())
	if err != nil {
		return nil, mapRepositoryError(err, "theme", cacheKey(storeID, themeID))
	}
	return record, nil
}

func (p *BunFileProvider) find(ctx context.Context, storeID, themeID, name string) (*ThemeFile, error) {
	if err := validateTheme(storeID, themeID); err != nil {
		return nil, err
	}
	clean, err := CleanPath(name)
	if err != nil {
		return nil, err
	}
	record, err := p.files.GetByID(ctx, identity.ThemeFileUUID(storeID, themeID, clean).String())
	if err != nil {
		return nil, mapRepositoryError(err, "theme file", clean)
	}
	if record == nil {
		return nil, &NotFoundError{Resource: "theme file", Key: clean}
	}
	return record, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
