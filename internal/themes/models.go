package themes

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Theme roles.
const (
	RoleMain        = "main"
	RoleUnpublished = "unpublished"
	RoleDevelopment = "development"
)

// Theme identifies a store's theme. Handle is the identifier used in file
// paths and asset URLs; ID is derived from the store id and handle.
type Theme struct {
	bun.BaseModel `bun:"table:themes,alias:t"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	StoreID   string    `bun:"store_id,notnull" json:"store_id"`
	Handle    string    `bun:"handle,notnull" json:"handle"`
	Name      string    `bun:"name" json:"name"`
	Version   string    `bun:"version" json:"version"`
	Role      string    `bun:"role,notnull,default:'unpublished'" json:"role"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Key returns the cache key of the theme.
func (t *Theme) Key() string {
	if t == nil {
		return ""
	}
	return cacheKey(t.StoreID, t.Handle)
}

// Template projects the theme descriptor for templates.
func (t *Theme) Template() map[string]any {
	if t == nil {
		return map[string]any{}
	}
	return map[string]any{
		"id":      t.Handle,
		"name":    t.Name,
		"version": t.Version,
		"role":    t.Role,
	}
}

// ThemeFile stores a single file of a theme tree.
type ThemeFile struct {
	bun.BaseModel `bun:"table:theme_files,alias:tf"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	StoreID   string    `bun:"store_id,notnull" json:"store_id"`
	ThemeID   string    `bun:"theme_id,notnull" json:"theme_id"`
	Path      string    `bun:"path,notnull" json:"path"`
	Content   string    `bun:"content,notnull" json:"content"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

func cacheKey(storeID, themeID string) string {
	return strings.TrimSpace(storeID) + "/" + strings.TrimSpace(themeID)
}
