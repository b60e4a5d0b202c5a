package themescmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-storefront/internal/themes"
)

const importThemeMessageType = "storefront.themes.import"

// ImportThemeCommand copies a theme directory into a theme store.
type ImportThemeCommand struct {
	StoreID string `json:"store_id"`
	ThemeID string `json:"theme_id"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Role    string `json:"role,omitempty"`
	Dir     string `json:"dir"`
	// Imported receives the number of stored files.
	Imported func(count int) `json:"-"`
}

// Type implements command.Message.
func (ImportThemeCommand) Type() string { return importThemeMessageType }

// Validate checks identifiers, the source directory and the role.
func (m ImportThemeCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.StoreID, validation.Required.ErrorObject(
			validation.NewError("storefront.themes.import.store_id_required", "store_id is required"))),
		validation.Field(&m.ThemeID, validation.Required.ErrorObject(
			validation.NewError("storefront.themes.import.theme_id_required", "theme_id is required"))),
		validation.Field(&m.Dir, validation.Required.ErrorObject(
			validation.NewError("storefront.themes.import.dir_required", "dir is required"))),
		validation.Field(&m.Role, validation.In(themes.RoleMain, themes.RoleUnpublished, themes.RoleDevelopment)),
	)
}

func (m ImportThemeCommand) theme() *themes.Theme {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = strings.TrimSpace(m.ThemeID)
	}
	return &themes.Theme{
		StoreID: strings.TrimSpace(m.StoreID),
		Handle:  strings.TrimSpace(m.ThemeID),
		Name:    name,
		Version: strings.TrimSpace(m.Version),
		Role:    strings.TrimSpace(m.Role),
	}
}
