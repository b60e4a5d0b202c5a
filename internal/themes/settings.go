package themes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-storefront/internal/schema"
	"github.com/goliatone/go-storefront/internal/settings"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const (
	SettingsSchemaPath = "config/settings_schema.json"
	SettingsDataPath   = "config/settings_data.json"
)

type settingsGroup struct {
	Name     string           `json:"name"`
	Settings []schema.Setting `json:"settings"`
}

type settingsData struct {
	Current json.RawMessage         `json:"current"`
	Presets map[string]settings.Map `json:"presets"`
}

// LoadSettings returns the theme-wide settings: declared defaults from the
// settings schema overlaid with the stored values. Missing files are not an
// error; malformed files are reported and skipped.
func LoadSettings(ctx context.Context, provider interfaces.FileProvider, storeID, themeID string) (settings.Map, error) {
	var errs []error

	defaults := settings.Map{}
	if raw, err := readOptional(ctx, provider, storeID, themeID, SettingsSchemaPath); err != nil {
		errs = append(errs, err)
	} else if raw != nil {
		decls, err := parseSettingsSchema(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", SettingsSchemaPath, err))
		}
		defaults = settings.Defaults(decls)
	}

	current := settings.Map{}
	if raw, err := readOptional(ctx, provider, storeID, themeID, SettingsDataPath); err != nil {
		errs = append(errs, err)
	} else if raw != nil {
		values, err := parseSettingsData(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", SettingsDataPath, err))
		}
		current = values
	}

	return settings.Overlay(defaults, current), errors.Join(errs...)
}

func parseSettingsSchema(raw []byte) ([]settings.Declaration, error) {
	var groups []settingsGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, err
	}
	var decls []settings.Declaration
	for _, group := range groups {
		for _, item := range group.Settings {
			if item.ID == "" {
				continue
			}
			decls = append(decls, settings.Declaration{ID: item.ID, Default: item.Default})
		}
	}
	return decls, nil
}

// parseSettingsData accepts {"current": {...}}, {"current": "Preset",
// "presets": {...}} or a bare object of values.
func parseSettingsData(raw []byte) (settings.Map, error) {
	var data settingsData
	if err := json.Unmarshal(raw, &data); err != nil {
		return settings.Map{}, err
	}
	if len(data.Current) == 0 {
		var bare settings.Map
		if err := json.Unmarshal(raw, &bare); err != nil {
			return settings.Map{}, err
		}
		delete(bare, "presets")
		return bare, nil
	}

	var preset string
	if err := json.Unmarshal(data.Current, &preset); err == nil {
		if values, ok := data.Presets[preset]; ok {
			return values, nil
		}
		return settings.Map{}, fmt.Errorf("unknown preset %q", preset)
	}

	var current settings.Map
	if err := json.Unmarshal(data.Current, &current); err != nil {
		return settings.Map{}, err
	}
	return current, nil
}

func readOptional(ctx context.Context, provider interfaces.FileProvider, storeID, themeID, name string) ([]byte, error) {
	raw, err := provider.Read(ctx, storeID, themeID, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}
