package rendercmd

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-storefront/internal/render"
)

const renderPageMessageType = "storefront.render.page"

// ResultCallback receives the rendered page. It runs synchronously inside
// the handler.
type ResultCallback func(*render.Page)

// RenderPageCommand renders one storefront page.
type RenderPageCommand struct {
	StoreID        string         `json:"store_id"`
	ThemeID        string         `json:"theme_id"`
	Path           string         `json:"path"`
	Query          url.Values     `json:"query,omitempty"`
	Locale         string         `json:"locale,omitempty"`
	Variant        string         `json:"variant,omitempty"`
	Shop           map[string]any `json:"shop,omitempty"`
	Objects        map[string]any `json:"objects,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (RenderPageCommand) Type() string { return renderPageMessageType }

// Validate checks identifiers and the request path.
func (m RenderPageCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.StoreID) == "" {
		errs["store_id"] = validation.NewError("storefront.render.store_id_required", "store_id is required")
	}
	if strings.TrimSpace(m.ThemeID) == "" {
		errs["theme_id"] = validation.NewError("storefront.render.theme_id_required", "theme_id is required")
	}
	if path := strings.TrimSpace(m.Path); path != "" && !strings.HasPrefix(path, "/") {
		errs["path"] = validation.NewError("storefront.render.path_invalid", "path must start with /")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Request converts the command into a render request.
func (m RenderPageCommand) Request() render.Request {
	path := strings.TrimSpace(m.Path)
	if path == "" {
		path = "/"
	}
	return render.Request{
		StoreID: strings.TrimSpace(m.StoreID),
		ThemeID: strings.TrimSpace(m.ThemeID),
		Path:    path,
		Query:   m.Query,
		Locale:  strings.TrimSpace(m.Locale),
		Variant: strings.TrimSpace(m.Variant),
		Shop:    m.Shop,
		Objects: m.Objects,
	}
}
