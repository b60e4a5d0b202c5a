package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// NotFoundTemplate is the canonical name of the not-found template.
const NotFoundTemplate = "404"

// NotFoundMarkup renders when a theme ships no 404 template.
const NotFoundMarkup = `<div class="storefront-not-found"><h1>Page not found</h1><p>The page you were looking for does not exist.</p></div>`

var markupExtensions = []string{".tmpl", ".liquid", ".html"}

// Resolution is the outcome of resolving a request path.
type Resolution struct {
	Name     string
	Path     string
	Source   []byte
	JSON     bool
	NotFound bool
	Builtin  bool
}

// Resolver maps request paths to theme templates.
type Resolver struct {
	provider interfaces.FileProvider
}

// NewResolver builds a resolver reading through provider.
func NewResolver(provider interfaces.FileProvider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve returns the template for requestPath. A missing template resolves
// to the theme's 404 template or the built-in not-found markup; only
// provider failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, storeID, themeID, requestPath, view string) (Resolution, error) {
	name := CanonicalName(requestPath)
	res, found, err := r.lookup(ctx, storeID, themeID, name, normalizeSegment(view))
	if err != nil || found {
		return res, err
	}
	res, found, err = r.lookup(ctx, storeID, themeID, NotFoundTemplate, "")
	if err != nil {
		return res, err
	}
	if !found {
		res = Resolution{Name: NotFoundTemplate, Source: []byte(NotFoundMarkup), Builtin: true}
	}
	res.NotFound = true
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, storeID, themeID, name, view string) (Resolution, bool, error) {
	for _, candidate := range templateCandidates(name, view) {
		source, err := r.provider.Read(ctx, storeID, themeID, candidate)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Resolution{}, false, fmt.Errorf("render: read %s: %w", candidate, err)
		}
		return Resolution{
			Name:   name,
			Path:   candidate,
			Source: source,
			JSON:   strings.HasSuffix(candidate, ".json"),
		}, true, nil
	}
	return Resolution{}, false, nil
}

// templateCandidates lists lookup paths: the alternate view first, then the
// base name; JSON before single-file markup.
func templateCandidates(name, view string) []string {
	names := []string{name}
	if view != "" {
		names = []string{name + "." + view, name}
	}
	var out []string
	for _, n := range names {
		out = append(out, "templates/"+n+".json")
		for _, ext := range markupExtensions {
			out = append(out, "templates/"+n+ext)
		}
	}
	return out
}

// CanonicalName maps a request path to a template name.
func CanonicalName(requestPath string) string {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	clean := strings.Trim(path.Clean("/"+requestPath), "/")
	if clean == "" {
		return "index"
	}
	segments := strings.Split(clean, "/")
	switch segments[0] {
	case "products":
		return "product"
	case "collections":
		if len(segments) == 1 {
			return "list-collections"
		}
		return "collection"
	case "pages":
		return "page"
	case "blogs":
		if len(segments) >= 3 {
			return "article"
		}
		return "blog"
	case "cart":
		return "cart"
	case "search":
		return "search"
	case "account":
		return customersTemplate(segments[1:])
	}
	if name := normalizeSegment(segments[0]); name != "" {
		return name
	}
	return NotFoundTemplate
}

func customersTemplate(rest []string) string {
	if len(rest) == 0 {
		return "customers/account"
	}
	name := normalizeSegment(rest[0])
	if name == "orders" && len(rest) > 1 {
		name = "order"
	}
	if name == "" {
		name = "account"
	}
	return "customers/" + name
}

func normalizeSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	normalized, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	return normalized
}
