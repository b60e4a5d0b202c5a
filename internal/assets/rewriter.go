package assets

import (
	"html"
	"regexp"
	"strings"
)

// Placeholder kinds understood by the Rewriter.
const (
	KindAsset      = "asset"
	KindStylesheet = "stylesheet"
	KindSVG        = "svg"
	KindFile       = "file"
)

var placeholderPattern = regexp.MustCompile(`\[\[(asset|stylesheet|svg|file):([^\]\s]+)\]\]`)

// Placeholder returns the marker for name that the Rewriter later expands.
func Placeholder(kind, name string) string {
	return "[[" + kind + ":" + cleanName(name) + "]]"
}

// Rewriter expands asset placeholders into URLs and markup for a single
// store theme. The transform is pure and idempotent.
type Rewriter struct {
	BaseURL string
	StoreID string
	ThemeID string
}

// NewRewriter builds a rewriter rooted at baseURL.
func NewRewriter(baseURL, storeID, themeID string) Rewriter {
	return Rewriter{BaseURL: baseURL, StoreID: storeID, ThemeID: themeID}
}

// AssetURL returns the public URL of a theme asset.
func (r Rewriter) AssetURL(name string) string {
	return r.join(r.StoreID, r.ThemeID, "assets", cleanName(name))
}

// FileURL returns the public URL of a store level file.
func (r Rewriter) FileURL(name string) string {
	return r.join(r.StoreID, "files", cleanName(name))
}

// Rewrite replaces every placeholder in input.
func (r Rewriter) Rewrite(input string) string {
	if !strings.Contains(input, "[[") {
		return input
	}
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		kind, name := parts[1], parts[2]
		switch kind {
		case KindAsset:
			return r.AssetURL(name)
		case KindFile:
			return r.FileURL(name)
		case KindStylesheet:
			return `<link rel="stylesheet" href="` + html.EscapeString(r.AssetURL(name)) + `">`
		case KindSVG:
			return `<img src="` + html.EscapeString(r.AssetURL(name)) + `" alt="" role="presentation">`
		default:
			return match
		}
	})
}

func (r Rewriter) join(segments ...string) string {
	base := strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	for _, segment := range segments {
		segment = strings.Trim(segment, "/")
		if segment == "" {
			continue
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "/")
}

func cleanName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "..", "")
	return strings.TrimLeft(name, "/")
}
