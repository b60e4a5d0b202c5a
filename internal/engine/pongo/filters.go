package pongo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-storefront/internal/assets"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

var (
	builtinsOnce sync.Once
	builtinsErr  error

	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
)

// Filters returns the storefront filters registered on every engine. Asset
// filters emit placeholders that the asset rewriter resolves after rendering.
func Filters() map[string]interfaces.FilterFunc {
	return map[string]interfaces.FilterFunc{
		"asset_url":            placeholderFilter(assets.KindAsset),
		"file_url":             placeholderFilter(assets.KindFile),
		"inline_asset_content": placeholderFilter(assets.KindSVG),
		"stylesheet_tag":       stylesheetTag,
		"script_tag":           scriptTag,
		"markdown":             markdownFilter,
		"handle":               handleFilter,
		"json":                 jsonFilter,
	}
}

func registerBuiltins() error {
	builtinsOnce.Do(func() {
		tags := map[string]pongo2.TagParser{
			"echo":    parseEchoTag,
			"render":  parseRenderTag,
			"section": parseSectionTag,
			"t":       parseTranslateTag,
		}
		for name, parser := range tags {
			if err := pongo2.RegisterTag(name, parser); err != nil {
				builtinsErr = fmt.Errorf("pongo: register tag %s: %w", name, err)
				return
			}
		}
		for name, fn := range Filters() {
			if err := setFilter(name, fn); err != nil {
				builtinsErr = fmt.Errorf("pongo: register filter %s: %w", name, err)
				return
			}
		}
	})
	return builtinsErr
}

func placeholderFilter(kind string) interfaces.FilterFunc {
	return func(input any, _ any) (any, error) {
		name := strings.TrimSpace(toString(input))
		if name == "" {
			return "", nil
		}
		return assets.Placeholder(kind, name), nil
	}
}

// stylesheetTag turns an asset placeholder into a stylesheet placeholder and
// any other URL into a link element.
func stylesheetTag(input any, _ any) (any, error) {
	value := strings.TrimSpace(toString(input))
	if value == "" {
		return "", nil
	}
	if name, ok := assetName(value); ok {
		return assets.Placeholder(assets.KindStylesheet, name), nil
	}
	return fmt.Sprintf(`<link rel="stylesheet" href="%s">`, value), nil
}

func scriptTag(input any, _ any) (any, error) {
	value := strings.TrimSpace(toString(input))
	if value == "" {
		return "", nil
	}
	return fmt.Sprintf(`<script src="%s" defer></script>`, value), nil
}

func markdownFilter(input any, _ any) (any, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(toString(input)), &buf); err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	return buf.String(), nil
}

func handleFilter(input any, _ any) (any, error) {
	value := toString(input)
	normalized, err := slug.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("handle: %w", err)
	}
	return normalized, nil
}

func jsonFilter(input any, _ any) (any, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return string(data), nil
}

func assetName(value string) (string, bool) {
	prefix := "[[" + assets.KindAsset + ":"
	if !strings.HasPrefix(value, prefix) || !strings.HasSuffix(value, "]]") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(value, prefix), "]]"), true
}

func toString(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
