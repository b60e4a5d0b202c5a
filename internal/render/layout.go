package render

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"strings"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// DefaultLayout is the layout used when a template names none.
const DefaultLayout = "theme"

// FallbackLayout binds the page when the theme ships no layout.
const FallbackLayout = `<!doctype html><html><head>{{ content_for_header }}</head><body>{{ content_for_layout }}</body></html>`

const (
	layoutSentinel = "\x00storefront:content_for_layout\x00"
	headerSentinel = "\x00storefront:content_for_header\x00"
)

var (
	layoutSlotPattern = regexp.MustCompile(`\{\{-?\s*content_for_layout\s*-?\}\}`)
	headerSlotPattern = regexp.MustCompile(`\{\{-?\s*content_for_header\s*-?\}\}`)
	layoutExtensions  = []string{".tmpl", ".liquid"}
)

// LayoutBinder wraps page content in the theme layout.
type LayoutBinder struct {
	engine        interfaces.TemplateEngine
	provider      interfaces.FileProvider
	defaultLayout string
}

// NewLayoutBinder builds a binder. defaultLayout falls back to "theme".
func NewLayoutBinder(engine interfaces.TemplateEngine, provider interfaces.FileProvider, defaultLayout string) *LayoutBinder {
	defaultLayout = strings.TrimSpace(defaultLayout)
	if defaultLayout == "" {
		defaultLayout = DefaultLayout
	}
	return &LayoutBinder{engine: engine, provider: provider, defaultLayout: defaultLayout}
}

// Bind renders layout name around content. Execution failures and slots left
// literal in the output are repaired and recorded, never returned. A layout
// that leaves content out through its own logic is not a fault.
func (b *LayoutBinder) Bind(ctx context.Context, name, content string, root *Context) string {
	name = strings.TrimSpace(name)
	if name == LayoutNone {
		return root.state.rewriter.Rewrite(content)
	}
	if name == "" {
		name = b.defaultLayout
	}
	source, path := b.load(ctx, root, name)

	header := ""
	if value, ok := root.Get("content_for_header"); ok {
		header = display(value)
	}
	root.Set("content_for_layout", content)
	root.Set("content_for_header", header)

	out, err := execute(b.engine, prepareSource(source), root)
	switch {
	case err != nil:
		root.report(newError(KindLayoutSubstitutionFault, "", path, err))
		out = b.patch(source, content, header, root)
	case layoutSlotPattern.MatchString(out) || headerSlotPattern.MatchString(out):
		root.report(newError(KindLayoutSubstitutionFault, "", path, errors.New("layout output contains unsubstituted slots")))
		out = layoutSlotPattern.ReplaceAllLiteralString(out, content)
		out = headerSlotPattern.ReplaceAllLiteralString(out, header)
	}
	return root.state.rewriter.Rewrite(out)
}

// patch substitutes the slots directly into the raw layout source. Other
// markers are resolved or dropped by the corrective pass; content missing a
// slot is placed before </body>.
func (b *LayoutBinder) patch(source, content, header string, root *Context) string {
	patched := layoutSlotPattern.ReplaceAllLiteralString(prepareSource(source), layoutSentinel)
	patched = headerSlotPattern.ReplaceAllLiteralString(patched, headerSentinel)
	patched = correct(patched, patched, root)
	if !strings.Contains(patched, layoutSentinel) {
		if i := strings.LastIndex(strings.ToLower(patched), "</body>"); i >= 0 {
			patched = patched[:i] + layoutSentinel + patched[i:]
		} else {
			patched += layoutSentinel
		}
	}
	patched = strings.ReplaceAll(patched, headerSentinel, header)
	return strings.ReplaceAll(patched, layoutSentinel, content)
}

// load reads layout name, then the default layout, then the built-in
// fallback.
func (b *LayoutBinder) load(ctx context.Context, root *Context, name string) (string, string) {
	names := []string{name}
	if name != b.defaultLayout {
		names = append(names, b.defaultLayout)
	}
	for _, candidate := range names {
		for _, ext := range layoutExtensions {
			path := "layout/" + candidate + ext
			data, err := b.provider.Read(ctx, root.state.storeID, root.state.themeID, path)
			if err == nil {
				return string(data), path
			}
			if !errors.Is(err, fs.ErrNotExist) {
				root.Logger().Warn("render.layout.read_failed", "path", path, "error", err)
			}
		}
		root.Logger().Debug("render.layout.missing", "layout", candidate)
	}
	return FallbackLayout, ""
}
