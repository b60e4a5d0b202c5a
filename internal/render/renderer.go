package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-storefront/internal/assets"
	"github.com/goliatone/go-storefront/internal/i18n"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/schema"
	"github.com/goliatone/go-storefront/internal/settings"
	"github.com/goliatone/go-storefront/internal/themes"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// ContentTypeHTML is the content type of rendered pages.
const ContentTypeHTML = "text/html; charset=UTF-8"

// Config tunes the renderer.
type Config struct {
	MaxDepth      int
	DefaultLayout string
	AssetBaseURL  string
	Production    bool
	SampleBytes   int
}

// ThemeSource looks up theme metadata. Renders proceed with a minimal theme
// when no source is configured or the lookup fails.
type ThemeSource interface {
	Theme(ctx context.Context, storeID, themeID string) (*themes.Theme, error)
}

// Request describes one page render.
type Request struct {
	StoreID          string
	ThemeID          string
	Path             string
	Query            url.Values
	Locale           string
	Variant          string
	Shop             map[string]any
	Objects          map[string]any
	ContentForHeader string
}

// Page is a rendered document.
type Page struct {
	HTML        string
	ContentType string
	Template    string
	NotFound    bool
	Diagnostics []Diagnostic
}

// Renderer composes theme templates into pages.
type Renderer struct {
	cfg          Config
	engine       interfaces.TemplateEngine
	provider     interfaces.FileProvider
	resolver     *Resolver
	sections     *SectionRenderer
	composer     *Composer
	layouts      *LayoutBinder
	translations *i18n.Injector
	descriptors  *themes.DescriptorSelector
	themeSource  ThemeSource
	logger       interfaces.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithConfig overrides the renderer configuration.
func WithConfig(cfg Config) Option {
	return func(r *Renderer) {
		r.cfg = cfg
	}
}

// WithRendererLogger sets the base logger.
func WithRendererLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTranslations enables locale dictionaries.
func WithTranslations(injector *i18n.Injector) Option {
	return func(r *Renderer) {
		r.translations = injector
	}
}

// WithDescriptors exposes theme manifests as theme.tokens and
// theme.css_variables.
func WithDescriptors(selector *themes.DescriptorSelector) Option {
	return func(r *Renderer) {
		r.descriptors = selector
	}
}

// WithThemeSource sets the theme metadata lookup.
func WithThemeSource(source ThemeSource) Option {
	return func(r *Renderer) {
		r.themeSource = source
	}
}

// NewRenderer wires a renderer over engine and provider.
func NewRenderer(engine interfaces.TemplateEngine, provider interfaces.FileProvider, opts ...Option) (*Renderer, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	r := &Renderer{
		cfg:      Config{MaxDepth: DefaultMaxDepth, DefaultLayout: DefaultLayout},
		engine:   engine,
		provider: provider,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	sampleBytes := r.cfg.SampleBytes
	if sampleBytes <= 0 {
		sampleBytes = schema.DefaultSampleBytes
	}
	extractor := schema.NewExtractor(schema.WithLogger(r.logger), schema.WithSampleBytes(sampleBytes))

	r.resolver = NewResolver(provider)
	r.sections = NewSectionRenderer(engine, provider, extractor)
	r.composer = NewComposer(engine, r.sections)
	r.layouts = NewLayoutBinder(engine, provider, r.cfg.DefaultLayout)
	return r, nil
}

// RenderPage renders the page for req. Contained faults are reported in
// Page.Diagnostics; an error is returned only for invalid requests and
// provider failures.
func (r *Renderer) RenderPage(ctx context.Context, req Request) (*Page, error) {
	storeID := strings.TrimSpace(req.StoreID)
	themeID := strings.TrimSpace(req.ThemeID)
	if storeID == "" {
		return nil, ErrStoreRequired
	}
	if themeID == "" {
		return nil, ErrThemeRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.WithRenderContext(r.logger.WithContext(ctx), storeID, themeID, req.Path)

	res, err := r.resolver.Resolve(ctx, storeID, themeID, req.Path, req.Query.Get("view"))
	if err != nil {
		return nil, err
	}

	themeSettings, err := themes.LoadSettings(ctx, r.provider, storeID, themeID)
	if err != nil {
		logger.Warn("render.theme_settings_invalid", "error", err)
	}

	root := NewRootContext(nil,
		WithMaxDepth(r.cfg.MaxDepth),
		WithProduction(r.cfg.Production),
		WithLogger(logger),
		WithTheme(storeID, themeID, assets.NewRewriter(r.cfg.AssetBaseURL, storeID, themeID)),
		WithThemeSettings(themeSettings),
		withSubRenderer(func(scope *Context) interfaces.SubRenderer {
			return &subRenderer{ctx: ctx, renderer: r, scope: scope}
		}),
	)
	if res.NotFound {
		logger.Info("render.template_not_found", "template", res.Name, "builtin", res.Builtin)
		root.note(Diagnostic{Kind: KindTemplateNotFound, Path: req.Path, Message: "rendered " + res.Name})
	}

	locale := strings.TrimSpace(req.Locale)
	if r.translations != nil {
		r.translations.Inject(ctx, root.Registers(), storeID, themeID, req.Locale)
		if resolved, ok := root.Register(i18n.RegisterLocale).(string); ok && resolved != "" {
			locale = resolved
		}
	}
	r.populate(ctx, root, req, res, themeSettings, locale)

	var content string
	spec, err := ParseTemplateSpec(res)
	if err != nil {
		var specErr *Error
		if !errors.As(err, &specErr) {
			specErr = newError(KindTemplateSpecInvalid, "", res.Path, err)
		}
		if spec == nil {
			content = root.report(specErr)
		} else {
			logger.Warn("render.template_spec_invalid", "path", res.Path, "error", specErr.Err)
			root.note(diagnosticFrom(specErr))
		}
	}
	layout := ""
	if spec != nil {
		content = r.composer.Compose(ctx, spec, root)
		layout = spec.Layout
	}
	html := r.layouts.Bind(ctx, layout, content, root)

	diagnostics := root.Diagnostics()
	logger.Debug("render.page.complete", "template", res.Name, "not_found", res.NotFound, "diagnostics", len(diagnostics))
	return &Page{
		HTML:        html,
		ContentType: ContentTypeHTML,
		Template:    res.Name,
		NotFound:    res.NotFound,
		Diagnostics: diagnostics,
	}, nil
}

func (r *Renderer) populate(ctx context.Context, root *Context, req Request, res Resolution, themeSettings settings.Map, locale string) {
	for key, value := range req.Objects {
		root.Set(key, value)
	}

	shop := map[string]any{"id": strings.TrimSpace(req.StoreID)}
	maps.Copy(shop, req.Shop)

	theme := r.theme(ctx, root, req)
	themeVars := theme.Template()
	header := req.ContentForHeader
	if r.descriptors != nil {
		descriptor, err := r.descriptors.Select(ctx, theme, req.Variant)
		if err != nil {
			root.Logger().Warn("render.theme_descriptor_failed", "error", err)
		}
		if descriptor != nil {
			maps.Copy(themeVars, descriptor.Template())
			header += cssVariablesStyle(descriptor.CSSVariables)
		}
	}

	query := map[string]any{}
	for key, values := range req.Query {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	view := req.Query.Get("view")

	root.Set("shop", shop)
	root.Set("theme", themeVars)
	root.Set("settings", themeSettings.Template())
	root.Set("content_for_header", header)
	root.Set("request", map[string]any{
		"path":        cleanRequestPath(req.Path),
		"query":       query,
		"locale":      locale,
		"page_type":   res.Name,
		"design_mode": false,
	})
	root.Set("template", map[string]any{
		"name":      path.Base(res.Name),
		"directory": templateDirectory(res.Name),
		"suffix":    view,
		"path":      res.Path,
	})
}

func (r *Renderer) theme(ctx context.Context, root *Context, req Request) *themes.Theme {
	storeID, themeID := strings.TrimSpace(req.StoreID), strings.TrimSpace(req.ThemeID)
	if r.themeSource != nil {
		theme, err := r.themeSource.Theme(ctx, storeID, themeID)
		if err == nil && theme != nil {
			return theme
		}
		if err != nil {
			root.Logger().Debug("render.theme_lookup_failed", "error", err)
		}
	}
	return &themes.Theme{StoreID: storeID, Handle: themeID, Name: themeID, Role: themes.RoleMain}
}

func cleanRequestPath(requestPath string) string {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	return path.Clean("/" + requestPath)
}

func templateDirectory(name string) string {
	if dir := path.Dir(name); dir != "." {
		return dir
	}
	return ""
}

func cssVariablesStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<style data-storefront-theme>:root{`)
	for _, key := range keys {
		name := key
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		fmt.Fprintf(&b, "%s:%s;", name, strings.NewReplacer("<", "", ">", "", ";", "").Replace(vars[key]))
	}
	b.WriteString(`}</style>`)
	return b.String()
}

// subRenderer serves render and section tags for one scope.
type subRenderer struct {
	ctx      context.Context
	renderer *Renderer
	scope    *Context
}

var snippetExtensions = []string{".tmpl", ".liquid"}

// RenderSnippet renders snippets/<name> in an isolated scope holding the
// page globals and vars.
func (h *subRenderer) RenderSnippet(name string, vars map[string]any) string {
	name = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(name), ".tmpl"), ".liquid")
	target := "snippets/" + name
	release, fault := h.scope.enter(target)
	defer release()
	if fault != nil {
		return h.scope.report(fault)
	}

	source, snippetPath, err := h.read(target)
	if err != nil {
		return h.scope.report(newError(KindSectionSourceMissing, "", snippetPath, err))
	}
	scope := h.scope.Root().ChildScope(vars)
	prepared := prepareSource(source)
	out, err := execute(h.renderer.engine, prepared, scope)
	if err != nil {
		return h.scope.report(newError(KindSectionExecutionError, "", snippetPath, err))
	}
	if hasMarkers(out) {
		out = correct(out, prepared, scope)
	}
	return out
}

// RenderSection renders a static section by type.
func (h *subRenderer) RenderSection(sectionType string) string {
	return h.renderer.composer.StaticSection(h.ctx, strings.TrimSpace(sectionType), h.scope)
}

func (h *subRenderer) read(base string) (string, string, error) {
	if strings.TrimPrefix(base, "snippets/") == "" {
		return "", base, errors.New("snippet name required")
	}
	state := h.scope.state
	for _, ext := range snippetExtensions {
		data, err := h.renderer.provider.Read(h.ctx, state.storeID, state.themeID, base+ext)
		if err == nil {
			return string(data), base + ext, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", base + ext, err
		}
	}
	return "", base + snippetExtensions[0], fmt.Errorf("%s: %w", base, fs.ErrNotExist)
}
