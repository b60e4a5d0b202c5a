package render

import (
	"maps"
	"strconv"
	"strings"

	"github.com/goliatone/go-storefront/internal/assets"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/settings"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Register keys written by the renderer.
const (
	RegisterSettings  = "settings"
	RegisterSchema    = "schema"
	RegisterSectionID = "section_id"
)

// DefaultMaxDepth bounds nested template renders of a single page.
const DefaultMaxDepth = 10

// Context is one scope of a page render. Variable lookups read through to
// parent scopes; registers are copied per scope so siblings never observe
// each other's settings or schema.
type Context struct {
	parent    *Context
	vars      map[string]any
	registers map[string]any
	state     *renderState
}

// renderState is shared by every scope of one page render.
type renderState struct {
	guard       depthGuard
	production  bool
	logger      interfaces.Logger
	storeID     string
	themeID     string
	rewriter    assets.Rewriter
	merger      settings.Merger
	subRenderer func(*Context) interfaces.SubRenderer
	diagnostics []Diagnostic
}

// ContextOption configures a root context.
type ContextOption func(*Context)

// WithMaxDepth overrides the nested render ceiling.
func WithMaxDepth(n int) ContextOption {
	return func(c *Context) {
		if n > 0 {
			c.state.guard.max = n
		}
	}
}

// WithProduction suppresses diagnostic comments in rendered output.
func WithProduction(production bool) ContextOption {
	return func(c *Context) {
		c.state.production = production
	}
}

// WithLogger sets the logger used for contained faults.
func WithLogger(logger interfaces.Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.state.logger = logger
		}
	}
}

// WithTheme scopes the render to a store theme and its asset rewriter.
func WithTheme(storeID, themeID string, rewriter assets.Rewriter) ContextOption {
	return func(c *Context) {
		c.state.storeID = storeID
		c.state.themeID = themeID
		c.state.rewriter = rewriter
	}
}

// WithThemeSettings installs theme wide settings as the last merge tier and
// as the root "settings" register.
func WithThemeSettings(theme settings.Map) ContextOption {
	return func(c *Context) {
		c.state.merger = settings.NewMerger(theme)
		c.registers[RegisterSettings] = theme
	}
}

func withSubRenderer(factory func(*Context) interfaces.SubRenderer) ContextOption {
	return func(c *Context) {
		c.state.subRenderer = factory
	}
}

// NewRootContext builds the page level scope holding globals such as shop,
// theme, request, content_for_header and settings.
func NewRootContext(globals map[string]any, opts ...ContextOption) *Context {
	c := &Context{
		vars:      maps.Clone(globals),
		registers: map[string]any{},
		state: &renderState{
			guard:  depthGuard{max: DefaultMaxDepth},
			logger: logging.NoOp(),
		},
	}
	if c.vars == nil {
		c.vars = map[string]any{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ChildScope returns a scope shadowing c with overrides. The register map is
// a shallow copy of c's.
func (c *Context) ChildScope(overrides map[string]any) *Context {
	child := &Context{
		parent:    c,
		vars:      maps.Clone(overrides),
		registers: maps.Clone(c.registers),
		state:     c.state,
	}
	if child.vars == nil {
		child.vars = map[string]any{}
	}
	if child.registers == nil {
		child.registers = map[string]any{}
	}
	return child
}

// Root returns the page level scope.
func (c *Context) Root() *Context {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

// Get resolves name in c or the nearest parent defining it.
func (c *Context) Get(name string) (any, bool) {
	for scope := c; scope != nil; scope = scope.parent {
		if value, ok := scope.vars[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Set defines name in c only.
func (c *Context) Set(name string, value any) {
	c.vars[name] = value
}

// Vars flattens the scope chain, nearer scopes winning.
func (c *Context) Vars() map[string]any {
	var chain []*Context
	for scope := c; scope != nil; scope = scope.parent {
		chain = append(chain, scope)
	}
	out := map[string]any{}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].vars)
	}
	return out
}

// Lookup resolves a dotted path such as "section.settings.title".
func (c *Context) Lookup(path string) (any, bool) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	if len(parts) == 0 || parts[0] == "" {
		return nil, false
	}
	value, ok := c.Get(parts[0])
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		value, ok = descend(value, part)
		if !ok {
			return nil, false
		}
	}
	return value, true
}

func descend(value any, key string) (any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		v, ok := typed[key]
		return v, ok
	case map[string]string:
		v, ok := typed[key]
		return v, ok
	case settings.Map:
		v, ok := typed.Get(key)
		return v, ok
	case settings.Value:
		if m, ok := typed.AsMap(); ok {
			return descend(m, key)
		}
		if list, ok := typed.AsList(); ok {
			return descend(list, key)
		}
	case []settings.Value:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(typed) {
			return typed[i], true
		}
	case []any:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(typed) {
			return typed[i], true
		}
		if key == "size" {
			return len(typed), true
		}
	}
	return nil, false
}

// Register returns the register stored under key.
func (c *Context) Register(key string) any {
	return c.registers[key]
}

// SetRegister stores value in c's register map.
func (c *Context) SetRegister(key string, value any) {
	c.registers[key] = value
}

// Registers exposes c's register map.
func (c *Context) Registers() map[string]any {
	return c.registers
}

// Diagnostics returns the faults recorded so far in this render.
func (c *Context) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.state.diagnostics...)
}

// Depth reports the current nesting depth.
func (c *Context) Depth() int {
	return c.state.guard.depth
}

// Production reports whether diagnostics are hidden from output.
func (c *Context) Production() bool {
	return c.state.production
}

// Logger returns the logger of the render.
func (c *Context) Logger() interfaces.Logger {
	return c.state.logger
}

// enter claims one nesting level for target. The release func is always
// non-nil.
func (c *Context) enter(target string) (func(), *Error) {
	release, ok := c.state.guard.enter()
	if !ok {
		return release, newError(KindRecursionLimitExceeded, "", target, errRecursionLimit(c.state.guard.max))
	}
	return release, nil
}

// report records err, logs it and returns the markup that replaces the
// failed fragment.
func (c *Context) report(err *Error) string {
	d := diagnosticFrom(err)
	c.state.diagnostics = append(c.state.diagnostics, d)
	categorized := err.categorized()
	c.state.logger.Warn("render."+string(err.Kind),
		"section", err.Section,
		"path", err.Path,
		"category", categorized.Category,
		"code", categorized.TextCode,
		"error", err.Err,
	)
	if c.state.production {
		return ""
	}
	return d.comment()
}

// note records a diagnostic that produces no markup.
func (c *Context) note(d Diagnostic) {
	c.state.diagnostics = append(c.state.diagnostics, d)
}
