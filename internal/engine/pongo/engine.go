package pongo

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-storefront/internal/i18n"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// registersKey carries the register map through the pongo2 execution context
// so custom tags can reach it.
const registersKey = "_storefront_registers"

var (
	ErrIncludeDisabled    = errors.New("pongo: template includes are disabled, use the render tag")
	ErrUnknownTemplate    = errors.New("pongo: template was not compiled by this engine")
	ErrFilterNameRequired = errors.New("pongo: filter name required")
	ErrFilterRequired     = errors.New("pongo: filter function required")
)

var bannedTags = []string{"include", "import", "extends", "ssi"}

var (
	outputPattern   = regexp.MustCompile(`(?s)\{\{(-?)(.*?)(-?)\}\}`)
	verbatimPattern = regexp.MustCompile(`(?s)\{%-?\s*verbatim\s*-?%\}.*?\{%-?\s*endverbatim\s*-?%\}`)
)

var filterMu sync.Mutex

// Engine executes Django style templates with pongo2. Autoescaping is off:
// themes control their own markup. Filters are registered process wide and
// the last registration of a name wins.
type Engine struct {
	set   *pongo2.TemplateSet
	cache sync.Map
}

type compiled struct {
	tpl    *pongo2.Template
	engine *Engine
}

var _ interfaces.TemplateEngine = (*Engine)(nil)

// New builds an engine with the storefront tags and filters registered.
func New() (*Engine, error) {
	if err := registerBuiltins(); err != nil {
		return nil, err
	}
	set := pongo2.NewSet("storefront", denyLoader{})
	for _, tag := range bannedTags {
		if err := set.BanTag(tag); err != nil {
			return nil, fmt.Errorf("pongo: ban tag %s: %w", tag, err)
		}
	}
	return &Engine{set: set}, nil
}

// Compile parses source. Compiled templates are cached by source digest.
func (e *Engine) Compile(source string) (interfaces.CompiledTemplate, error) {
	key := sha256.Sum256([]byte(source))
	if cached, ok := e.cache.Load(key); ok {
		return cached.(*compiled), nil
	}
	tpl, err := e.set.FromString(wrapSource(source))
	if err != nil {
		return nil, fmt.Errorf("pongo: compile: %w", err)
	}
	actual, _ := e.cache.LoadOrStore(key, &compiled{tpl: tpl, engine: e})
	return actual.(*compiled), nil
}

// Execute runs tpl against vars. registers are reachable from the render,
// section and t tags; a "t" function is exposed unless vars defines one.
func (e *Engine) Execute(tpl interfaces.CompiledTemplate, vars map[string]any, registers map[string]any) (out string, err error) {
	c, ok := tpl.(*compiled)
	if !ok || c == nil || c.engine != e {
		return "", ErrUnknownTemplate
	}
	if registers == nil {
		registers = map[string]any{}
	}
	ctx := make(pongo2.Context, len(vars)+2)
	for key, value := range vars {
		ctx[key] = value
	}
	ctx[registersKey] = registers
	if _, exists := ctx["t"]; !exists {
		ctx["t"] = translateFunc(registers)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("pongo: execute: panic: %v", r)
		}
	}()
	out, err = c.tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("pongo: execute: %w", err)
	}
	return out, nil
}

// RegisterFilter exposes fn to templates as name. Cached templates are
// dropped because pongo2 binds filters at parse time.
func (e *Engine) RegisterFilter(name string, fn interfaces.FilterFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrFilterNameRequired
	}
	if fn == nil {
		return ErrFilterRequired
	}
	if err := setFilter(name, fn); err != nil {
		return err
	}
	e.cache.Range(func(key, _ any) bool {
		e.cache.Delete(key)
		return true
	})
	return nil
}

func setFilter(name string, fn interfaces.FilterFunc) error {
	filterMu.Lock()
	defer filterMu.Unlock()
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, adaptFilter(name, fn))
	}
	return pongo2.RegisterFilter(name, adaptFilter(name, fn))
}

func adaptFilter(name string, fn interfaces.FilterFunc) pongo2.FilterFunction {
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil && !param.IsNil() {
			arg = param.Interface()
		}
		var input any
		if in != nil && !in.IsNil() {
			input = in.Interface()
		}
		out, err := fn(input, arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	}
}

// wrapSource turns autoescaping off and compiles {{ expr }} to the echo
// tag, leaving verbatim blocks alone.
func wrapSource(source string) string {
	var b strings.Builder
	b.WriteString("{% autoescape off %}")
	last := 0
	for _, span := range verbatimPattern.FindAllStringIndex(source, -1) {
		b.WriteString(echoOutputs(source[last:span[0]]))
		b.WriteString(source[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(echoOutputs(source[last:]))
	b.WriteString("{% endautoescape %}")
	return b.String()
}

func echoOutputs(source string) string {
	return outputPattern.ReplaceAllString(source, "{%${1} echo ${2} ${3}%}")
}

// translateFunc backs t(key, ...) calls. Parameters are either a single map
// or alternating name and value arguments.
func translateFunc(registers map[string]any) func(key string, args ...any) string {
	return func(key string, args ...any) string {
		return i18n.Translate(registers, key, params(args))
	}
}

func params(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			return m
		}
	}
	out := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		out[fmt.Sprint(args[i])] = args[i+1]
	}
	return out
}

type denyLoader struct{}

func (denyLoader) Abs(_, name string) string { return name }

func (denyLoader) Get(string) (io.Reader, error) { return nil, ErrIncludeDisabled }
