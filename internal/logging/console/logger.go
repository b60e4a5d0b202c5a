package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a configuration string onto a Level. Unknown values report
// false.
func ParseLevel(value string) (Level, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "WARNING" {
		value = "WARN"
	}
	for i, name := range levelNames {
		if name == value {
			return Level(i), true
		}
	}
	return LevelInfo, false
}

// Option configures the console provider.
type Option func(*Provider)

// WithWriter sets the output, stdout by default.
func WithWriter(w io.Writer) Option {
	return func(p *Provider) {
		if w != nil {
			p.out = w
		}
	}
}

// WithClock overrides the entry timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLevel sets the minimum severity written. DEBUG by default.
func WithLevel(level Level) Option {
	return func(p *Provider) {
		p.min = level
	}
}

// WithFocus restricts output to loggers whose name matches one of the given
// module names or is nested below one (storefront.render matches
// storefront.render.section). Errors are always written.
func WithFocus(modules ...string) Option {
	return func(p *Provider) {
		for _, module := range modules {
			if module = strings.TrimSpace(module); module != "" {
				p.focus = append(p.focus, module)
			}
		}
	}
}

// Provider writes "<timestamp> <LEVEL> <message> key=value..." lines with
// fields sorted by key.
type Provider struct {
	out   io.Writer
	clock func() time.Time
	min   Level
	focus []string
	mu    sync.Mutex
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider constructs a console logger provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{out: os.Stdout, clock: time.Now, min: LevelDebug}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	name = strings.TrimSpace(name)
	return &logger{
		provider: p,
		focused:  p.focused(name),
		fields:   map[string]any{"logger": name},
	}
}

func (p *Provider) focused(name string) bool {
	if len(p.focus) == 0 {
		return true
	}
	for _, module := range p.focus {
		if name == module || strings.HasPrefix(name, module+".") {
			return true
		}
	}
	return false
}

func (p *Provider) write(level Level, msg string, fields map[string]any) {
	line := format(p.clock().UTC(), level, msg, fields)
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, line)
}

type logger struct {
	provider *Provider
	focused  bool
	fields   map[string]any
	ctx      context.Context
}

var (
	_ interfaces.Logger       = (*logger)(nil)
	_ interfaces.FieldsLogger = (*logger)(nil)
)

func (l *logger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	next := *l
	next.fields = maps.Clone(l.fields)
	maps.Copy(next.fields, fields)
	return &next
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	next := *l
	next.ctx = ctx
	return &next
}

func (l *logger) log(level Level, msg string, args []any) {
	if l.provider == nil || level < l.provider.min {
		return
	}
	if !l.focused && level < LevelError {
		return
	}
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	pairs(fields, args)
	l.provider.write(level, msg, fields)
}

// pairs copies key/value args into fields. Values without a usable string
// key are kept under positional arg_<n> keys.
func pairs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields[fmt.Sprintf("arg_%d", i/2)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		fields[key] = args[i+1]
	}
}

func format(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value(fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

func value(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return v.String()
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
