package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-storefront/internal/settings"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

type warnRecorder struct {
	messages []string
	args     [][]any
}

func (r *warnRecorder) Trace(string, ...any) {}
func (r *warnRecorder) Debug(string, ...any) {}
func (r *warnRecorder) Info(string, ...any)  {}
func (r *warnRecorder) Warn(msg string, args ...any) {
	r.messages = append(r.messages, msg)
	r.args = append(r.args, args)
}
func (r *warnRecorder) Error(string, ...any)                          {}
func (r *warnRecorder) Fatal(string, ...any)                          {}
func (r *warnRecorder) WithContext(context.Context) interfaces.Logger { return r }

const productDetails = `<h1>{{ section.settings.title }}</h1>
{%- schema -%}
{
  "name": "Product details",
  "class": "product-details",
  "settings": [
    {"id": "title", "type": "text", "default": "Product"},
    {"id": "show_price", "type": "checkbox", "default": false}
  ],
  "blocks": [
    {"type": "text", "limit": 2, "settings": [{"id": "body", "type": "richtext", "default": "Hello"}]}
  ],
  "max_blocks": 4
}
{%- endschema -%}`

func TestExtractParsesSchemaWithWhitespaceControl(t *testing.T) {
	parsed, err := NewExtractor().Extract(productDetails)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if parsed == nil || parsed.Name != "Product details" {
		t.Fatalf("unexpected schema %#v", parsed)
	}
	if parsed.MaxBlocks != 4 || parsed.Class != "product-details" {
		t.Fatalf("unexpected schema limits %#v", parsed)
	}

	decls := parsed.Declarations()
	if len(decls) != 2 || decls[1].ID != "show_price" || !decls[1].Default.Equal(settings.Bool(false)) {
		t.Fatalf("unexpected declarations %#v", decls)
	}

	blockDecls := parsed.BlockDeclarations("text")
	if len(blockDecls) != 1 || !blockDecls[0].Default.Equal(settings.String("Hello")) {
		t.Fatalf("unexpected block declarations %#v", blockDecls)
	}
	if limits := parsed.BlockLimits(); limits["text"] != 2 {
		t.Fatalf("expected text limit 2, got %v", limits)
	}
}

func TestExtractWithoutSchemaIsSilent(t *testing.T) {
	rec := &warnRecorder{}
	parsed, err := NewExtractor(WithLogger(rec)).Extract("<p>plain</p>")
	if parsed != nil || err != nil {
		t.Fatalf("expected no schema and no error, got %v %v", parsed, err)
	}
	if len(rec.messages) != 0 {
		t.Fatalf("expected no warnings, got %v", rec.messages)
	}
}

func TestExtractInvalidSchemaWarnsWithTruncatedSample(t *testing.T) {
	rec := &warnRecorder{}
	body := "{ not json " + strings.Repeat("x", 300)
	source := "{% schema %}" + body + "{% endschema %}"

	parsed, err := NewExtractor(WithLogger(rec)).Extract(source)
	if parsed != nil {
		t.Fatalf("expected nil schema, got %#v", parsed)
	}
	if !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if len(rec.messages) != 1 || rec.messages[0] != "schema.parse_failed" {
		t.Fatalf("expected a single parse warning, got %v", rec.messages)
	}

	var sample string
	args := rec.args[0]
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == "sample" {
			sample, _ = args[i+1].(string)
		}
	}
	if len(sample) != DefaultSampleBytes+len("...") {
		t.Fatalf("expected truncated sample, got %d bytes", len(sample))
	}
}

func TestStripRemovesSchemaBlocks(t *testing.T) {
	stripped := Strip(productDetails)
	if strings.Contains(stripped, "schema") {
		t.Fatalf("expected schema removed, got %q", stripped)
	}
	if !strings.Contains(stripped, "<h1>") {
		t.Fatalf("expected markup kept, got %q", stripped)
	}
}

func TestNilSchemaAccessors(t *testing.T) {
	var s *Schema
	if s.Declarations() != nil || s.BlockLimits() != nil {
		t.Fatalf("expected nil accessors on nil schema")
	}
	if _, ok := s.Block("text"); ok {
		t.Fatalf("expected no block definition")
	}
	if got := s.Template(); len(got) != 0 {
		t.Fatalf("expected empty projection, got %v", got)
	}
}
