package render

import (
	"bytes"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/internal/logging/console"
	"github.com/goliatone/go-storefront/internal/settings"
)

func TestChildScopeReadsThroughAndShadows(t *testing.T) {
	root := NewRootContext(map[string]any{
		"shop":    map[string]any{"name": "Acme"},
		"section": map[string]any{"id": "root"},
	})
	child := root.ChildScope(map[string]any{"section": map[string]any{"id": "hero"}})

	if value, ok := child.Lookup("shop.name"); !ok || value != "Acme" {
		t.Fatalf("expected read-through to root, got %v (%v)", value, ok)
	}
	if value, _ := child.Lookup("section.id"); value != "hero" {
		t.Fatalf("expected child to shadow section, got %v", value)
	}
	if value, _ := root.Lookup("section.id"); value != "root" {
		t.Fatalf("expected root untouched, got %v", value)
	}

	vars := child.Vars()
	if vars["section"].(map[string]any)["id"] != "hero" || vars["shop"] == nil {
		t.Fatalf("unexpected flattened vars %v", vars)
	}
	if child.Root() != root {
		t.Fatalf("expected Root() to return the page scope")
	}
}

func TestChildScopeIsolatesRegisters(t *testing.T) {
	root := NewRootContext(nil, WithThemeSettings(settings.Map{"accent": settings.String("#000")}))
	root.SetRegister("translations", "shared")

	first := root.ChildScope(nil)
	second := root.ChildScope(nil)
	first.SetRegister(RegisterSettings, settings.Map{"title": settings.String("first")})

	if got := second.Register(RegisterSettings).(settings.Map); !got["accent"].Equal(settings.String("#000")) {
		t.Fatalf("expected sibling to keep theme settings, got %v", got)
	}
	if _, ok := root.Register(RegisterSettings).(settings.Map)["title"]; ok {
		t.Fatalf("expected child register write not to reach the root")
	}
	if first.Register("translations") != "shared" || second.Register("translations") != "shared" {
		t.Fatalf("expected shared registers to be copied into children")
	}
}

func TestLookupTraversesSettingsAndLists(t *testing.T) {
	root := NewRootContext(map[string]any{
		"settings": settings.Map{"social": settings.MapOf(map[string]settings.Value{"x": settings.String("@acme")})},
		"items":    []any{"a", "b"},
	})
	cases := map[string]any{
		"settings.social.x": settings.String("@acme"),
		"items.1":           "b",
		"items.size":        2,
	}
	for path, want := range cases {
		got, ok := root.Lookup(path)
		if !ok {
			t.Fatalf("%s: expected value", path)
		}
		if v, isValue := got.(settings.Value); isValue {
			if !v.Equal(want.(settings.Value)) {
				t.Fatalf("%s: expected %v, got %v", path, want, v)
			}
			continue
		}
		if got != want {
			t.Fatalf("%s: expected %v, got %v", path, want, got)
		}
	}
	if _, ok := root.Lookup("items.9"); ok {
		t.Fatalf("expected out of range index to be unresolved")
	}
	if _, ok := root.Lookup(""); ok {
		t.Fatalf("expected empty path to be unresolved")
	}
}

func TestDepthGuardIsBoundedAndReleased(t *testing.T) {
	root := NewRootContext(nil, WithMaxDepth(2))

	releaseOne, fault := root.enter("a")
	if fault != nil {
		t.Fatalf("unexpected fault at depth 1: %v", fault)
	}
	releaseTwo, fault := root.enter("b")
	if fault != nil {
		t.Fatalf("unexpected fault at depth 2: %v", fault)
	}
	release, fault := root.enter("c")
	if fault == nil || fault.Kind != KindRecursionLimitExceeded {
		t.Fatalf("expected recursion limit fault, got %v", fault)
	}
	release()
	if root.Depth() != 2 {
		t.Fatalf("expected refused entry not to change depth, got %d", root.Depth())
	}

	releaseTwo()
	releaseOne()
	if root.Depth() != 0 {
		t.Fatalf("expected depth to be released, got %d", root.Depth())
	}
}

func TestReportHonoursProduction(t *testing.T) {
	fault := newError(KindSectionSourceMissing, "hero", "sections/hero.tmpl", nil)

	dev := NewRootContext(nil)
	if out := dev.report(fault); out == "" {
		t.Fatalf("expected diagnostic comment outside production")
	}
	prod := NewRootContext(nil, WithProduction(true))
	if out := prod.report(fault); out != "" {
		t.Fatalf("expected empty output in production, got %q", out)
	}
	if len(prod.Diagnostics()) != 1 || prod.Diagnostics()[0].Section != "hero" {
		t.Fatalf("expected recorded diagnostic, got %v", prod.Diagnostics())
	}
}

func TestErrorCategorization(t *testing.T) {
	err := newError(KindTemplateSpecInvalid, "", "templates/index.json", nil)
	if !IsKind(err, KindTemplateSpecInvalid) {
		t.Fatalf("expected IsKind to match")
	}
	categorized := err.categorized()
	if !goerrors.IsCategory(categorized, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", categorized)
	}
	if !goerrors.IsCategory(newError(KindSectionSourceMissing, "", "", nil).categorized(), goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category for missing sources")
	}
}

func TestReportLogsCategoryAndCode(t *testing.T) {
	var buf bytes.Buffer
	logger := console.NewProvider(console.WithWriter(&buf)).GetLogger("storefront.render")
	root := NewRootContext(nil, WithLogger(logger))

	root.report(newError(KindSectionSourceMissing, "hero", "sections/hero.tmpl", nil))

	out := buf.String()
	for _, want := range []string{"WARN render.section_source_missing", "category=not_found", "code=SECTION_SOURCE_MISSING", "section=hero"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}
