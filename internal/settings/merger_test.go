package settings

import (
	"encoding/json"
	"testing"
)

func TestMergerSectionPrecedence(t *testing.T) {
	decls := []Declaration{
		{ID: "title", Default: String("Default title")},
		{ID: "show_price", Default: Bool(false)},
		{ID: "columns", Default: Number(3)},
		{ID: "accent"},
		{ID: "missing"},
	}
	instance := Map{
		"title":  String("Instance title"),
		"custom": String("kept"),
	}
	flat := Map{
		"title":      String("Flat title"),
		"show_price": Bool(true),
		"columns":    List(Number(1)),
	}
	theme := Map{
		"accent":     String("#ff0000"),
		"show_price": Bool(false),
		"columns":    Number(9),
	}

	got := NewMerger(theme).Section(decls, instance, flat)

	cases := map[string]Value{
		"title":      String("Instance title"),
		"show_price": Bool(true),
		"columns":    Number(3),
		"accent":     String("#ff0000"),
		"custom":     String("kept"),
	}
	for id, want := range cases {
		v, ok := got[id]
		if !ok {
			t.Fatalf("expected %s to be set", id)
		}
		if !v.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", id, want, v)
		}
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("expected missing setting to stay unset")
	}
}

func TestMergerSectionNullFallsThrough(t *testing.T) {
	decls := []Declaration{{ID: "heading", Default: String("Hello")}}
	got := Merger{}.Section(decls, Map{"heading": Null()}, nil)
	if v := got["heading"]; !v.Equal(String("Hello")) {
		t.Fatalf("expected default after explicit null, got %v", v)
	}
}

func TestMergerBlockIgnoresThemeTier(t *testing.T) {
	decls := []Declaration{{ID: "text", Default: String("Block default")}, {ID: "accent"}}
	m := NewMerger(Map{"accent": String("#000"), "text": String("theme")})

	got := m.Block(decls, Map{"extra": Number(2)})

	if v := got["text"]; !v.Equal(String("Block default")) {
		t.Fatalf("expected schema default, got %v", v)
	}
	if _, ok := got["accent"]; ok {
		t.Fatalf("expected theme tier to be skipped for blocks")
	}
	if v := got["extra"]; !v.Equal(Number(2)) {
		t.Fatalf("expected undeclared block setting copied, got %v", v)
	}
}

func TestMergerDoesNotMutateInputs(t *testing.T) {
	theme := Map{"accent": String("#fff")}
	instance := Map{"title": String("x")}
	decls := []Declaration{{ID: "accent"}, {ID: "title"}}

	out := NewMerger(theme).Section(decls, instance, nil)
	out["accent"] = String("changed")

	if v := theme["accent"]; !v.Equal(String("#fff")) {
		t.Fatalf("theme settings were mutated: %v", v)
	}
	if len(instance) != 1 {
		t.Fatalf("instance settings were mutated: %v", instance)
	}
}

func TestOverlayAndDefaults(t *testing.T) {
	defaults := Defaults([]Declaration{{ID: "a", Default: Number(1)}, {ID: "b"}})
	if len(defaults) != 1 {
		t.Fatalf("expected one default, got %v", defaults)
	}
	merged := Overlay(defaults, Map{"a": Null(), "c": Bool(true)})
	if v := merged["a"]; !v.Equal(Number(1)) {
		t.Fatalf("expected null overlay to be ignored, got %v", v)
	}
	if v := merged["c"]; !v.Equal(Bool(true)) {
		t.Fatalf("expected overlay value, got %v", v)
	}
}

func TestValueJSONAndTemplateProjection(t *testing.T) {
	var m Map
	if err := json.Unmarshal([]byte(`{"count":3,"ratio":0.5,"on":true,"tags":["a","b"],"nested":{"x":null}}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	projected := m.Template()
	if projected["count"] != 3 {
		t.Fatalf("expected integral number projected as int, got %#v", projected["count"])
	}
	if projected["ratio"] != 0.5 {
		t.Fatalf("expected float, got %#v", projected["ratio"])
	}
	if projected["on"] != true {
		t.Fatalf("expected bool, got %#v", projected["on"])
	}
	tags, ok := projected["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != "b" {
		t.Fatalf("unexpected list projection %#v", projected["tags"])
	}
	nested, ok := projected["nested"].(map[string]any)
	if !ok || nested["x"] != nil {
		t.Fatalf("unexpected map projection %#v", projected["nested"])
	}

	data, err := json.Marshal(m["tags"])
	if err != nil || string(data) != `["a","b"]` {
		t.Fatalf("unexpected marshal output %s (%v)", data, err)
	}
	if got := Number(2.5).String(); got != "2.5" {
		t.Fatalf("unexpected number string %q", got)
	}
}
