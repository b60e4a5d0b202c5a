package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-storefront/internal/blocks"
	"github.com/goliatone/go-storefront/internal/settings"
)

// LayoutNone disables the layout for a template.
const LayoutNone = "none"

//go:embed schemas/template.json
var templateSchemaSource []byte

var (
	templateSchemaOnce sync.Once
	templateSchema     *jsonschema.Schema
	templateSchemaErr  error
)

// SpecKind tells markup templates from JSON page definitions.
type SpecKind int

const (
	SpecMarkup SpecKind = iota
	SpecJSON
)

// TemplateSpec is a resolved page template.
type TemplateSpec struct {
	Kind     SpecKind
	Name     string
	Path     string
	Layout   string
	Markup   string
	Sections map[string]SectionInstance
	Order    []string
}

// SectionInstance is one entry of a JSON template's sections map. Extra
// holds top level scalars outside the known keys, the legacy flat settings
// tier.
type SectionInstance struct {
	ID         string
	Type       string
	Settings   settings.Map
	Blocks     map[string]blocks.Instance
	BlockOrder []string
	Disabled   bool
	Extra      settings.Map
}

// SpecIssue is one validation problem of a JSON template.
type SpecIssue struct {
	Location string
	Message  string
}

// ParseTemplateSpec builds the spec of a resolved template. For JSON
// templates that parse but fail validation both the spec and a
// KindTemplateSpecInvalid error are returned; malformed JSON returns a nil
// spec.
func ParseTemplateSpec(res Resolution) (*TemplateSpec, error) {
	spec := &TemplateSpec{Name: res.Name, Path: res.Path}
	if !res.JSON {
		spec.Kind = SpecMarkup
		markup, layout, err := parseFrontMatter(res.Source)
		spec.Markup, spec.Layout = markup, layout
		if err != nil {
			return spec, newError(KindTemplateSpecInvalid, "", res.Path, err)
		}
		return spec, nil
	}

	spec.Kind = SpecJSON
	var doc any
	if err := json.Unmarshal(res.Source, &doc); err != nil {
		return nil, newError(KindTemplateSpecInvalid, "", res.Path, fmt.Errorf("decode: %w", err))
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, newError(KindTemplateSpecInvalid, "", res.Path, fmt.Errorf("template must be a JSON object"))
	}
	buildJSONSpec(spec, root)

	issues, err := ValidateTemplateDocument(doc)
	if err != nil {
		return spec, newError(KindTemplateSpecInvalid, "", res.Path, err)
	}
	if len(issues) > 0 {
		return spec, newError(KindTemplateSpecInvalid, "", res.Path, issuesError(issues))
	}
	return spec, nil
}

// ValidateTemplateDocument checks a decoded JSON template against the
// embedded template schema.
func ValidateTemplateDocument(doc any) ([]SpecIssue, error) {
	templateSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("template.json", bytes.NewReader(templateSchemaSource)); err != nil {
			templateSchemaErr = err
			return
		}
		templateSchema, templateSchemaErr = compiler.Compile("template.json")
	})
	if templateSchemaErr != nil {
		return nil, fmt.Errorf("compile template schema: %w", templateSchemaErr)
	}
	err := templateSchema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, err
	}
	var issues []SpecIssue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			issues = append(issues, SpecIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return issues, nil
}

func issuesError(issues []SpecIssue) error {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, location+": "+issue.Message)
	}
	return fmt.Errorf("invalid template: %s", strings.Join(parts, "; "))
}

func buildJSONSpec(spec *TemplateSpec, doc map[string]any) {
	spec.Layout = layoutValue(doc["layout"])
	spec.Order = stringList(doc["order"])
	sections, _ := doc["sections"].(map[string]any)
	spec.Sections = make(map[string]SectionInstance, len(sections))
	for id, raw := range sections {
		body, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		spec.Sections[id] = sectionFrom(id, body)
	}
}

func sectionFrom(id string, body map[string]any) SectionInstance {
	inst := SectionInstance{ID: id, Settings: settings.Map{}, Extra: settings.Map{}}
	for key, value := range body {
		switch key {
		case "id":
		case "type":
			typ, _ := value.(string)
			inst.Type = strings.TrimSpace(typ)
		case "settings":
			m, _ := value.(map[string]any)
			inst.Settings = settings.FromMap(m)
		case "blocks":
			m, _ := value.(map[string]any)
			inst.Blocks = blocksFrom(m)
		case "block_order":
			inst.BlockOrder = stringList(value)
		case "disabled":
			inst.Disabled, _ = value.(bool)
		default:
			if v := settings.FromAny(value); v.IsScalar() {
				inst.Extra[key] = v
			}
		}
	}
	return inst
}

func blocksFrom(raw map[string]any) map[string]blocks.Instance {
	out := make(map[string]blocks.Instance, len(raw))
	for id, value := range raw {
		body, ok := value.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := body["type"].(string)
		m, _ := body["settings"].(map[string]any)
		disabled, _ := body["disabled"].(bool)
		out[id] = blocks.Instance{
			Type:     strings.TrimSpace(typ),
			Settings: settings.FromMap(m),
			Disabled: disabled,
		}
	}
	return out
}

func layoutValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		if !v {
			return LayoutNone
		}
	}
	return ""
}

func stringList(value any) []string {
	items, _ := value.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type templateFrontMatter struct {
	Layout any `yaml:"layout"`
}

// parseFrontMatter strips YAML front matter from a markup template and
// returns the layout it names.
func parseFrontMatter(source []byte) (string, string, error) {
	if !bytes.HasPrefix(bytes.TrimPrefix(source, []byte("\ufeff")), []byte("---")) {
		return string(source), "", nil
	}
	var meta templateFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return string(source), "", fmt.Errorf("front matter: %w", err)
	}
	return string(body), layoutValue(meta.Layout), nil
}
