package render

import (
	"context"
	"strings"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Composer produces the content slot of a page from its template spec.
type Composer struct {
	engine   interfaces.TemplateEngine
	sections *SectionRenderer
}

// NewComposer builds a composer rendering JSON sections through sections.
func NewComposer(engine interfaces.TemplateEngine, sections *SectionRenderer) *Composer {
	return &Composer{engine: engine, sections: sections}
}

// Compose renders spec under root. Markup templates execute directly
// against root; JSON templates render their sections in declared order. The
// whole composition counts as one nesting level.
func (c *Composer) Compose(ctx context.Context, spec *TemplateSpec, root *Context) string {
	if spec == nil {
		return ""
	}
	release, fault := root.enter("templates/" + spec.Name)
	defer release()
	if fault != nil {
		return root.report(fault)
	}

	if spec.Kind == SpecMarkup {
		return c.composeMarkup(spec, root)
	}
	return c.composeSections(ctx, spec, root)
}

func (c *Composer) composeMarkup(spec *TemplateSpec, root *Context) string {
	markup := prepareSource(spec.Markup)
	out, err := execute(c.engine, markup, root)
	if err != nil {
		return root.report(newError(KindSectionExecutionError, "", spec.Path, err))
	}
	if hasMarkers(out) {
		root.Logger().Debug("render.template.corrective_pass", "path", spec.Path)
		out = correct(out, markup, root)
	}
	return root.state.rewriter.Rewrite(out)
}

func (c *Composer) composeSections(ctx context.Context, spec *TemplateSpec, root *Context) string {
	var b strings.Builder
	rendered := map[string]bool{}
	for _, id := range spec.Order {
		if rendered[id] {
			continue
		}
		instance, ok := spec.Sections[id]
		if !ok {
			root.Logger().Warn("render.section.missing", "section", id, "path", spec.Path)
			root.note(Diagnostic{Kind: KindTemplateSpecInvalid, Section: id, Path: spec.Path, Message: "section listed in order is not defined"})
			continue
		}
		if instance.Disabled {
			continue
		}
		if instance.Type == "" {
			root.Logger().Warn("render.section.untyped", "section", id, "path", spec.Path)
			root.note(Diagnostic{Kind: KindTemplateSpecInvalid, Section: id, Path: spec.Path, Message: "section has no type"})
			continue
		}
		rendered[id] = true
		out, _ := c.sections.Render(ctx, id, instance, root)
		b.WriteString(out)
	}
	return b.String()
}

// StaticSection renders a section by type outside any JSON template, as
// used by {% section %} tags. The section id is its type and only schema
// defaults apply.
func (c *Composer) StaticSection(ctx context.Context, sectionType string, scope *Context) string {
	release, fault := scope.enter("sections/" + sectionType)
	defer release()
	if fault != nil {
		return scope.report(fault)
	}
	out, _ := c.sections.Render(ctx, sectionType, SectionInstance{ID: sectionType, Type: sectionType}, scope)
	return out
}
