package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"regexp"
	"strings"

	"github.com/goliatone/go-storefront/internal/blocks"
	"github.com/goliatone/go-storefront/internal/schema"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

var (
	sectionExtensions = []string{".tmpl", ".liquid"}
	wrapperTagPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// SectionRenderer renders one section instance into a wrapped fragment.
type SectionRenderer struct {
	engine    interfaces.TemplateEngine
	provider  interfaces.FileProvider
	extractor *schema.Extractor
}

// NewSectionRenderer builds a section renderer.
func NewSectionRenderer(engine interfaces.TemplateEngine, provider interfaces.FileProvider, extractor *schema.Extractor) *SectionRenderer {
	if extractor == nil {
		extractor = schema.NewExtractor()
	}
	return &SectionRenderer{engine: engine, provider: provider, extractor: extractor}
}

// Render renders instance under parent. The returned markup is always
// usable; a non-nil error is a *Error the caller may inspect, already
// recorded on the render's diagnostics.
func (r *SectionRenderer) Render(ctx context.Context, sectionID string, instance SectionInstance, parent *Context) (string, error) {
	sectionType := strings.TrimSpace(instance.Type)
	source, path, err := r.read(ctx, parent, sectionType)
	if err != nil {
		fault := newError(KindSectionSourceMissing, sectionID, path, err)
		return parent.report(fault), fault
	}

	sch, err := r.extractor.Extract(source)
	if err != nil {
		parent.note(diagnosticFrom(newError(KindSchemaParseError, sectionID, path, err)))
	}

	scope := parent.ChildScope(nil)
	merger := parent.state.merger
	effective := merger.Section(sch.Declarations(), instance.Settings, instance.Extra)
	collection := blocks.Assemble(sectionID, instance.BlockOrder, instance.Blocks, sch, merger)

	scope.Set("section", map[string]any{
		"id":           sectionID,
		"type":         sectionType,
		"name":         schemaName(sch, sectionType),
		"settings":     effective.Template(),
		"blocks":       collection.List(),
		"block_lookup": collection.Lookup(),
		"block_count":  collection.Size(),
		"schema":       sch.Template(),
	})
	scope.SetRegister(RegisterSettings, effective)
	scope.SetRegister(RegisterSchema, sch)
	scope.SetRegister(RegisterSectionID, sectionID)

	prepared := prepareSource(source)
	out, err := execute(r.engine, prepared, scope)
	if err != nil {
		fault := newError(KindSectionExecutionError, sectionID, path, err)
		return parent.report(fault), fault
	}
	if hasMarkers(out) {
		parent.Logger().Debug("render.section.corrective_pass", "section", sectionID, "path", path)
		out = correct(out, prepared, scope)
	}
	out = parent.state.rewriter.Rewrite(out)
	return wrapSection(sectionID, sectionType, sch, out), nil
}

func (r *SectionRenderer) read(ctx context.Context, scope *Context, sectionType string) (string, string, error) {
	if sectionType == "" {
		return "", "", errors.New("section type required")
	}
	base := "sections/" + sectionType
	for _, ext := range sectionExtensions {
		data, err := r.provider.Read(ctx, scope.state.storeID, scope.state.themeID, base+ext)
		if err == nil {
			return string(data), base + ext, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", base + ext, err
		}
	}
	return "", base + sectionExtensions[0], fmt.Errorf("%s: %w", base, fs.ErrNotExist)
}

func schemaName(sch *schema.Schema, fallback string) string {
	if sch != nil && sch.Name != "" {
		return sch.Name
	}
	return fallback
}

func wrapSection(id, sectionType string, sch *schema.Schema, body string) string {
	tag := "div"
	class := "storefront-section storefront-section-" + sectionType
	if sch != nil {
		if t := strings.ToLower(strings.TrimSpace(sch.Tag)); wrapperTagPattern.MatchString(t) {
			tag = t
		}
		if c := strings.TrimSpace(sch.Class); c != "" {
			class += " " + c
		}
	}
	return fmt.Sprintf(`<%s id="section-%s" class="%s" data-section-id="%s" data-section-type="%s">%s</%s>`,
		tag, html.EscapeString(id), html.EscapeString(class), html.EscapeString(id), html.EscapeString(sectionType), body, tag)
}
