package render

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-storefront/internal/assets"
	"github.com/goliatone/go-storefront/internal/schema"
)

const (
	literalFilter = `\{\{-?\s*['"]([^'"]+)['"]\s*\|\s*`
	exprEnd       = `\s*-?\}\}`
)

var (
	docBlockPattern      = regexp.MustCompile(`(?s)\{%-?\s*doc\s*-?%\}.*?\{%-?\s*enddoc\s*-?%\}`)
	editorBlockPattern   = regexp.MustCompile(`(?s)\{%-?\s*editor\s*-?%\}.*?\{%-?\s*endeditor\s*-?%\}`)
	editorCommentPattern = regexp.MustCompile(`(?s)\{%-?\s*comment\s+editor\s*-?%\}.*?\{%-?\s*endcomment\s*-?%\}`)

	stylesheetBlockPattern = regexp.MustCompile(`(?s)\{%-?\s*stylesheet\s*-?%\}(.*?)\{%-?\s*endstylesheet\s*-?%\}`)
	javascriptBlockPattern = regexp.MustCompile(`(?s)\{%-?\s*javascript\s*-?%\}(.*?)\{%-?\s*endjavascript\s*-?%\}`)

	assetStylesheetPattern = regexp.MustCompile(literalFilter + `asset_url\s*\|\s*stylesheet_tag` + exprEnd)
	assetURLPattern        = regexp.MustCompile(literalFilter + `asset_url` + exprEnd)
	inlineAssetPattern     = regexp.MustCompile(literalFilter + `inline_asset_content` + exprEnd)
	fileURLPattern         = regexp.MustCompile(literalFilter + `file_url` + exprEnd)

	templateTagPattern   = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}`)
	blockAccessorPattern = regexp.MustCompile(`\bsection\.blocks\.([A-Za-z_]\w*)`)
)

// stripDirectives removes schema, doc and editor-only blocks.
func stripDirectives(source string) string {
	if !strings.Contains(source, "{%") {
		return source
	}
	source = schema.Strip(source)
	source = docBlockPattern.ReplaceAllString(source, "")
	source = editorBlockPattern.ReplaceAllString(source, "")
	return editorCommentPattern.ReplaceAllString(source, "")
}

// rewriteAssetDirectives turns literal asset filter expressions into
// placeholders and inline stylesheet/javascript blocks into markup.
// Expressions with dynamic inputs are left to the engine filters.
func rewriteAssetDirectives(source string) string {
	if !strings.Contains(source, "{") {
		return source
	}
	source = stylesheetBlockPattern.ReplaceAllString(source, "<style>$1</style>")
	source = javascriptBlockPattern.ReplaceAllString(source, "<script>$1</script>")
	source = replacePlaceholder(source, assetStylesheetPattern, assets.KindStylesheet)
	source = replacePlaceholder(source, assetURLPattern, assets.KindAsset)
	source = replacePlaceholder(source, inlineAssetPattern, assets.KindSVG)
	return replacePlaceholder(source, fileURLPattern, assets.KindFile)
}

func replacePlaceholder(source string, pattern *regexp.Regexp, kind string) string {
	return pattern.ReplaceAllStringFunc(source, func(match string) string {
		return assets.Placeholder(kind, pattern.FindStringSubmatch(match)[1])
	})
}

// rewriteBlockAccessors routes named block accessors (section.blocks.size,
// .first, .last and block ids) to the lookup projection. Positional access
// such as section.blocks.0 stays on the ordered list.
func rewriteBlockAccessors(source string) string {
	if !strings.Contains(source, "section.blocks.") {
		return source
	}
	return templateTagPattern.ReplaceAllStringFunc(source, func(tag string) string {
		return blockAccessorPattern.ReplaceAllString(tag, "section.block_lookup.$1")
	})
}

// prepareSource applies every source level transform before compilation.
func prepareSource(source string) string {
	return rewriteBlockAccessors(rewriteAssetDirectives(stripDirectives(source)))
}
