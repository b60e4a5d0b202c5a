package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-storefront/internal/settings"
)

var (
	variableMarkerPattern = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_\-]*(?:\.[A-Za-z0-9_\-]+)*)\s*-?\}\}`)
	anyMarkerPattern      = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}`)
)

// hasMarkers reports whether output still carries template markers.
func hasMarkers(output string) bool {
	return (strings.Contains(output, "{{") && strings.Contains(output, "}}")) ||
		(strings.Contains(output, "{%") && strings.Contains(output, "%}"))
}

// correct runs over output left with markers after execution. Only markers
// written in source are touched: {{ dotted.path }} resolves against scope and
// other source markers are removed. Markers that arrived through data, such as
// a product description mentioning {{ code }}, are left as written.
func correct(output, source string, scope *Context) string {
	origin := map[string]bool{}
	for _, marker := range anyMarkerPattern.FindAllString(source, -1) {
		origin[marker] = true
	}
	if len(origin) == 0 {
		return output
	}
	return anyMarkerPattern.ReplaceAllStringFunc(output, func(match string) string {
		if !origin[match] {
			return match
		}
		groups := variableMarkerPattern.FindStringSubmatch(match)
		if groups == nil || groups[0] != match {
			return ""
		}
		value, ok := scope.Lookup(groups[1])
		if !ok {
			return ""
		}
		return display(value)
	})
}

// display formats a scope value the way a template would print it.
func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case settings.Value:
		return v.String()
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
