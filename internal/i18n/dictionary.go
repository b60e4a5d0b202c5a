package i18n

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Dictionary maps dotted translation keys to their text.
type Dictionary map[string]string

var (
	interpolationPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)
	strictPolicy         = bluemonday.StrictPolicy()
)

// ParseDictionary decodes a locale file and flattens nested objects into
// dotted keys. Non string leaves are stored with their JSON text.
func ParseDictionary(raw []byte) (Dictionary, error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("i18n: parse locale file: %w", err)
	}
	out := Dictionary{}
	flatten(out, "", tree)
	return out, nil
}

func flatten(out Dictionary, prefix string, node map[string]any) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch typed := value.(type) {
		case map[string]any:
			flatten(out, full, typed)
		case string:
			out[full] = typed
		case nil:
		case float64:
			out[full] = strconv.FormatFloat(typed, 'f', -1, 64)
		case bool:
			out[full] = strconv.FormatBool(typed)
		default:
			data, _ := json.Marshal(typed)
			out[full] = string(data)
		}
	}
}

// Lookup returns the raw text stored under key.
func (d Dictionary) Lookup(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	value, ok := d[key]
	return value, ok
}

// Translate resolves key and interpolates {{ name }} parameters. A missing
// dictionary or key yields the key itself. A "count" parameter selects the
// "zero", "one" or "other" form when key is a plural group. Parameter values
// are stripped of markup unless key ends in "_html".
func (d Dictionary) Translate(key string, params map[string]any) string {
	key = strings.TrimSpace(key)
	text, ok := d.Lookup(key)
	if !ok {
		text, ok = d.plural(key, params)
	}
	if !ok {
		return key
	}
	if !strings.Contains(text, "{{") {
		return text
	}

	raw := strings.HasSuffix(key, "_html")
	return interpolationPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := interpolationPattern.FindStringSubmatch(match)[1]
		value, ok := params[name]
		if !ok || value == nil {
			return ""
		}
		formatted := fmt.Sprint(value)
		if raw {
			return formatted
		}
		return strictPolicy.Sanitize(formatted)
	})
}

func (d Dictionary) plural(key string, params map[string]any) (string, bool) {
	count, ok := params["count"]
	if !ok {
		return "", false
	}
	n, ok := toFloat(count)
	if !ok {
		return "", false
	}
	forms := []string{"other"}
	switch n {
	case 0:
		forms = []string{"zero", "other"}
	case 1:
		forms = []string{"one", "other"}
	}
	for _, form := range forms {
		if text, ok := d.Lookup(key + "." + form); ok {
			return text, true
		}
	}
	return "", false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
