package schema

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/goliatone/go-storefront/internal/settings"
)

// ErrInvalidSchema wraps JSON decoding failures of a schema block.
var ErrInvalidSchema = errors.New("schema: invalid schema block")

var blockPattern = regexp.MustCompile(`(?s)\{%-?\s*schema\s*-?%\}(.*?)\{%-?\s*endschema\s*-?%\}`)

// Schema describes the settings and blocks a section accepts.
type Schema struct {
	Name      string     `json:"name"`
	Tag       string     `json:"tag,omitempty"`
	Class     string     `json:"class,omitempty"`
	Settings  []Setting  `json:"settings,omitempty"`
	Blocks    []BlockDef `json:"blocks,omitempty"`
	MaxBlocks int        `json:"max_blocks,omitempty"`
	Presets   []Preset   `json:"presets,omitempty"`
}

// Setting is a single declared setting.
type Setting struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Label   string         `json:"label,omitempty"`
	Info    string         `json:"info,omitempty"`
	Default settings.Value `json:"default"`
}

// BlockDef declares a block type a section accepts.
type BlockDef struct {
	Type     string    `json:"type"`
	Name     string    `json:"name,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Settings []Setting `json:"settings,omitempty"`
}

// Preset is kept for editors; rendering ignores it.
type Preset struct {
	Name     string         `json:"name"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Declarations converts the section settings for the merger.
func (s *Schema) Declarations() []settings.Declaration {
	if s == nil {
		return nil
	}
	return declarations(s.Settings)
}

// Block returns the definition for blockType.
func (s *Schema) Block(blockType string) (BlockDef, bool) {
	if s == nil {
		return BlockDef{}, false
	}
	for _, def := range s.Blocks {
		if def.Type == blockType {
			return def, true
		}
	}
	return BlockDef{}, false
}

// BlockDeclarations converts the settings declared for blockType.
func (s *Schema) BlockDeclarations(blockType string) []settings.Declaration {
	def, ok := s.Block(blockType)
	if !ok {
		return nil
	}
	return declarations(def.Settings)
}

// BlockLimits returns the per type limits declared by the schema.
func (s *Schema) BlockLimits() map[string]int {
	if s == nil {
		return nil
	}
	limits := map[string]int{}
	for _, def := range s.Blocks {
		if def.Limit > 0 {
			limits[def.Type] = def.Limit
		}
	}
	return limits
}

// Template projects the schema into the section scope.
func (s *Schema) Template() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":       s.Name,
		"tag":        s.Tag,
		"class":      s.Class,
		"max_blocks": s.MaxBlocks,
	}
}

func declarations(items []Setting) []settings.Declaration {
	out := make([]settings.Declaration, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		out = append(out, settings.Declaration{ID: item.ID, Default: item.Default})
	}
	return out
}

// Locate returns the raw body of the first schema block in source.
func Locate(source string) (string, bool) {
	match := blockPattern.FindStringSubmatch(source)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Strip removes every schema block from source.
func Strip(source string) string {
	return blockPattern.ReplaceAllString(source, "")
}

// Parse decodes a raw schema body.
func Parse(body string) (*Schema, error) {
	var out Schema
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &out); err != nil {
		return nil, &ParseError{Sample: body, Err: err}
	}
	return &out, nil
}

// ParseError reports a schema block that is not valid JSON.
type ParseError struct {
	Sample string
	Err    error
}

func (e *ParseError) Error() string {
	return ErrInvalidSchema.Error() + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidSchema, e.Err}
}
