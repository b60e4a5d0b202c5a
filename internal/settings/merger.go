package settings

// Declaration is a setting declared by a section or block schema.
// A null Default means the schema declares no default.
type Declaration struct {
	ID      string
	Default Value
}

// Merger resolves effective settings for sections and blocks. Theme holds
// the theme-wide settings consulted as the last tier for sections.
//
// Section precedence per declared id:
//
//	instance settings -> flat instance scalar -> schema default -> theme setting
//
// Blocks only consult their own settings and the schema default. Instance
// settings that the schema does not declare are copied through. Inputs are
// never mutated.
type Merger struct {
	Theme Map
}

// NewMerger returns a merger reading theme-wide values from theme.
func NewMerger(theme Map) Merger {
	return Merger{Theme: theme}
}

// Section merges the settings of a section instance. flat carries the
// legacy top level scalars stored next to the instance's settings object.
func (m Merger) Section(decls []Declaration, instance Map, flat Map) Map {
	out := make(Map, len(decls)+len(instance))
	for _, decl := range decls {
		if decl.ID == "" {
			continue
		}
		if v, ok := lookup(instance, decl.ID); ok {
			out[decl.ID] = v
			continue
		}
		if v, ok := lookup(flat, decl.ID); ok && v.IsScalar() {
			out[decl.ID] = v
			continue
		}
		if !decl.Default.IsNull() {
			out[decl.ID] = decl.Default
			continue
		}
		if v, ok := lookup(m.Theme, decl.ID); ok {
			out[decl.ID] = v
		}
	}
	copyUndeclared(out, instance)
	return out
}

// Block merges the settings of a block instance.
func (m Merger) Block(decls []Declaration, instance Map) Map {
	out := make(Map, len(decls)+len(instance))
	for _, decl := range decls {
		if decl.ID == "" {
			continue
		}
		if v, ok := lookup(instance, decl.ID); ok {
			out[decl.ID] = v
			continue
		}
		if !decl.Default.IsNull() {
			out[decl.ID] = decl.Default
		}
	}
	copyUndeclared(out, instance)
	return out
}

// Defaults returns only the declared defaults. Used for theme-wide settings
// declared in the settings schema.
func Defaults(decls []Declaration) Map {
	out := make(Map, len(decls))
	for _, decl := range decls {
		if decl.ID != "" && !decl.Default.IsNull() {
			out[decl.ID] = decl.Default
		}
	}
	return out
}

// Overlay returns base with every non-null value of top applied over it.
func Overlay(base, top Map) Map {
	out := make(Map, len(base)+len(top))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range top {
		if value.IsNull() {
			continue
		}
		out[key] = value
	}
	return out
}

// lookup treats explicit nulls as unset so they fall through to the next tier.
func lookup(m Map, id string) (Value, bool) {
	v, ok := m.Get(id)
	if !ok || v.IsNull() {
		return Null(), false
	}
	return v, true
}

func copyUndeclared(out Map, instance Map) {
	for key, value := range instance {
		if _, ok := out[key]; ok {
			continue
		}
		if value.IsNull() {
			continue
		}
		out[key] = value
	}
}
