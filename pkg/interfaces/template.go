package interfaces

// CompiledTemplate is the executable form returned by TemplateEngine.Compile.
// Its concrete type belongs to the engine implementation.
type CompiledTemplate any

// FilterFunc transforms a value inside a template expression. param is nil
// when the filter is used without an argument.
type FilterFunc func(input any, param any) (any, error)

// TemplateEngine compiles and executes template source against a flat variable
// scope plus a side channel register map. Compile reports syntax errors,
// Execute reports runtime errors; neither is expected to block.
type TemplateEngine interface {
	Compile(source string) (CompiledTemplate, error)
	Execute(tpl CompiledTemplate, vars map[string]any, registers map[string]any) (string, error)
	RegisterFilter(name string, fn FilterFunc) error
}

// RegisterSubRenderer is the register key holding the SubRenderer that serves
// nested render and section tags of the template being executed.
const RegisterSubRenderer = "sub_renderer"

// SubRenderer renders nested templates on behalf of engine tags. Both methods
// return usable markup; failures surface as diagnostics or empty strings.
type SubRenderer interface {
	RenderSnippet(name string, vars map[string]any) string
	RenderSection(sectionType string) string
}
