package render

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Kind classifies render failures. Only KindTemplateNotFound changes which
// template renders; every other kind is contained by the renderer.
type Kind string

const (
	KindTemplateNotFound        Kind = "template_not_found"
	KindSchemaParseError        Kind = "schema_parse_error"
	KindSectionSourceMissing    Kind = "section_source_missing"
	KindSectionExecutionError   Kind = "section_execution_error"
	KindRecursionLimitExceeded  Kind = "recursion_limit_exceeded"
	KindLayoutSubstitutionFault Kind = "layout_substitution_fault"
	KindTemplateSpecInvalid     Kind = "template_spec_invalid"
)

var (
	ErrEngineRequired   = errors.New("render: template engine required")
	ErrProviderRequired = errors.New("render: file provider required")
	ErrStoreRequired    = errors.New("render: store id required")
	ErrThemeRequired    = errors.New("render: theme id required")
)

// Error is the inspectable failure attached to a contained render fault.
type Error struct {
	Kind    Kind
	Section string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("render: ")
	b.WriteString(string(e.Kind))
	if e.Section != "" {
		fmt.Fprintf(&b, " section=%s", e.Section)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " path=%s", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// categorized converts the error into a go-errors value carrying a
// category and text code derived from the kind.
func (e *Error) categorized() *goerrors.Error {
	category := goerrors.CategoryInternal
	switch e.Kind {
	case KindTemplateNotFound, KindSectionSourceMissing:
		category = goerrors.CategoryNotFound
	case KindSchemaParseError, KindTemplateSpecInvalid:
		category = goerrors.CategoryValidation
	}
	return goerrors.Wrap(e, category, "render "+strings.ReplaceAll(string(e.Kind), "_", " ")).
		WithTextCode(strings.ToUpper(string(e.Kind)))
}

// IsKind reports whether err carries a render Error of kind.
func IsKind(err error, kind Kind) bool {
	var renderErr *Error
	return errors.As(err, &renderErr) && renderErr.Kind == kind
}

func newError(kind Kind, section, path string, err error) *Error {
	return &Error{Kind: kind, Section: section, Path: path, Err: err}
}

// Diagnostic records a contained fault of a page render.
type Diagnostic struct {
	Kind    Kind
	Section string
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	parts := []string{string(d.Kind)}
	if d.Section != "" {
		parts = append(parts, "section="+d.Section)
	}
	if d.Path != "" {
		parts = append(parts, "path="+d.Path)
	}
	if d.Message != "" {
		parts = append(parts, d.Message)
	}
	return strings.Join(parts, " ")
}

// comment renders d as an HTML comment. "--" sequences are broken up so the
// comment cannot terminate early.
func (d Diagnostic) comment() string {
	return "<!-- storefront: " + strings.ReplaceAll(d.String(), "--", "- -") + " -->"
}

func diagnosticFrom(err *Error) Diagnostic {
	d := Diagnostic{Kind: err.Kind, Section: err.Section, Path: err.Path}
	if err.Err != nil {
		d.Message = err.Err.Error()
	}
	return d
}
