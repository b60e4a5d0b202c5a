package pongo

import (
	"fmt"
	"strconv"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-storefront/internal/i18n"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

type argument struct {
	name string
	expr pongo2.IEvaluator
}

// renderNode implements {% render 'snippet' key=value %}.
type renderNode struct {
	name pongo2.IEvaluator
	args []argument
}

// sectionNode implements {% section 'header' %}.
type sectionNode struct {
	name pongo2.IEvaluator
}

// translateNode implements {% t 'key' name=value %}.
type translateNode struct {
	key  pongo2.IEvaluator
	args []argument
}

// echoNode implements {% echo expr %}. Every {{ expr }} compiles to it.
type echoNode struct {
	expr pongo2.IEvaluator
}

func (n *echoNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	value, err := n.expr.Evaluate(ctx)
	if err != nil {
		return err
	}
	return write(ctx, w, display(value))
}

// display prints booleans in lower case and floats without padding zeros.
func display(value *pongo2.Value) string {
	if value == nil || value.IsNil() {
		return ""
	}
	if s, ok := value.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	switch {
	case value.IsBool():
		return strconv.FormatBool(value.Bool())
	case value.IsFloat():
		return strconv.FormatFloat(value.Float(), 'f', -1, 64)
	}
	return value.String()
}

func (n *renderNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	name, err := n.name.Evaluate(ctx)
	if err != nil {
		return err
	}
	vars, err := evaluateArguments(ctx, n.args)
	if err != nil {
		return err
	}
	hook := subRenderer(ctx)
	if hook == nil {
		return nil
	}
	return write(ctx, w, hook.RenderSnippet(name.String(), vars))
}

func (n *sectionNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	name, err := n.name.Evaluate(ctx)
	if err != nil {
		return err
	}
	hook := subRenderer(ctx)
	if hook == nil {
		return nil
	}
	return write(ctx, w, hook.RenderSection(name.String()))
}

func (n *translateNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	key, err := n.key.Evaluate(ctx)
	if err != nil {
		return err
	}
	vars, err := evaluateArguments(ctx, n.args)
	if err != nil {
		return err
	}
	return write(ctx, w, i18n.Translate(registers(ctx), key.String(), vars))
}

func parseEchoTag(_ *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	expr, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("echo tag takes a single expression", nil)
	}
	return &echoNode{expr: expr}, nil
}

func parseRenderTag(_ *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	name, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	args, err := parseArguments(arguments)
	if err != nil {
		return nil, err
	}
	return &renderNode{name: name, args: args}, nil
}

func parseSectionTag(_ *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	name, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("section tag takes a single section type", nil)
	}
	return &sectionNode{name: name}, nil
}

func parseTranslateTag(_ *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	key, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	args, err := parseArguments(arguments)
	if err != nil {
		return nil, err
	}
	return &translateNode{key: key, args: args}, nil
}

// parseArguments reads name=value (or name: value) pairs, optionally
// separated by commas.
func parseArguments(arguments *pongo2.Parser) ([]argument, *pongo2.Error) {
	var out []argument
	for arguments.Remaining() > 0 {
		arguments.Match(pongo2.TokenSymbol, ",")
		if arguments.Remaining() == 0 {
			break
		}
		ident := arguments.MatchType(pongo2.TokenIdentifier)
		if ident == nil {
			return nil, arguments.Error("expected argument name", nil)
		}
		if arguments.Match(pongo2.TokenSymbol, "=") == nil && arguments.Match(pongo2.TokenSymbol, ":") == nil {
			return nil, arguments.Error(fmt.Sprintf("expected '=' after argument %q", ident.Val), nil)
		}
		expr, err := arguments.ParseExpression()
		if err != nil {
			return nil, err
		}
		out = append(out, argument{name: ident.Val, expr: expr})
	}
	return out, nil
}

func evaluateArguments(ctx *pongo2.ExecutionContext, args []argument) (map[string]any, *pongo2.Error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		value, err := arg.expr.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		out[arg.name] = value.Interface()
	}
	return out, nil
}

func registers(ctx *pongo2.ExecutionContext) map[string]any {
	regs, _ := ctx.Public[registersKey].(map[string]any)
	return regs
}

func subRenderer(ctx *pongo2.ExecutionContext) interfaces.SubRenderer {
	hook, _ := registers(ctx)[interfaces.RegisterSubRenderer].(interfaces.SubRenderer)
	return hook
}

func write(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter, s string) *pongo2.Error {
	if _, err := w.WriteString(s); err != nil {
		return ctx.OrigError(err, nil)
	}
	return nil
}
