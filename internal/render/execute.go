package render

import (
	"fmt"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// execute compiles source and runs it against scope. When the render has a
// sub-renderer factory the hook is bound to scope before execution.
func execute(engine interfaces.TemplateEngine, source string, scope *Context) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("template panic: %v", r)
		}
	}()
	tpl, err := engine.Compile(source)
	if err != nil {
		return "", err
	}
	if factory := scope.state.subRenderer; factory != nil {
		scope.SetRegister(interfaces.RegisterSubRenderer, factory(scope))
	}
	return engine.Execute(tpl, scope.Vars(), scope.Registers())
}
