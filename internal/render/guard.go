package render

import "fmt"

// depthGuard bounds nested template renders of one page. It is owned by the
// render state and never shared between renders.
type depthGuard struct {
	depth int
	max   int
}

func (g *depthGuard) enter() (func(), bool) {
	if g.depth >= g.max {
		return func() {}, false
	}
	g.depth++
	return func() { g.depth-- }, true
}

func errRecursionLimit(limit int) error {
	return fmt.Errorf("nested render depth exceeds %d", limit)
}
