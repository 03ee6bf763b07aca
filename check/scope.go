package check

import (
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// scope is one lexical frame of variable bindings. Scopes form a stack:
// function body, then one per nested block.
type scope struct {
	vars map[symbol.ID]types.Type
}

func newScope() *scope {
	return &scope{vars: map[symbol.ID]types.Type{}}
}

func (s *scope) bind(name symbol.ID, t types.Type) {
	s.vars[name] = t
}

func (s *scope) lookup(name symbol.ID) (types.Type, bool) {
	t, ok := s.vars[name]
	return t, ok
}

func (c *Checker) pushScope() { c.scopes = append(c.scopes, newScope()) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) bind(name symbol.ID, t types.Type) {
	c.scopes[len(c.scopes)-1].bind(name, t)
}

// lookupVar searches the scope stack innermost-first.
func (c *Checker) lookupVar(name symbol.ID) (types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i].lookup(name); ok {
			return t, true
		}
	}
	return nil, false
}
