package symbolic

import (
	"strings"
)

// Proposition is a ground predicate instance. Identity is (name, args),
// order-sensitive.
type Proposition struct {
	name string
	args []Object
}

// NewProposition creates a proposition. args is copied.
func NewProposition(name string, args []Object) Proposition {
	cp := make([]Object, len(args))
	copy(cp, args)
	return Proposition{name: name, args: cp}
}

// Name returns the predicate name.
func (p Proposition) Name() string { return p.name }

// Args returns a copy of the argument list.
func (p Proposition) Args() []Object {
	cp := make([]Object, len(p.args))
	copy(cp, p.args)
	return cp
}

// Arity returns the number of arguments.
func (p Proposition) Arity() int { return len(p.args) }

// Equal reports whether both propositions have the same name and arguments.
func (p Proposition) Equal(other Proposition) bool {
	if p.name != other.name || len(p.args) != len(other.args) {
		return false
	}
	for i := range p.args {
		if p.args[i] != other.args[i] {
			return false
		}
	}
	return true
}

// String renders "name(a, b)". It is also the proposition's key in a State.
func (p Proposition) String() string {
	return renderCall(p.name, p.args)
}

// renderCall renders "name(a1, a2, ...)" with comma-space separators.
func renderCall[T interface{ String() string }](name string, args []T) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// RenderCall renders a grounded call "name(a1, a2, ...)".
func RenderCall(name string, args []Object) string {
	return renderCall(name, args)
}
