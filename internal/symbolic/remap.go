package symbolic

import (
	"github.com/roach88/symbolic/internal/ir"
)

// slot is one output position of a Remapper: either a copy of the argument
// at index, or a fixed constant when index is -1.
type slot struct {
	index    int
	constant Object
}

// Remapper projects a full argument binding onto the terms of one atom.
// It is plain immutable data built once at grounding time.
type Remapper struct {
	slots []slot
}

// NewRemapper builds the projection from params (the enclosing formal
// parameters, in binding order) to terms. A variable term must name one of
// params; any other term must name a registered object. Anything else is a
// schema error, so a Remapper never produces a wrong-arity result.
func NewRemapper(params []Object, terms []string, objects *ObjectMap) (Remapper, error) {
	slots := make([]slot, len(terms))
	for i, term := range terms {
		if ir.IsVariable(term) {
			idx := indexOfParam(params, term)
			if idx < 0 {
				return Remapper{}, newSchemaError(ErrCodeUndeclaredParameter, "", "parameter %q is not declared in %s", term, paramList(params))
			}
			slots[i] = slot{index: idx}
			continue
		}
		obj, ok := objects.Lookup(term)
		if !ok {
			return Remapper{}, newSchemaError(ErrCodeUnknownObject, "", "object %q is not declared", term)
		}
		slots[i] = slot{index: -1, constant: obj}
	}
	return Remapper{slots: slots}, nil
}

// Apply returns the projected arguments. args must have the arity of the
// params the Remapper was built from.
func (r Remapper) Apply(args []Object) []Object {
	out := make([]Object, len(r.slots))
	for i, s := range r.slots {
		if s.index < 0 {
			out[i] = s.constant
		} else {
			out[i] = args[s.index]
		}
	}
	return out
}

// Arity returns the number of projected terms.
func (r Remapper) Arity() int {
	return len(r.slots)
}

// indexOfParam finds a formal parameter by name. The last match wins so that
// quantified variables appended after outer parameters take precedence.
func indexOfParam(params []Object, name string) int {
	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Name() == name {
			return i
		}
	}
	return -1
}

func paramList(params []Object) string {
	return renderCall("", params)
}
