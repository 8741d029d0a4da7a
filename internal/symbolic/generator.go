package symbolic

import (
	"iter"
)

// ParameterGenerator enumerates every object tuple whose i-th element has
// the i-th declared type. Domains are resolved once at construction, so a
// generator is an immutable value safe to share.
type ParameterGenerator struct {
	domains [][]Object
}

// NewParameterGenerator resolves the object domain of each type.
func NewParameterGenerator(objects *ObjectMap, types []Type) ParameterGenerator {
	domains := make([][]Object, len(types))
	for i, t := range types {
		domains[i] = objects.OfType(t)
	}
	return ParameterGenerator{domains: domains}
}

// NewParameterGeneratorFor is NewParameterGenerator over the types of params.
func NewParameterGeneratorFor(objects *ObjectMap, params []Object) ParameterGenerator {
	types := make([]Type, len(params))
	for i, p := range params {
		types[i] = p.Type()
	}
	return NewParameterGenerator(objects, types)
}

// Len returns the number of tuples All yields. With no types there is
// exactly one (empty) tuple.
func (g ParameterGenerator) Len() int {
	n := 1
	for _, d := range g.domains {
		n *= len(d)
	}
	return n
}

// All yields each tuple once; the last position varies fastest. Each yielded
// slice is freshly allocated.
func (g ParameterGenerator) All() iter.Seq[[]Object] {
	return func(yield func([]Object) bool) {
		for _, d := range g.domains {
			if len(d) == 0 {
				return
			}
		}
		idx := make([]int, len(g.domains))
		for {
			tuple := make([]Object, len(g.domains))
			for i, d := range g.domains {
				tuple[i] = d[idx[i]]
			}
			if !yield(tuple) {
				return
			}

			// Advance the odometer from the last position.
			pos := len(idx) - 1
			for ; pos >= 0; pos-- {
				idx[pos]++
				if idx[pos] < len(g.domains[pos]) {
					break
				}
				idx[pos] = 0
			}
			if pos < 0 {
				return
			}
		}
	}
}
