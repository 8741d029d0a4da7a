package symbolic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
)

// blocksDomain is a small typed blocks world used across tests.
func blocksDomain() ir.DomainSpec {
	return ir.DomainSpec{
		Name: "blocks",
		Types: []ir.TypeDecl{
			{Name: "block", Parent: "location"},
			{Name: "location"},
		},
		Constants: []ir.ObjectDecl{{Name: "table", Type: "location"}},
		Predicates: []ir.PredicateSig{
			{Name: "on", Params: []ir.Param{{Name: "?a", Type: "block"}, {Name: "?b", Type: "location"}}},
			{Name: "clear", Params: []ir.Param{{Name: "?a", Type: "location"}}},
			{Name: "handempty"},
		},
	}
}

func blocksProblem() ir.ProblemSpec {
	return ir.ProblemSpec{
		Name:   "stack",
		Domain: "blocks",
		Objects: []ir.ObjectDecl{
			{Name: "A", Type: "block"},
			{Name: "B", Type: "block"},
			{Name: "C", Type: "block"},
		},
		Init: []ir.Atom{
			{Predicate: "on", Args: []string{"A", "B"}},
			{Predicate: "on", Args: []string{"B", "table"}},
			{Predicate: "clear", Args: []string{"A"}},
			{Predicate: "clear", Args: []string{"C"}},
			{Predicate: "handempty"},
		},
	}
}

func newTestPddl(t *testing.T) *Pddl {
	t.Helper()
	p, err := NewPddl(blocksDomain(), blocksProblem())
	require.NoError(t, err)
	return p
}

func obj(t *testing.T, p *Pddl, name string) Object {
	t.Helper()
	o, ok := p.Objects().Lookup(name)
	require.True(t, ok, "object %s", name)
	return o
}

func objs(t *testing.T, p *Pddl, names ...string) []Object {
	t.Helper()
	out := make([]Object, len(names))
	for i, n := range names {
		out[i] = obj(t, p, n)
	}
	return out
}

func params(t *testing.T, p *Pddl, ps ...ir.Param) []Object {
	t.Helper()
	out, err := p.ConvertParams(ps)
	require.NoError(t, err)
	return out
}
