package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/symbolic"
)

func atom(pred string, args ...string) ir.Atom {
	return ir.Atom{Predicate: pred, Args: args}
}

func atomCond(pred string, args ...string) ir.Condition {
	return ir.Condition{Op: ir.OpAtom, Atom: &ir.Atom{Predicate: pred, Args: args}}
}

// worldDomain is a blocks world whose blocks sit "at" locations. The gripper
// type has no objects in worldProblem.
func worldDomain() ir.DomainSpec {
	return ir.DomainSpec{
		Name: "world",
		Types: []ir.TypeDecl{
			{Name: "location"},
			{Name: "block", Parent: "location"},
			{Name: "gripper"},
		},
		Constants: []ir.ObjectDecl{{Name: "table", Type: "location"}},
		Predicates: []ir.PredicateSig{
			{Name: "at", Params: []ir.Param{{Name: "?a", Type: "block"}, {Name: "?b", Type: "location"}}},
			{Name: "clear", Params: []ir.Param{{Name: "?a", Type: "location"}}},
			{Name: "marked", Params: []ir.Param{{Name: "?a", Type: "location"}}},
			{Name: "done"},
		},
		Actions: []ir.ActionSchema{
			{
				Name:   "move",
				Params: []ir.Param{{Name: "?x", Type: "block"}, {Name: "?y", Type: "location"}},
				Precondition: &ir.Condition{Op: ir.OpAnd, Args: []ir.Condition{
					{Op: ir.OpExists, Vars: []ir.Param{{Name: "?z", Type: "location"}}, Args: []ir.Condition{atomCond("at", "?x", "?z")}},
					atomCond("clear", "?x"),
					atomCond("clear", "?y"),
				}},
				Effects: ir.EffectList{
					Forall: []ir.ForallEffect{{
						Vars: []ir.Param{{Name: "?from", Type: "location"}},
						Effects: ir.EffectList{When: []ir.CondEffect{{
							Condition: atomCond("at", "?x", "?from"),
							Effects: ir.EffectList{
								Add: []ir.Atom{atom("clear", "?from")},
								Del: []ir.Atom{atom("at", "?x", "?from")},
							},
						}}},
					}},
					Add: []ir.Atom{atom("at", "?x", "?y")},
					Del: []ir.Atom{atom("clear", "?y")},
				},
			},
			{
				// The guard reads marked(?x), which the add effect asserts.
				Name:   "mark",
				Params: []ir.Param{{Name: "?x", Type: "block"}},
				Effects: ir.EffectList{
					When: []ir.CondEffect{{Condition: atomCond("marked", "?x"), Effects: ir.EffectList{Add: []ir.Atom{atom("done")}}}},
					Add:  []ir.Atom{atom("marked", "?x")},
				},
			},
			{
				Name:    "mark",
				Effects: ir.EffectList{Add: []ir.Atom{atom("done")}},
			},
			{
				Name:   "unclear",
				Params: []ir.Param{{Name: "?x", Type: "location"}},
				Effects: ir.EffectList{Del: []ir.Atom{atom("clear", "?x")}},
			},
			{
				Name: "sweep",
				Effects: ir.EffectList{Forall: []ir.ForallEffect{{
					Vars:    []ir.Param{{Name: "?g", Type: "gripper"}},
					Effects: ir.EffectList{Add: []ir.Atom{atom("done")}},
				}}},
			},
			{
				// Only the first clear block gets marked: later expansions see done().
				Name: "pick-first",
				Effects: ir.EffectList{Forall: []ir.ForallEffect{{
					Vars: []ir.Param{{Name: "?b", Type: "block"}},
					Effects: ir.EffectList{When: []ir.CondEffect{{
						Condition: ir.Condition{Op: ir.OpAnd, Args: []ir.Condition{
							{Op: ir.OpNot, Args: []ir.Condition{atomCond("done")}},
							atomCond("clear", "?b"),
						}},
						Effects: ir.EffectList{Add: []ir.Atom{atom("done"), atom("marked", "?b")}},
					}}},
				}}},
			},
			{
				Name:    "stack-on-table",
				Params:  []ir.Param{{Name: "?x", Type: "block"}, {Name: "?y", Type: "block"}},
				Effects: ir.EffectList{Add: []ir.Atom{atom("at", "?y", "?x"), atom("at", "?x", "table")}},
			},
		},
	}
}

func worldProblem() ir.ProblemSpec {
	return ir.ProblemSpec{
		Name:   "shuffle",
		Domain: "world",
		Objects: []ir.ObjectDecl{
			{Name: "A", Type: "block"},
			{Name: "B", Type: "block"},
			{Name: "C", Type: "block"},
		},
		Init: []ir.Atom{
			atom("at", "A", "B"),
			atom("clear", "A"),
			atom("clear", "C"),
		},
	}
}

func newTestPddl(t *testing.T) *symbolic.Pddl {
	t.Helper()
	p, err := symbolic.NewPddl(worldDomain(), worldProblem())
	require.NoError(t, err)
	return p
}

func objs(t *testing.T, p *symbolic.Pddl, names ...string) []symbolic.Object {
	t.Helper()
	out, err := p.ParseObjects(names)
	require.NoError(t, err)
	return out
}

func lookup(t *testing.T, p *symbolic.Pddl, name string) *Action {
	t.Helper()
	a, err := Lookup(p, name)
	require.NoError(t, err)
	return a
}

func state(t *testing.T, p *symbolic.Pddl, props ...string) symbolic.State {
	t.Helper()
	s, err := p.ParseState(props)
	require.NoError(t, err)
	return s
}
