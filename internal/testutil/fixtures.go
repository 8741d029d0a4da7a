package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/symbolic"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func atom(pred string, args ...string) ir.Atom {
	return ir.Atom{Predicate: pred, Args: args}
}

func cond(pred string, args ...string) ir.Condition {
	a := atom(pred, args...)
	return ir.Condition{Op: ir.OpAtom, Atom: &a}
}

func not(c ir.Condition) ir.Condition {
	return ir.Condition{Op: ir.OpNot, Args: []ir.Condition{c}}
}

func eq(a, b string) ir.Condition {
	return ir.Condition{Op: ir.OpEq, Terms: []string{a, b}}
}

// BlocksDomain is a blocks world in which the table is a location that is
// always clear.
//
//	move(?b - block, ?from - location, ?to - location)
//	unstack-all()
func BlocksDomain() ir.DomainSpec {
	return ir.DomainSpec{
		Name: "blocks",
		Types: []ir.TypeDecl{
			{Name: "location"},
			{Name: "block", Parent: "location"},
		},
		Constants: []ir.ObjectDecl{{Name: "table", Type: "location"}},
		Predicates: []ir.PredicateSig{
			{Name: "on", Params: []ir.Param{{Name: "?x", Type: "block"}, {Name: "?y", Type: "location"}}},
			{Name: "clear", Params: []ir.Param{{Name: "?x", Type: "location"}}},
		},
		Actions: []ir.ActionSchema{
			{
				Name: "move",
				Params: []ir.Param{
					{Name: "?b", Type: "block"},
					{Name: "?from", Type: "location"},
					{Name: "?to", Type: "location"},
				},
				Precondition: &ir.Condition{Op: ir.OpAnd, Args: []ir.Condition{
					cond("on", "?b", "?from"),
					cond("clear", "?b"),
					cond("clear", "?to"),
					not(eq("?b", "?to")),
				}},
				Effects: ir.EffectList{
					Add: []ir.Atom{atom("on", "?b", "?to"), atom("clear", "?from")},
					Del: []ir.Atom{atom("on", "?b", "?from")},
					When: []ir.CondEffect{{
						Condition: not(eq("?to", "table")),
						Effects:   ir.EffectList{Del: []ir.Atom{atom("clear", "?to")}},
					}},
				},
			},
			{
				Name: "unstack-all",
				Effects: ir.EffectList{Forall: []ir.ForallEffect{{
					Vars: []ir.Param{{Name: "?b", Type: "block"}, {Name: "?l", Type: "location"}},
					Effects: ir.EffectList{When: []ir.CondEffect{{
						Condition: ir.Condition{Op: ir.OpAnd, Args: []ir.Condition{
							cond("on", "?b", "?l"),
							not(eq("?l", "table")),
						}},
						Effects: ir.EffectList{
							Add: []ir.Atom{atom("on", "?b", "table"), atom("clear", "?l")},
							Del: []ir.Atom{atom("on", "?b", "?l")},
						},
					}}},
				}}},
			},
		},
	}
}

// TowerProblem stacks B on A with C beside them:
//
//	on(A, table), on(B, A), on(C, table), clear(B), clear(C), clear(table)
func TowerProblem() ir.ProblemSpec {
	return ir.ProblemSpec{
		Name:   "tower",
		Domain: "blocks",
		Objects: []ir.ObjectDecl{
			{Name: "A", Type: "block"},
			{Name: "B", Type: "block"},
			{Name: "C", Type: "block"},
		},
		Init: []ir.Atom{
			atom("on", "A", "table"),
			atom("on", "B", "A"),
			atom("on", "C", "table"),
			atom("clear", "B"),
			atom("clear", "C"),
			atom("clear", "table"),
		},
	}
}

// NewTowerPddl builds the blocks domain with the tower problem.
func NewTowerPddl() (*symbolic.Pddl, error) {
	return symbolic.NewPddl(BlocksDomain(), TowerProblem())
}
