package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
)

func atomCond(pred string, args ...string) ir.Condition {
	return ir.Condition{Op: ir.OpAtom, Atom: &ir.Atom{Predicate: pred, Args: args}}
}

func validDomain() ir.DomainSpec {
	return ir.DomainSpec{
		Name: "blocks",
		Types: []ir.TypeDecl{
			{Name: "location"},
			{Name: "block", Parent: "location"},
		},
		Constants: []ir.ObjectDecl{{Name: "table", Type: "location"}},
		Predicates: []ir.PredicateSig{
			{Name: "on", Params: []ir.Param{{Name: "?a", Type: "block"}, {Name: "?b", Type: "location"}}},
			{Name: "clear", Params: []ir.Param{{Name: "?a", Type: "location"}}},
		},
		Actions: []ir.ActionSchema{{
			Name:   "move",
			Params: []ir.Param{{Name: "?x", Type: "block"}, {Name: "?y", Type: "location"}},
			Precondition: &ir.Condition{Op: ir.OpAnd, Args: []ir.Condition{
				atomCond("clear", "?x"),
				{Op: ir.OpNot, Args: []ir.Condition{{Op: ir.OpEq, Terms: []string{"?y", "table"}}}},
			}},
			Effects: ir.EffectList{
				Forall: []ir.ForallEffect{{
					Vars: []ir.Param{{Name: "?from", Type: "location"}},
					Effects: ir.EffectList{When: []ir.CondEffect{{
						Condition: atomCond("on", "?x", "?from"),
						Effects:   ir.EffectList{Del: []ir.Atom{{Predicate: "on", Args: []string{"?x", "?from"}}}},
					}}},
				}},
				Add: []ir.Atom{{Predicate: "on", Args: []string{"?x", "?y"}}},
			},
		}},
	}
}

func TestValidateDomainValid(t *testing.T) {
	d := validDomain()
	assert.Empty(t, Validate(&d))
	assert.Empty(t, Validate(d))
}

func TestValidateDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *ir.DomainSpec)
		code   string
		field  string
	}{
		{
			name:   "empty name",
			mutate: func(d *ir.DomainSpec) { d.Name = " " },
			code:   ErrDomainNameEmpty,
			field:  "name",
		},
		{
			name:   "no action list",
			mutate: func(d *ir.DomainSpec) { d.Actions = nil },
			code:   ErrDomainNoActions,
			field:  "actions",
		},
		{
			name:   "undeclared parent type",
			mutate: func(d *ir.DomainSpec) { d.Types[1].Parent = "thing" },
			code:   ErrUndeclaredType,
			field:  "types[1].parent",
		},
		{
			name:   "duplicate type",
			mutate: func(d *ir.DomainSpec) { d.Types = append(d.Types, ir.TypeDecl{Name: "block"}) },
			code:   ErrDuplicateName,
			field:  "types[2]",
		},
		{
			name:   "type cycle",
			mutate: func(d *ir.DomainSpec) { d.Types[0].Parent = "block" },
			code:   ErrTypeCycle,
			field:  "types",
		},
		{
			name:   "constant of undeclared type",
			mutate: func(d *ir.DomainSpec) { d.Constants[0].Type = "surface" },
			code:   ErrUndeclaredType,
			field:  "constants[0].type",
		},
		{
			name:   "predicate parameter type",
			mutate: func(d *ir.DomainSpec) { d.Predicates[1].Params[0].Type = "surface" },
			code:   ErrUndeclaredType,
			field:  "predicates[1].params[0].type",
		},
		{
			name: "duplicate action",
			mutate: func(d *ir.DomainSpec) {
				d.Actions = append(d.Actions, ir.ActionSchema{Name: "move"})
			},
			code:  ErrDuplicateName,
			field: "actions[1].name",
		},
		{
			name:   "parameter without question mark",
			mutate: func(d *ir.DomainSpec) { d.Actions[0].Params[0].Name = "x" },
			code:   ErrInvalidParameter,
			field:  "actions[0].params[0].name",
		},
		{
			name: "undeclared predicate in effect",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Effects.Add[0].Predicate = "above"
			},
			code:  ErrUndeclaredPredicate,
			field: "actions[0].effects.add[0]",
		},
		{
			name: "arity in precondition",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Precondition.Args[0] = atomCond("clear", "?x", "?y")
			},
			code:  ErrArityMismatch,
			field: "actions[0].precondition.and[0]",
		},
		{
			name: "undeclared parameter in nested effect",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Effects.Forall[0].Effects.When[0].Effects.Del[0].Args[1] = "?to"
			},
			code:  ErrUndeclaredParameter,
			field: "actions[0].effects.forall[0].effects.when[0].effects.del[0]",
		},
		{
			name: "forall variable out of scope",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Effects.Add[0].Args[1] = "?from"
			},
			code:  ErrUndeclaredParameter,
			field: "actions[0].effects.add[0]",
		},
		{
			name: "unknown constant",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Precondition.Args[1].Args[0].Terms[1] = "floor"
			},
			code:  ErrUnknownObject,
			field: "actions[0].precondition.and[1].not[0]",
		},
		{
			name: "not with two operands",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Precondition.Args[1].Args = append(d.Actions[0].Precondition.Args[1].Args, atomCond("clear", "?y"))
			},
			code:  ErrInvalidCondition,
			field: "actions[0].precondition.and[1]",
		},
		{
			name: "unknown operator",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Precondition.Op = "xor"
			},
			code:  ErrInvalidCondition,
			field: "actions[0].precondition",
		},
		{
			name: "quantified variable of undeclared type",
			mutate: func(d *ir.DomainSpec) {
				d.Actions[0].Effects.Forall[0].Vars[0].Type = "surface"
			},
			code:  ErrUndeclaredType,
			field: "actions[0].effects.forall[0].vars[0].type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDomain()
			tt.mutate(&d)

			errs := Validate(&d)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code, "errors: %v", errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	d := validDomain()
	d.Name = ""
	d.Constants[0].Type = "surface"
	d.Actions[0].Effects.Add[0].Predicate = "above"

	errs := Validate(&d)

	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{ErrDomainNameEmpty, ErrUndeclaredType, ErrUndeclaredPredicate}, codes)
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
	assert.Contains(t, errs[0].Message, "int")
}

func TestValidateProblem(t *testing.T) {
	valid := func() ir.ProblemSpec {
		return ir.ProblemSpec{
			Name:    "p1",
			Domain:  "blocks",
			Objects: []ir.ObjectDecl{{Name: "A", Type: "block"}, {Name: "B", Type: "block"}},
			Init: []ir.Atom{
				{Predicate: "on", Args: []string{"A", "B"}},
				{Predicate: "on", Args: []string{"B", "table"}},
				{Predicate: "clear", Args: []string{"A"}},
			},
		}
	}

	d := validDomain()
	p := valid()
	assert.Empty(t, ValidateProblem(&d, &p))
	assert.Empty(t, Validate(p))

	tests := []struct {
		name   string
		mutate func(p *ir.ProblemSpec)
		code   string
		field  string
	}{
		{"domain mismatch", func(p *ir.ProblemSpec) { p.Domain = "logistics" }, ErrProblemDomainMismatch, "domain"},
		{"missing domain", func(p *ir.ProblemSpec) { p.Domain = "" }, ErrProblemDomainEmpty, "domain"},
		{"object shadows constant", func(p *ir.ProblemSpec) { p.Objects[1].Name = "table" }, ErrDuplicateName, "objects[1]"},
		{"object of undeclared type", func(p *ir.ProblemSpec) { p.Objects[0].Type = "robot" }, ErrUndeclaredType, "objects[0].type"},
		{"undeclared predicate", func(p *ir.ProblemSpec) { p.Init[2].Predicate = "holding" }, ErrUndeclaredPredicate, "init[2]"},
		{"arity", func(p *ir.ProblemSpec) { p.Init[2].Args = nil }, ErrArityMismatch, "init[2]"},
		{"unknown object", func(p *ir.ProblemSpec) { p.Init[0].Args[1] = "Z" }, ErrUnknownObject, "init[0].args[1]"},
		{"argument type", func(p *ir.ProblemSpec) { p.Init[1].Args = []string{"table", "B"} }, ErrTypeMismatch, "init[1].args[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)

			errs := ValidateProblem(&d, &p)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code, "errors: %v", errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateProblemStandalone(t *testing.T) {
	p := ir.ProblemSpec{
		Name:    "p1",
		Objects: []ir.ObjectDecl{{Name: "A", Type: "block"}, {Name: "A", Type: "block"}},
	}

	errs := Validate(&p)

	require.Len(t, errs, 2)
	assert.Equal(t, ErrProblemDomainEmpty, errs[0].Code)
	assert.Equal(t, ErrDuplicateName, errs[1].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "actions[0]", Message: "bad", Code: ErrInvalidParameter}
	assert.Equal(t, "[E109] actions[0]: bad", err.Error())

	err.Line = 7
	assert.Equal(t, "[E109] line 7: actions[0]: bad", err.Error())
}
