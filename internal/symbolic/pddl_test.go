package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
)

func TestNewPddlResolvesInitialState(t *testing.T) {
	p := newTestPddl(t)

	s := p.InitialState()
	assert.Equal(t, 5, s.Len())

	// InitialState hands out copies.
	s.Erase(NewProposition("handempty", nil))
	assert.Equal(t, 5, p.InitialState().Len())
	assert.Equal(t, "blocks", p.Domain().Name)
	assert.Equal(t, "stack", p.Problem().Name)
}

func TestNewPddlErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *ir.DomainSpec, pr *ir.ProblemSpec)
		code   SchemaErrorCode
	}{
		{
			name:   "domain mismatch",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) { pr.Domain = "logistics" },
			code:   ErrCodeMissingDomain,
		},
		{
			name: "init unknown predicate",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) {
				pr.Init = append(pr.Init, ir.Atom{Predicate: "holding", Args: []string{"A"}})
			},
			code: ErrCodeUnknownPredicate,
		},
		{
			name: "init unknown object",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) {
				pr.Init = append(pr.Init, ir.Atom{Predicate: "clear", Args: []string{"Z"}})
			},
			code: ErrCodeUnknownObject,
		},
		{
			name: "object name that renders like two arguments",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) {
				pr.Objects = append(pr.Objects, ir.ObjectDecl{Name: "B, C", Type: "block"})
			},
			code: ErrCodeInvalidName,
		},
		{
			name: "predicate name with a parenthesis",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) {
				d.Predicates = append(d.Predicates, ir.PredicateSig{Name: "on(A"})
			},
			code: ErrCodeInvalidName,
		},
		{
			name: "init wrong type",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) {
				pr.Init = append(pr.Init, ir.Atom{Predicate: "on", Args: []string{"table", "A"}})
			},
			code: ErrCodeTypeMismatch,
		},
		{
			name: "predicate with unknown type",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) {
				d.Predicates = append(d.Predicates, ir.PredicateSig{Name: "holding", Params: []ir.Param{{Name: "?g", Type: "gripper"}}})
			},
			code: ErrCodeUnknownType,
		},
		{
			name:   "object with unknown type",
			mutate: func(d *ir.DomainSpec, pr *ir.ProblemSpec) { pr.Objects[0].Type = "gripper" },
			code:   ErrCodeUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pr := blocksDomain(), blocksProblem()
			tt.mutate(&d, &pr)
			_, err := NewPddl(d, pr)
			require.Error(t, err)
			assert.Equal(t, tt.code, SchemaErrorCodeOf(err))
		})
	}
}

func TestPddlParseState(t *testing.T) {
	p := newTestPddl(t)

	s, err := p.ParseState([]string{"on(C, table)", "clear(C)", "clear(C)"})
	require.NoError(t, err)
	assert.Equal(t, "{clear(C), on(C, table)}", s.String())

	_, err = p.ParseState([]string{"on(C"})
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)

	_, err = p.ParseState([]string{"clear(Z)"})
	var ue *UnknownObjectError
	assert.ErrorAs(t, err, &ue)
}

func TestPddlParseObjects(t *testing.T) {
	p := newTestPddl(t)

	got, err := p.ParseObjects([]string{"A", "table"})
	require.NoError(t, err)
	assert.Equal(t, "(A, table)", RenderCall("", got))

	_, err = p.ParseObjects([]string{"A", "floor"})
	var ue *UnknownObjectError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "floor", ue.Name)
}

func TestPddlConvertParams(t *testing.T) {
	p := newTestPddl(t)

	got, err := p.ConvertParams([]ir.Param{{Name: "?x", Type: "block"}})
	require.NoError(t, err)
	assert.Equal(t, "?x", got[0].Name())
	assert.Equal(t, "block", got[0].Type().Name())

	_, err = p.ConvertParams([]ir.Param{{Name: "?x", Type: "gripper"}})
	assert.Equal(t, ErrCodeUnknownType, SchemaErrorCodeOf(err))
}
