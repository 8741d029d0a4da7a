package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
)

func TestRemapperReordersAndSubsets(t *testing.T) {
	p := newTestPddl(t)
	formals := params(t, p,
		ir.Param{Name: "?x", Type: "block"},
		ir.Param{Name: "?y", Type: "location"},
		ir.Param{Name: "?z", Type: "block"},
	)
	args := objs(t, p, "A", "table", "C")

	tests := []struct {
		name  string
		terms []string
		want  string
	}{
		{"identity", []string{"?x", "?y", "?z"}, "(A, table, C)"},
		{"reordered", []string{"?z", "?x"}, "(C, A)"},
		{"subset", []string{"?y"}, "(table)"},
		{"repeated", []string{"?x", "?x"}, "(A, A)"},
		{"constant", []string{"?x", "table"}, "(A, table)"},
		{"empty", nil, "()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRemapper(formals, tt.terms, p.Objects())
			require.NoError(t, err)
			assert.Equal(t, len(tt.terms), r.Arity())
			assert.Equal(t, tt.want, RenderCall("", r.Apply(args)))
		})
	}
}

func TestRemapperUndeclaredParameterFailsFast(t *testing.T) {
	p := newTestPddl(t)
	formals := params(t, p, ir.Param{Name: "?x", Type: "block"})

	_, err := NewRemapper(formals, []string{"?x", "?from"}, p.Objects())

	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Equal(t, ErrCodeUndeclaredParameter, SchemaErrorCodeOf(err))
	assert.Contains(t, err.Error(), "?from")
}

func TestRemapperUnknownConstant(t *testing.T) {
	p := newTestPddl(t)

	_, err := NewRemapper(nil, []string{"floor"}, p.Objects())

	assert.Equal(t, ErrCodeUnknownObject, SchemaErrorCodeOf(err))
}

func TestRemapperPrefersInnermostBinding(t *testing.T) {
	p := newTestPddl(t)
	block, _ := p.Types().Lookup("block")
	formals := []Object{NewObject("?x", block), NewObject("?x", block)}

	r, err := NewRemapper(formals, []string{"?x"}, p.Objects())
	require.NoError(t, err)
	assert.Equal(t, "(B)", RenderCall("", r.Apply(objs(t, p, "A", "B"))))
}
