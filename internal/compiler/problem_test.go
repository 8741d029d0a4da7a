package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
)

func TestCompileProblemBasic(t *testing.T) {
	_, problem := compileBlocks(t)

	assert.Equal(t, "p1", problem.Name)
	assert.Equal(t, "blocks", problem.Domain)
	assert.Equal(t, []ir.ObjectDecl{
		{Name: "A", Type: "block"},
		{Name: "B", Type: "block"},
		{Name: "C", Type: "block"},
	}, problem.Objects)
	require.Len(t, problem.Init, 5)
	assert.Equal(t, ir.Atom{Predicate: "on", Args: []string{"B", "table"}}, problem.Init[1])
	assert.Equal(t, ir.Atom{Predicate: "handempty"}, problem.Init[4])
}

func TestCompileProblemErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing domain", `problem: p: {objects: {}}`, "domain"},
		{"object type not a string", `problem: p: {domain: "d", objects: {A: 1}}`, "objects.A"},
		{"init not a list", `problem: p: {domain: "d", init: "on(A, B)"}`, "init"},
		{"bad init atom", `problem: p: {domain: "d", init: ["on(A, B"]}`, "init[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileProblem(v.LookupPath(cue.ParsePath("problem.p")))
			require.Error(t, err)
			var compileErr *CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, tt.field, compileErr.Field)
		})
	}
}

func TestCompileProblemNoInit(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`problem: empty: domain: "d"`)
	require.NoError(t, v.Err())

	problem, err := CompileProblem(v.LookupPath(cue.ParsePath("problem.empty")))
	require.NoError(t, err)
	assert.Equal(t, "empty", problem.Name)
	assert.Empty(t, problem.Objects)
	assert.Empty(t, problem.Init)
}
