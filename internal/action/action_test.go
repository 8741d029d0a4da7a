package action

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/symbolic"
)

func TestMoveEndToEnd(t *testing.T) {
	p := newTestPddl(t)
	init := p.InitialState()

	a, args, err := ParseAction(p, "move(A, C)")
	require.NoError(t, err)
	require.True(t, a.IsValid(init, args))

	next := a.Apply(init, args)

	assert.Equal(t, "{at(A, C), clear(A), clear(B)}", next.String())
	added, removed := init.Diff(next)
	assert.Equal(t, []string{"at(A, C)", "clear(B)"}, added)
	assert.Equal(t, []string{"at(A, B)", "clear(C)"}, removed)

	inPlace := init.Clone()
	assert.True(t, a.ApplyInPlace(args, &inPlace))
	assert.True(t, inPlace.Equal(next))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	p := newTestPddl(t)
	init := p.InitialState()
	before := init.Clone()

	for _, call := range []string{"move(A, C)", "mark(B)", "pick-first", "unclear(A)"} {
		a, args, err := ParseAction(p, call)
		require.NoError(t, err, call)
		next := a.Apply(init, args)
		assert.False(t, next.Equal(init), call)
	}

	assert.True(t, before.Equal(init))
	assert.Equal(t, before.String(), init.String())
}

func TestApplyIgnoresPreconditions(t *testing.T) {
	p := newTestPddl(t)
	a := lookup(t, p, "move")
	args := objs(t, p, "C", "B")
	init := p.InitialState()

	require.False(t, a.IsValid(init, args))

	next := a.Apply(init, args)
	assert.True(t, next.ContainsCall("at", args))
}

func TestIdempotentEffects(t *testing.T) {
	p := newTestPddl(t)

	t.Run("add already present", func(t *testing.T) {
		s := state(t, p, "marked(A)", "done()")
		changed := lookup(t, p, "mark").ApplyInPlace(objs(t, p, "A"), &s)
		assert.False(t, changed)
		assert.Equal(t, "{done(), marked(A)}", s.String())
	})

	t.Run("delete absent", func(t *testing.T) {
		s := p.InitialState()
		changed := lookup(t, p, "unclear").ApplyInPlace(objs(t, p, "B"), &s)
		assert.False(t, changed)
		assert.True(t, s.Equal(p.InitialState()))
	})
}

func TestConditionalSeesEarlierAdd(t *testing.T) {
	p := newTestPddl(t)
	s := p.InitialState()

	changed := lookup(t, p, "mark").ApplyInPlace(objs(t, p, "A"), &s)

	assert.True(t, changed)
	assert.True(t, s.ContainsCall("marked", objs(t, p, "A")))
	assert.True(t, s.ContainsCall("done", nil), "when guard must observe marked(A) from the add effect")
}

func TestForallOverEmptyDomain(t *testing.T) {
	p := newTestPddl(t)
	s := p.InitialState()
	sweep := lookup(t, p, "sweep")

	assert.False(t, sweep.ApplyInPlace(nil, &s))
	assert.False(t, s.ContainsCall("done", nil))
	assert.True(t, s.Equal(p.InitialState()))
}

func TestForallExpansionsSeeEarlierExpansions(t *testing.T) {
	p := newTestPddl(t)

	next := lookup(t, p, "pick-first").Apply(p.InitialState(), nil)

	assert.Equal(t, "{at(A, B), clear(A), clear(C), done(), marked(A)}", next.String())
}

func TestEffectArgumentsAreRemapped(t *testing.T) {
	p := newTestPddl(t)

	next := lookup(t, p, "stack-on-table").Apply(symbolic.NewState(), objs(t, p, "A", "B"))

	assert.Equal(t, "{at(A, table), at(B, A)}", next.String())
}

func TestLookup(t *testing.T) {
	p := newTestPddl(t)

	t.Run("first match wins", func(t *testing.T) {
		a := lookup(t, p, "mark")
		assert.Len(t, a.Parameters(), 1)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := Lookup(p, "jump")
		require.Error(t, err)
		assert.True(t, IsCallError(err))
		assert.False(t, IsSchemaError(err))
		assert.Equal(t, ErrCodeActionNotFound, CallErrorCodeOf(err))
	})

	t.Run("empty action list", func(t *testing.T) {
		d := worldDomain()
		d.Actions = []ir.ActionSchema{}
		empty, err := symbolic.NewPddl(d, worldProblem())
		require.NoError(t, err)

		_, err = Lookup(empty, "move")
		assert.Equal(t, ErrCodeActionNotFound, CallErrorCodeOf(err))
	})

	t.Run("no action list", func(t *testing.T) {
		d := worldDomain()
		d.Actions = nil
		bare, err := symbolic.NewPddl(d, worldProblem())
		require.NoError(t, err)

		_, err = Lookup(bare, "move")
		assert.True(t, IsSchemaError(err))
		assert.False(t, IsCallError(err))
		assert.Equal(t, symbolic.ErrCodeNoActions, symbolic.SchemaErrorCodeOf(err))
	})

	t.Run("nil domain", func(t *testing.T) {
		_, err := Lookup(nil, "move")
		assert.True(t, IsSchemaError(err))
		assert.Equal(t, symbolic.ErrCodeMissingDomain, symbolic.SchemaErrorCodeOf(err))
	})
}

func TestNewSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema ir.ActionSchema
		field  string
		code   symbolic.SchemaErrorCode
	}{
		{
			name: "undeclared parameter in effect",
			schema: ir.ActionSchema{
				Name:    "bad",
				Params:  []ir.Param{{Name: "?x", Type: "block"}},
				Effects: ir.EffectList{Add: []ir.Atom{atom("at", "?x", "?from")}},
			},
			field: "effects.add[0]",
			code:  symbolic.ErrCodeUndeclaredParameter,
		},
		{
			name: "undeclared parameter in nested effect",
			schema: ir.ActionSchema{
				Name: "bad",
				Effects: ir.EffectList{Forall: []ir.ForallEffect{{
					Vars:    []ir.Param{{Name: "?b", Type: "block"}},
					Effects: ir.EffectList{Del: []ir.Atom{atom("clear", "?c")}},
				}}},
			},
			field: "effects.forall[0].effects.del[0]",
			code:  symbolic.ErrCodeUndeclaredParameter,
		},
		{
			name: "unknown predicate",
			schema: ir.ActionSchema{
				Name:    "bad",
				Effects: ir.EffectList{Add: []ir.Atom{atom("holding")}},
			},
			field: "effects.add[0]",
			code:  symbolic.ErrCodeUnknownPredicate,
		},
		{
			name: "effect arity",
			schema: ir.ActionSchema{
				Name:    "bad",
				Params:  []ir.Param{{Name: "?x", Type: "block"}},
				Effects: ir.EffectList{Del: []ir.Atom{atom("at", "?x")}},
			},
			field: "effects.del[0]",
			code:  symbolic.ErrCodeArityMismatch,
		},
		{
			name: "unknown parameter type",
			schema: ir.ActionSchema{
				Name:   "bad",
				Params: []ir.Param{{Name: "?x", Type: "robot"}},
			},
			field: "params",
			code:  symbolic.ErrCodeUnknownType,
		},
		{
			name: "guard with undeclared parameter",
			schema: ir.ActionSchema{
				Name: "bad",
				Effects: ir.EffectList{When: []ir.CondEffect{{
					Condition: atomCond("clear", "?y"),
					Effects:   ir.EffectList{Add: []ir.Atom{atom("done")}},
				}}},
			},
			field: "effects.when[0].condition",
			code:  symbolic.ErrCodeUndeclaredParameter,
		},
		{
			name: "precondition",
			schema: ir.ActionSchema{
				Name:         "bad",
				Precondition: &ir.Condition{Op: "xor"},
			},
			field: "precondition",
			code:  symbolic.ErrCodeInvalidCondition,
		},
	}

	p := newTestPddl(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := tt.schema
			_, err := New(p, &schema)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err))

			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "bad", se.Action)
			assert.Equal(t, tt.field, se.Field)
			assert.Equal(t, tt.code, symbolic.SchemaErrorCodeOf(err))
		})
	}
}

func TestNewRejectsMalformedParameters(t *testing.T) {
	p := newTestPddl(t)
	schema := ir.ActionSchema{Name: "bad", Params: []ir.Param{{Name: "x", Type: "block"}}}

	_, err := New(p, &schema)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "params[0].name", se.Field)
}

func TestActionRendering(t *testing.T) {
	p := newTestPddl(t)

	move := lookup(t, p, "move")
	assert.Equal(t, "move", move.Name())
	assert.Equal(t, "move(?x - block, ?y - location)", move.String())
	assert.Equal(t, "move(A, C)", move.Call(objs(t, p, "A", "C")))

	sweep := lookup(t, p, "sweep")
	assert.Equal(t, "sweep()", sweep.String())
	assert.Equal(t, "sweep()", sweep.Call(nil))
}

func TestArguments(t *testing.T) {
	p := newTestPddl(t)

	// 3 blocks x (table + 3 blocks).
	assert.Equal(t, 12, lookup(t, p, "move").Arguments().Len())
	assert.Equal(t, 1, lookup(t, p, "sweep").Arguments().Len())

	var valid []string
	move := lookup(t, p, "move")
	init := p.InitialState()
	for args := range move.Arguments().All() {
		if move.IsValid(init, args) {
			valid = append(valid, move.Call(args))
		}
	}
	assert.Equal(t, []string{"move(A, A)", "move(A, C)"}, valid)
}

func TestParametersReturnsCopy(t *testing.T) {
	p := newTestPddl(t)
	a := lookup(t, p, "move")

	params := a.Parameters()
	params[0] = params[1]

	assert.Equal(t, "?x", a.Parameters()[0].Name())
}

func TestConcurrentApply(t *testing.T) {
	p := newTestPddl(t)
	a, args, err := ParseAction(p, "move(A, C)")
	require.NoError(t, err)
	init := p.InitialState()

	var wg sync.WaitGroup
	results := make([]symbolic.State, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.Apply(init, args)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "{at(A, C), clear(A), clear(B)}", r.String())
	}
}
