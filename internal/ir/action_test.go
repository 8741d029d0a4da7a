package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionSchemaValidation(t *testing.T) {
	tests := []struct {
		name     string
		action   ActionSchema
		wantErrs int
		errField string // Expected field in first error (for specific checks)
	}{
		{
			name: "valid action",
			action: ActionSchema{
				Name:   "move",
				Params: []Param{{Name: "?x", Type: "block"}, {Name: "?y", Type: "location"}},
				Effects: EffectList{
					Add: []Atom{{Predicate: "on", Args: []string{"?x", "?y"}}},
				},
			},
			wantErrs: 0,
		},
		{
			name:     "missing name",
			action:   ActionSchema{Name: "  "},
			wantErrs: 1,
			errField: "name",
		},
		{
			name: "parameter without question mark",
			action: ActionSchema{
				Name:   "bad",
				Params: []Param{{Name: "x", Type: "block"}},
			},
			wantErrs: 1,
			errField: "params[0].name",
		},
		{
			name: "duplicate parameter",
			action: ActionSchema{
				Name:   "bad",
				Params: []Param{{Name: "?x", Type: "block"}, {Name: "?x", Type: "block"}},
			},
			wantErrs: 1,
			errField: "params[1].name",
		},
		{
			name: "untyped parameter",
			action: ActionSchema{
				Name:   "bad",
				Params: []Param{{Name: "?x"}},
			},
			wantErrs: 1,
			errField: "params[0].type",
		},
		{
			name: "forall shadows action parameter",
			action: ActionSchema{
				Name:   "bad",
				Params: []Param{{Name: "?x", Type: "block"}},
				Effects: EffectList{
					Forall: []ForallEffect{{Vars: []Param{{Name: "?x", Type: "block"}}}},
				},
			},
			wantErrs: 1,
			errField: "effects.forall[0].vars[0].name",
		},
		{
			name: "nested forall inside when",
			action: ActionSchema{
				Name:   "bad",
				Params: []Param{{Name: "?x", Type: "block"}},
				Effects: EffectList{
					When: []CondEffect{{
						Condition: Condition{Op: OpAnd},
						Effects: EffectList{
							Forall: []ForallEffect{{Vars: []Param{{Name: "?x", Type: "block"}}}},
						},
					}},
				},
			},
			wantErrs: 1,
			errField: "effects.when[0].effects.forall[0].vars[0].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.action.Validate()
			assert.Len(t, errs, tt.wantErrs)
			if tt.errField != "" && len(errs) > 0 {
				assert.Equal(t, tt.errField, errs[0].Field)
			}
		})
	}
}

func TestAtomAndParamString(t *testing.T) {
	assert.Equal(t, "on(?x, table)", Atom{Predicate: "on", Args: []string{"?x", "table"}}.String())
	assert.Equal(t, "handempty()", Atom{Predicate: "handempty"}.String())
	assert.Equal(t, "?x - block", Param{Name: "?x", Type: "block"}.String())
}

func TestEffectListAtomsOrder(t *testing.T) {
	a := func(p string) Atom { return Atom{Predicate: p} }
	effects := EffectList{
		When:   []CondEffect{{Effects: EffectList{Add: []Atom{a("w")}}}},
		Del:    []Atom{a("d")},
		Add:    []Atom{a("a")},
		Forall: []ForallEffect{{Effects: EffectList{Del: []Atom{a("f")}}}},
	}

	var got []string
	for _, atom := range effects.Atoms() {
		got = append(got, atom.Predicate)
	}
	assert.Equal(t, []string{"f", "a", "d", "w"}, got)
	assert.False(t, effects.IsEmpty())
	assert.True(t, EffectList{}.IsEmpty())
}

func TestIsVariable(t *testing.T) {
	assert.True(t, IsVariable("?x"))
	assert.False(t, IsVariable("x"))
	assert.False(t, IsVariable(""))
}

func TestDomainFind(t *testing.T) {
	d := testDomain()
	d.Actions = append(d.Actions, ActionSchema{Name: "touch", Params: nil})

	got, ok := d.FindAction("touch")
	assert.True(t, ok)
	assert.Len(t, got.Params, 1, "first declared action wins")

	_, ok = d.FindAction("missing")
	assert.False(t, ok)

	p, ok := d.FindPredicate("clear")
	assert.True(t, ok)
	assert.Equal(t, "clear", p.Name)
}
