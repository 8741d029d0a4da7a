package action

import (
	"errors"
	"strings"

	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/symbolic"
)

// Action is a compiled action schema. It is immutable after construction.
type Action struct {
	name    string
	params  []symbolic.Object
	pre     symbolic.Formula
	effects effect
	args    symbolic.ParameterGenerator
}

// New compiles schema against p.
func New(p *symbolic.Pddl, schema *ir.ActionSchema) (*Action, error) {
	if p == nil {
		return nil, &SchemaError{Message: "domain is nil", Err: &symbolic.SchemaError{Code: symbolic.ErrCodeMissingDomain, Message: "domain is nil"}}
	}
	if schema == nil {
		return nil, &SchemaError{Message: "action schema is nil"}
	}

	if errs := schema.Validate(); len(errs) > 0 {
		return nil, &SchemaError{Action: schema.Name, Field: errs[0].Field, Message: errs[0].Message}
	}

	params, err := p.ConvertParams(schema.Params)
	if err != nil {
		return nil, wrapSchema(schema.Name, "params", err)
	}

	pre, err := symbolic.NewFormula(p, schema.Precondition, params)
	if err != nil {
		return nil, wrapSchema(schema.Name, "precondition", err)
	}

	effects, err := compileEffects(p, schema.Effects, params, "effects")
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Action = schema.Name
		}
		return nil, err
	}

	return &Action{
		name:    schema.Name,
		params:  params,
		pre:     pre,
		effects: effects,
		args:    symbolic.NewParameterGeneratorFor(p.Objects(), params),
	}, nil
}

// Lookup compiles the first action schema in p named name.
func Lookup(p *symbolic.Pddl, name string) (*Action, error) {
	if p == nil {
		return nil, &SchemaError{Action: name, Message: "domain is nil", Err: &symbolic.SchemaError{Code: symbolic.ErrCodeMissingDomain, Message: "domain is nil"}}
	}
	symbols := p.ActionSymbols()
	if symbols == nil {
		return nil, &SchemaError{
			Action:  name,
			Message: "domain " + p.Domain().Name + " has no action list",
			Err:     &symbolic.SchemaError{Code: symbolic.ErrCodeNoActions, Message: "no action list"},
		}
	}
	for i := range symbols {
		if symbols[i].Name == name {
			return New(p, &symbols[i])
		}
	}
	return nil, &CallError{
		Code:    ErrCodeActionNotFound,
		Action:  name,
		Message: "could not find action " + name + " in domain " + p.Domain().Name,
	}
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Parameters returns a copy of the formal parameters.
func (a *Action) Parameters() []symbolic.Object {
	out := make([]symbolic.Object, len(a.params))
	copy(out, a.params)
	return out
}

// Preconditions returns the compiled precondition.
func (a *Action) Preconditions() symbolic.Formula { return a.pre }

// IsValid reports whether the precondition holds in state under args.
func (a *Action) IsValid(state symbolic.State, args []symbolic.Object) bool {
	return a.pre.Evaluate(state, args)
}

// Apply returns the state after applying the action's effects to a copy of
// state. Preconditions are not checked and args must already have the
// action's arity; ParseAction performs that validation.
func (a *Action) Apply(state symbolic.State, args []symbolic.Object) symbolic.State {
	next := state.Clone()
	a.effects.apply(args, &next)
	return next
}

// ApplyInPlace applies the action's effects to state and reports whether it
// changed.
func (a *Action) ApplyInPlace(args []symbolic.Object, state *symbolic.State) bool {
	return a.effects.apply(args, state)
}

// Arguments enumerates every well-typed argument tuple for the action.
func (a *Action) Arguments() symbolic.ParameterGenerator { return a.args }

// String renders the schema form, e.g. "move(?x - block, ?y - location)".
func (a *Action) String() string {
	parts := make([]string, len(a.params))
	for i, p := range a.params {
		parts[i] = p.Name() + " - " + p.Type().Name()
	}
	return a.name + "(" + strings.Join(parts, ", ") + ")"
}

// Call renders a grounded call, e.g. "move(A, C)".
func (a *Action) Call(args []symbolic.Object) string {
	return symbolic.RenderCall(a.name, args)
}
