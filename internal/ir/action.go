package ir

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks structural rules of an action schema that do not need the
// enclosing domain. Cross-references (types, predicates, arities) are checked
// by compiler.Validate.
// Returns all errors (not fail-fast) for better developer experience.
func (a *ActionSchema) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "action name is required",
		})
	}

	errs = append(errs, validateParams("params", a.Params, nil)...)

	scope := make(map[string]bool, len(a.Params))
	for _, p := range a.Params {
		scope[p.Name] = true
	}
	errs = append(errs, validateEffectParams("effects", a.Effects, scope)...)

	return errs
}

// validateParams checks parameter naming and uniqueness. Names already bound
// in outer may not be rebound.
func validateParams(field string, params []Param, outer map[string]bool) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if !IsVariable(p.Name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].name", field, i),
				Message: fmt.Sprintf("parameter %q must start with '?'", p.Name),
			})
		}
		if seen[p.Name] || outer[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].name", field, i),
				Message: fmt.Sprintf("duplicate parameter %q", p.Name),
			})
		}
		seen[p.Name] = true
		if strings.TrimSpace(p.Type) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].type", field, i),
				Message: fmt.Sprintf("parameter %q has no type", p.Name),
			})
		}
	}
	return errs
}

// validateEffectParams checks that nested forall variables do not shadow
// parameters already in scope.
func validateEffectParams(field string, effects EffectList, scope map[string]bool) []ValidationError {
	var errs []ValidationError
	for i, fe := range effects.Forall {
		path := fmt.Sprintf("%s.forall[%d]", field, i)
		errs = append(errs, validateParams(path+".vars", fe.Vars, scope)...)
		inner := make(map[string]bool, len(scope)+len(fe.Vars))
		for k := range scope {
			inner[k] = true
		}
		for _, v := range fe.Vars {
			inner[v.Name] = true
		}
		errs = append(errs, validateEffectParams(path+".effects", fe.Effects, inner)...)
	}
	for i, ce := range effects.When {
		errs = append(errs, validateEffectParams(fmt.Sprintf("%s.when[%d].effects", field, i), ce.Effects, scope)...)
	}
	return errs
}

// String renders a parameter as "?x - block".
func (p Param) String() string {
	return p.Name + " - " + p.Type
}

// String renders an atom as "on(?x, ?y)".
func (a Atom) String() string {
	return a.Predicate + "(" + strings.Join(a.Args, ", ") + ")"
}

// IsEmpty reports whether the effect list declares nothing.
func (e EffectList) IsEmpty() bool {
	return len(e.Forall) == 0 && len(e.Add) == 0 && len(e.Del) == 0 && len(e.When) == 0
}

// Atoms returns every atom referenced by the effect list, nested ones
// included, in application order. Conditions are not included.
func (e EffectList) Atoms() []Atom {
	var atoms []Atom
	for _, fe := range e.Forall {
		atoms = append(atoms, fe.Effects.Atoms()...)
	}
	atoms = append(atoms, e.Add...)
	atoms = append(atoms, e.Del...)
	for _, ce := range e.When {
		atoms = append(atoms, ce.Effects.Atoms()...)
	}
	return atoms
}
