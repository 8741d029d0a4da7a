package symbolic

import (
	"fmt"

	"github.com/roach88/symbolic/internal/ir"
)

// Pddl bundles a domain and a problem with their resolved types, objects and
// initial state. It is immutable after construction and is passed
// explicitly to every grounding constructor.
type Pddl struct {
	domain  ir.DomainSpec
	problem ir.ProblemSpec
	types   *TypeHierarchy
	objects *ObjectMap
	initial State
}

// NewPddl resolves a domain/problem pair. Every init atom must name a declared
// predicate with matching arity and well-typed, declared objects.
func NewPddl(domain ir.DomainSpec, problem ir.ProblemSpec) (*Pddl, error) {
	if problem.Domain != "" && problem.Domain != domain.Name {
		return nil, newSchemaError(ErrCodeMissingDomain, "problem.domain", "problem %q targets domain %q, got %q", problem.Name, problem.Domain, domain.Name)
	}

	types, err := NewTypeHierarchy(domain.Types)
	if err != nil {
		return nil, err
	}
	objects, err := NewObjectMap(types, domain.Constants, problem.Objects)
	if err != nil {
		return nil, err
	}

	p := &Pddl{
		domain:  domain,
		problem: problem,
		types:   types,
		objects: objects,
	}

	for _, pred := range domain.Predicates {
		if !isSymbol(pred.Name) {
			return nil, newSchemaError(ErrCodeInvalidName, "predicates", "invalid predicate name %q", pred.Name)
		}
		for _, param := range pred.Params {
			if _, ok := types.Lookup(param.Type); !ok {
				return nil, newSchemaError(ErrCodeUnknownType, "predicates."+pred.Name, "parameter %s has undeclared type %q", param.Name, param.Type)
			}
		}
	}

	init := NewState()
	for i, atom := range problem.Init {
		prop, err := p.groundAtom(atom)
		if err != nil {
			if !IsSchemaError(err) {
				err = newSchemaError(ErrCodeUnknownObject, atom.String(), "%v", err)
			}
			return nil, fmt.Errorf("init[%d]: %w", i, err)
		}
		init.Insert(prop)
	}
	p.initial = init

	return p, nil
}

// Domain returns the domain schema. Callers must not modify it.
func (p *Pddl) Domain() *ir.DomainSpec { return &p.domain }

// Problem returns the problem schema. Callers must not modify it.
func (p *Pddl) Problem() *ir.ProblemSpec { return &p.problem }

// Types returns the type hierarchy.
func (p *Pddl) Types() *TypeHierarchy { return p.types }

// Objects returns the object registry.
func (p *Pddl) Objects() *ObjectMap { return p.objects }

// InitialState returns a fresh copy of the problem's initial state.
func (p *Pddl) InitialState() State { return p.initial.Clone() }

// ActionSymbols returns the domain's action schemas in declaration order.
// A nil result means the domain declares no action list at all.
func (p *Pddl) ActionSymbols() []ir.ActionSchema { return p.domain.Actions }

// ConvertParams resolves formal parameters to typed Objects.
func (p *Pddl) ConvertParams(params []ir.Param) ([]Object, error) {
	out := make([]Object, len(params))
	for i, param := range params {
		typ, ok := p.types.Lookup(param.Type)
		if !ok {
			return nil, newSchemaError(ErrCodeUnknownType, fmt.Sprintf("params[%d]", i), "parameter %s has undeclared type %q", param.Name, param.Type)
		}
		out[i] = NewObject(param.Name, typ)
	}
	return out, nil
}

// ParseObjects resolves object name tokens. Unknown names are returned as an
// *UnknownObjectError so callers can report them as user input errors.
func (p *Pddl) ParseObjects(tokens []string) ([]Object, error) {
	out := make([]Object, len(tokens))
	for i, tok := range tokens {
		obj, ok := p.objects.Lookup(tok)
		if !ok {
			return nil, &UnknownObjectError{Name: tok}
		}
		out[i] = obj
	}
	return out, nil
}

// ParseProposition parses and validates "pred(a, b)" text.
func (p *Pddl) ParseProposition(text string) (Proposition, error) {
	name, tokens, err := ParseCall(text)
	if err != nil {
		return Proposition{}, err
	}
	return p.groundAtom(ir.Atom{Predicate: name, Args: tokens})
}

// ParseState parses a list of proposition texts into a State.
func (p *Pddl) ParseState(texts []string) (State, error) {
	s := NewState()
	for _, text := range texts {
		prop, err := p.ParseProposition(text)
		if err != nil {
			return State{}, err
		}
		s.Insert(prop)
	}
	return s, nil
}

// CheckAtom verifies that an atom names a declared predicate with the right
// arity.
func (p *Pddl) CheckAtom(atom ir.Atom) (*ir.PredicateSig, error) {
	sig, ok := p.domain.FindPredicate(atom.Predicate)
	if !ok {
		return nil, newSchemaError(ErrCodeUnknownPredicate, "", "predicate %q is not declared", atom.Predicate)
	}
	if len(sig.Params) != len(atom.Args) {
		return nil, newSchemaError(ErrCodeArityMismatch, "", "%s takes %d arguments, got %d", atom.Predicate, len(sig.Params), len(atom.Args))
	}
	return sig, nil
}

// groundAtom resolves an atom whose terms are all object names.
func (p *Pddl) groundAtom(atom ir.Atom) (Proposition, error) {
	sig, err := p.CheckAtom(atom)
	if err != nil {
		return Proposition{}, err
	}
	args, err := p.ParseObjects(atom.Args)
	if err != nil {
		return Proposition{}, err
	}
	for i, arg := range args {
		want, _ := p.types.Lookup(sig.Params[i].Type)
		if !arg.Type().IsSubtype(want) {
			return Proposition{}, newSchemaError(ErrCodeTypeMismatch, atom.String(), "argument %s has type %s, want %s", arg, arg.Type(), want)
		}
	}
	return NewProposition(atom.Predicate, args), nil
}

// UnknownObjectError reports an object name that is not registered.
type UnknownObjectError struct {
	Name string
}

func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("unknown object %q", e.Name)
}
