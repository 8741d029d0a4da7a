package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/symbolic/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// DomainSpec errors (E101-E119)
	ErrDomainNameEmpty     = "E101" // domain name is required
	ErrDomainNoActions     = "E102" // domain has no action list
	ErrUndeclaredType      = "E103" // type reference to an undeclared type
	ErrUndeclaredPredicate = "E104" // atom names an undeclared predicate
	ErrDuplicateName       = "E105" // duplicate type/object/predicate/action name
	ErrArityMismatch       = "E106" // atom has the wrong number of terms
	ErrUndeclaredParameter = "E107" // atom references a parameter not in scope
	ErrUnknownObject       = "E108" // atom references an undeclared constant/object
	ErrInvalidParameter    = "E109" // malformed parameter list
	ErrTypeCycle           = "E110" // type is its own ancestor
	ErrInvalidCondition    = "E111" // malformed condition

	// ProblemSpec errors (E120-E129)
	ErrProblemDomainEmpty    = "E120" // problem must name its domain
	ErrProblemDomainMismatch = "E121" // problem names a different domain
	ErrTypeMismatch          = "E122" // init argument has the wrong type
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports DomainSpec and ProblemSpec; problems are only checked on their
// own here, use ValidateProblem to check them against a domain.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.DomainSpec:
		return validateDomainSpec(spec)
	case ir.DomainSpec:
		return validateDomainSpec(&spec)
	case *ir.ProblemSpec:
		return validateProblemSpec(spec)
	case ir.ProblemSpec:
		return validateProblemSpec(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// domainIndex holds the declared names of a domain for cross-reference checks.
type domainIndex struct {
	types      map[string]string // name -> parent
	objects    map[string]string // name -> type
	predicates map[string]ir.PredicateSig
}

func newDomainIndex(spec *ir.DomainSpec) domainIndex {
	idx := domainIndex{
		types:      map[string]string{ir.RootType: ""},
		objects:    make(map[string]string),
		predicates: make(map[string]ir.PredicateSig),
	}
	for _, t := range spec.Types {
		if _, ok := idx.types[t.Name]; !ok {
			idx.types[t.Name] = t.Parent
		}
	}
	for _, c := range spec.Constants {
		if _, ok := idx.objects[c.Name]; !ok {
			idx.objects[c.Name] = c.Type
		}
	}
	for _, p := range spec.Predicates {
		if _, ok := idx.predicates[p.Name]; !ok {
			idx.predicates[p.Name] = p
		}
	}
	return idx
}

// isSubtype walks the parent chain of child. Cycles are reported elsewhere,
// so the walk is bounded by the number of types.
func (idx domainIndex) isSubtype(child, parent string) bool {
	for steps := 0; steps <= len(idx.types); steps++ {
		if child == parent {
			return true
		}
		if child == ir.RootType || child == "" {
			return parent == ir.RootType
		}
		next, ok := idx.types[child]
		if !ok {
			return false
		}
		if next == "" {
			next = ir.RootType
		}
		child = next
	}
	return false
}

// validateDomainSpec validates a domain specification.
func validateDomainSpec(spec *ir.DomainSpec) []ValidationError {
	var errs []ValidationError
	idx := newDomainIndex(spec)

	// E101: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "domain name is required and must be non-empty",
			Code:    ErrDomainNameEmpty,
		})
	}

	// E102: the action list must exist
	if spec.Actions == nil {
		errs = append(errs, ValidationError{
			Field:   "actions",
			Message: "domain has no action list",
			Code:    ErrDomainNoActions,
		})
	}

	typeNames := make(map[string]bool)
	for i, t := range spec.Types {
		field := fmt.Sprintf("types[%d]", i)
		if typeNames[t.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate type name: %q", t.Name),
				Code:    ErrDuplicateName,
			})
		}
		typeNames[t.Name] = true
		if t.Parent != "" {
			errs = append(errs, idx.checkType(field+".parent", t.Parent)...)
		}
	}

	// E110: cycles in the type hierarchy
	for _, w := range AnalyzeTypeCycles(spec.Types) {
		errs = append(errs, ValidationError{
			Field:   "types",
			Message: w.Message,
			Code:    ErrTypeCycle,
		})
	}

	errs = append(errs, validateObjectDecls("constants", spec.Constants, idx, nil)...)

	predNames := make(map[string]bool)
	for i, p := range spec.Predicates {
		field := fmt.Sprintf("predicates[%d]", i)
		if predNames[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate predicate name: %q", p.Name),
				Code:    ErrDuplicateName,
			})
		}
		predNames[p.Name] = true
		for j, param := range p.Params {
			errs = append(errs, idx.checkType(fmt.Sprintf("%s.params[%d].type", field, j), param.Type)...)
		}
	}

	actionNames := make(map[string]bool)
	for i := range spec.Actions {
		action := &spec.Actions[i]
		field := fmt.Sprintf("actions[%d]", i)

		// E105: duplicate action name. Lookup would silently pick the first.
		if actionNames[action.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate action name: %q", action.Name),
				Code:    ErrDuplicateName,
			})
		}
		actionNames[action.Name] = true

		errs = append(errs, idx.validateAction(field, action)...)
	}

	return errs
}

func (idx domainIndex) checkType(field, name string) []ValidationError {
	if _, ok := idx.types[name]; ok {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("undeclared type %q", name),
		Code:    ErrUndeclaredType,
	}}
}

func validateObjectDecls(field string, decls []ir.ObjectDecl, idx domainIndex, taken map[string]string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, d := range decls {
		f := fmt.Sprintf("%s[%d]", field, i)
		_, clash := taken[d.Name]
		if seen[d.Name] || clash {
			errs = append(errs, ValidationError{
				Field:   f,
				Message: fmt.Sprintf("duplicate object name: %q", d.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[d.Name] = true
		if ir.IsVariable(d.Name) {
			errs = append(errs, ValidationError{
				Field:   f,
				Message: fmt.Sprintf("object name %q must not start with '?'", d.Name),
				Code:    ErrInvalidParameter,
			})
		}
		errs = append(errs, idx.checkType(f+".type", d.Type)...)
	}
	return errs
}

// validateAction checks an action's parameters, precondition and effects
// against the domain's declarations.
func (idx domainIndex) validateAction(field string, action *ir.ActionSchema) []ValidationError {
	var errs []ValidationError

	// E109: structural rules owned by the schema itself
	for _, e := range action.Validate() {
		errs = append(errs, ValidationError{
			Field:   field + "." + e.Field,
			Message: e.Message,
			Code:    ErrInvalidParameter,
		})
	}

	scope := make(map[string]bool, len(action.Params))
	for j, p := range action.Params {
		errs = append(errs, idx.checkType(fmt.Sprintf("%s.params[%d].type", field, j), p.Type)...)
		scope[p.Name] = true
	}

	if action.Precondition != nil {
		errs = append(errs, idx.validateCondition(field+".precondition", *action.Precondition, scope)...)
	}
	errs = append(errs, idx.validateEffects(field+".effects", action.Effects, scope)...)
	return errs
}

func (idx domainIndex) validateEffects(field string, effects ir.EffectList, scope map[string]bool) []ValidationError {
	var errs []ValidationError
	for i, fe := range effects.Forall {
		f := fmt.Sprintf("%s.forall[%d]", field, i)
		inner := extendScope(scope, fe.Vars)
		for j, v := range fe.Vars {
			errs = append(errs, idx.checkType(fmt.Sprintf("%s.vars[%d].type", f, j), v.Type)...)
		}
		errs = append(errs, idx.validateEffects(f+".effects", fe.Effects, inner)...)
	}
	for i, a := range effects.Add {
		errs = append(errs, idx.validateAtom(fmt.Sprintf("%s.add[%d]", field, i), a, scope)...)
	}
	for i, a := range effects.Del {
		errs = append(errs, idx.validateAtom(fmt.Sprintf("%s.del[%d]", field, i), a, scope)...)
	}
	for i, ce := range effects.When {
		f := fmt.Sprintf("%s.when[%d]", field, i)
		errs = append(errs, idx.validateCondition(f+".condition", ce.Condition, scope)...)
		errs = append(errs, idx.validateEffects(f+".effects", ce.Effects, scope)...)
	}
	return errs
}

func (idx domainIndex) validateCondition(field string, cond ir.Condition, scope map[string]bool) []ValidationError {
	invalid := func(msg string) []ValidationError {
		return []ValidationError{{Field: field, Message: msg, Code: ErrInvalidCondition}}
	}

	switch cond.Op {
	case ir.OpAtom:
		if cond.Atom == nil {
			return invalid("atom condition without atom")
		}
		return idx.validateAtom(field, *cond.Atom, scope)

	case ir.OpAnd, ir.OpOr, ir.OpNot, ir.OpImply:
		switch {
		case cond.Op == ir.OpNot && len(cond.Args) != 1:
			return invalid(fmt.Sprintf("not takes 1 operand, got %d", len(cond.Args)))
		case cond.Op == ir.OpImply && len(cond.Args) != 2:
			return invalid(fmt.Sprintf("imply takes 2 operands, got %d", len(cond.Args)))
		}
		var errs []ValidationError
		for i, arg := range cond.Args {
			errs = append(errs, idx.validateCondition(fmt.Sprintf("%s.%s[%d]", field, cond.Op, i), arg, scope)...)
		}
		return errs

	case ir.OpEq:
		if len(cond.Terms) != 2 {
			return invalid(fmt.Sprintf("eq takes 2 terms, got %d", len(cond.Terms)))
		}
		return idx.validateTerms(field, cond.Terms, scope)

	case ir.OpExists, ir.OpForall:
		if len(cond.Args) != 1 {
			return invalid(fmt.Sprintf("%s takes 1 body, got %d", cond.Op, len(cond.Args)))
		}
		var errs []ValidationError
		for j, v := range cond.Vars {
			errs = append(errs, idx.checkType(fmt.Sprintf("%s.vars[%d].type", field, j), v.Type)...)
		}
		return append(errs, idx.validateCondition(field+"."+cond.Op, cond.Args[0], extendScope(scope, cond.Vars))...)

	default:
		return invalid(fmt.Sprintf("unknown condition operator %q", cond.Op))
	}
}

func (idx domainIndex) validateAtom(field string, atom ir.Atom, scope map[string]bool) []ValidationError {
	sig, ok := idx.predicates[atom.Predicate]
	if !ok {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("undeclared predicate %q", atom.Predicate),
			Code:    ErrUndeclaredPredicate,
		}}
	}
	if len(sig.Params) != len(atom.Args) {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("%s takes %d arguments, got %d", atom.Predicate, len(sig.Params), len(atom.Args)),
			Code:    ErrArityMismatch,
		}}
	}
	return idx.validateTerms(field, atom.Args, scope)
}

func (idx domainIndex) validateTerms(field string, terms []string, scope map[string]bool) []ValidationError {
	var errs []ValidationError
	for _, term := range terms {
		if ir.IsVariable(term) {
			if !scope[term] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("parameter %q is not declared", term),
					Code:    ErrUndeclaredParameter,
				})
			}
			continue
		}
		if _, ok := idx.objects[term]; !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("constant %q is not declared", term),
				Code:    ErrUnknownObject,
			})
		}
	}
	return errs
}

func extendScope(scope map[string]bool, vars []ir.Param) map[string]bool {
	inner := make(map[string]bool, len(scope)+len(vars))
	for k := range scope {
		inner[k] = true
	}
	for _, v := range vars {
		inner[v.Name] = true
	}
	return inner
}

// validateProblemSpec runs the checks that need no domain.
func validateProblemSpec(spec *ir.ProblemSpec) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(spec.Domain) == "" {
		errs = append(errs, ValidationError{
			Field:   "domain",
			Message: "problem must name its domain",
			Code:    ErrProblemDomainEmpty,
		})
	}
	seen := make(map[string]bool)
	for i, o := range spec.Objects {
		if seen[o.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("objects[%d]", i),
				Message: fmt.Sprintf("duplicate object name: %q", o.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[o.Name] = true
	}
	return errs
}

// ValidateProblem checks a problem against the domain it targets: object
// types, init predicates, arities and argument types.
// Returns all errors found (does not fail-fast).
func ValidateProblem(domain *ir.DomainSpec, problem *ir.ProblemSpec) []ValidationError {
	var errs []ValidationError
	idx := newDomainIndex(domain)

	if problem.Domain != "" && problem.Domain != domain.Name {
		errs = append(errs, ValidationError{
			Field:   "domain",
			Message: fmt.Sprintf("problem %q targets domain %q, not %q", problem.Name, problem.Domain, domain.Name),
			Code:    ErrProblemDomainMismatch,
		})
	}
	if strings.TrimSpace(problem.Domain) == "" {
		errs = append(errs, ValidationError{
			Field:   "domain",
			Message: "problem must name its domain",
			Code:    ErrProblemDomainEmpty,
		})
	}

	errs = append(errs, validateObjectDecls("objects", problem.Objects, idx, idx.objects)...)

	objects := make(map[string]string, len(idx.objects)+len(problem.Objects))
	for k, v := range idx.objects {
		objects[k] = v
	}
	for _, o := range problem.Objects {
		if _, ok := objects[o.Name]; !ok {
			objects[o.Name] = o.Type
		}
	}

	for i, atom := range problem.Init {
		field := fmt.Sprintf("init[%d]", i)
		sig, ok := idx.predicates[atom.Predicate]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("undeclared predicate %q", atom.Predicate),
				Code:    ErrUndeclaredPredicate,
			})
			continue
		}
		if len(sig.Params) != len(atom.Args) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s takes %d arguments, got %d", atom.Predicate, len(sig.Params), len(atom.Args)),
				Code:    ErrArityMismatch,
			})
			continue
		}
		for j, arg := range atom.Args {
			typ, ok := objects[arg]
			if !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.args[%d]", field, j),
					Message: fmt.Sprintf("undeclared object %q", arg),
					Code:    ErrUnknownObject,
				})
				continue
			}
			if want := sig.Params[j].Type; !idx.isSubtype(typ, want) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.args[%d]", field, j),
					Message: fmt.Sprintf("object %q has type %s, %s requires %s", arg, typ, atom.Predicate, want),
					Code:    ErrTypeMismatch,
				})
			}
		}
	}

	return errs
}
