package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/symbolic"
)

// CompileDomain parses a CUE value into a DomainSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the domain struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`domain: blocks: { ... }`)
//	spec, err := CompileDomain(v.LookupPath(cue.ParsePath("domain.blocks")))
//
// Field declaration order is preserved: actions keep the order they are
// written in, which is the order action lookup scans them.
func CompileDomain(v cue.Value) (*ir.DomainSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.DomainSpec{Name: labelOf(v)}

	var err error
	spec.Types, err = parseTypes(v)
	if err != nil {
		return nil, err
	}

	spec.Constants, err = parseObjectDecls(v, "constants")
	if err != nil {
		return nil, err
	}

	spec.Predicates, err = parsePredicates(v)
	if err != nil {
		return nil, err
	}

	// Actions are required: a domain without an action list cannot ground
	// anything.
	actionsVal := v.LookupPath(cue.ParsePath("actions"))
	if !actionsVal.Exists() {
		return nil, &CompileError{
			Field:   "actions",
			Message: "actions are required",
			Pos:     v.Pos(),
		}
	}
	spec.Actions, err = parseActions(actionsVal)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// labelOf returns the last path selector of v, unquoted.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return strings.Trim(labels[len(labels)-1].String(), `"`)
}

// parseTypes reads `types: {child: "parent"}`.
func parseTypes(v cue.Value) ([]ir.TypeDecl, error) {
	var types []ir.TypeDecl

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return types, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		parent, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "types." + iter.Label(),
				Message: "parent type must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		if parent == ir.RootType {
			parent = ""
		}
		types = append(types, ir.TypeDecl{Name: iter.Label(), Parent: parent})
	}
	return types, nil
}

// parseObjectDecls reads `<field>: {name: "type"}`.
func parseObjectDecls(v cue.Value, field string) ([]ir.ObjectDecl, error) {
	var decls []ir.ObjectDecl

	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return decls, nil
	}

	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		typ, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "object type must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		decls = append(decls, ir.ObjectDecl{Name: iter.Label(), Type: typ})
	}
	return decls, nil
}

// parsePredicates reads `predicates: {on: ["?a - block", "?b - location"]}`.
func parsePredicates(v cue.Value) ([]ir.PredicateSig, error) {
	var preds []ir.PredicateSig

	predsVal := v.LookupPath(cue.ParsePath("predicates"))
	if !predsVal.Exists() {
		return preds, nil
	}

	iter, err := predsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		params, err := parseParams(iter.Value(), "predicates."+iter.Label())
		if err != nil {
			return nil, err
		}
		preds = append(preds, ir.PredicateSig{Name: iter.Label(), Params: params})
	}
	return preds, nil
}

// parseActions reads the actions struct in declaration order.
func parseActions(actionsVal cue.Value) ([]ir.ActionSchema, error) {
	actions := []ir.ActionSchema{}

	iter, err := actionsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		actionVal := iter.Value()
		field := "actions." + name

		action := ir.ActionSchema{Name: name}

		paramsVal := actionVal.LookupPath(cue.ParsePath("parameters"))
		if paramsVal.Exists() {
			action.Params, err = parseParams(paramsVal, field+".parameters")
			if err != nil {
				return nil, err
			}
		}

		preVal := actionVal.LookupPath(cue.ParsePath("precondition"))
		if preVal.Exists() {
			cond, err := parseCondition(preVal, field+".precondition")
			if err != nil {
				return nil, err
			}
			action.Precondition = &cond
		}

		effVal := actionVal.LookupPath(cue.ParsePath("effect"))
		if !effVal.Exists() {
			return nil, &CompileError{
				Field:   field + ".effect",
				Message: "action effect is required",
				Pos:     actionVal.Pos(),
			}
		}
		action.Effects, err = parseEffects(effVal, field+".effect")
		if err != nil {
			return nil, err
		}

		actions = append(actions, action)
	}

	return actions, nil
}

// parseParams reads a list of parameter groups. Each entry is either
// "?x - block", "?x ?y - block", or an untyped "?x" (type object).
func parseParams(v cue.Value, field string) ([]ir.Param, error) {
	strs, err := parseStringList(v, field)
	if err != nil {
		return nil, err
	}

	var params []ir.Param
	for i, s := range strs {
		group, err := parseParamGroup(s)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: err.Error(),
				Pos:     v.Pos(),
			}
		}
		params = append(params, group...)
	}
	return params, nil
}

func parseParamGroup(s string) ([]ir.Param, error) {
	tokens := strings.Fields(s)
	typ := ir.RootType
	if i := indexOf(tokens, "-"); i >= 0 {
		if i != len(tokens)-2 {
			return nil, fmt.Errorf("malformed parameter declaration %q", s)
		}
		typ = tokens[i+1]
		tokens = tokens[:i]
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("parameter declaration %q names no parameters", s)
	}
	params := make([]ir.Param, len(tokens))
	for i, name := range tokens {
		params[i] = ir.Param{Name: name, Type: typ}
	}
	return params, nil
}

func indexOf(ss []string, want string) int {
	for i, s := range ss {
		if s == want {
			return i
		}
	}
	return -1
}

// parseStringList reads a CUE list of strings.
func parseStringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list", Pos: v.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "list entries must be strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// parseAtom reads "pred(a, ?b)".
func parseAtom(v cue.Value, s, field string) (ir.Atom, error) {
	name, args, err := symbolic.ParseCall(s)
	if err != nil {
		return ir.Atom{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return ir.Atom{Predicate: name, Args: args}, nil
}

func parseAtomList(v cue.Value, field string) ([]ir.Atom, error) {
	strs, err := parseStringList(v, field)
	if err != nil {
		return nil, err
	}
	atoms := make([]ir.Atom, len(strs))
	for i, s := range strs {
		atoms[i], err = parseAtom(v, s, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
	}
	return atoms, nil
}

// parseCondition reads a condition. A string is an atom; a struct has exactly
// one operator field.
func parseCondition(v cue.Value, field string) (ir.Condition, error) {
	if s, err := v.String(); err == nil {
		atom, err := parseAtom(v, s, field)
		if err != nil {
			return ir.Condition{}, err
		}
		return ir.Condition{Op: ir.OpAtom, Atom: &atom}, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return ir.Condition{}, &CompileError{
			Field:   field,
			Message: "condition must be a string or a struct",
			Pos:     v.Pos(),
		}
	}

	var cond ir.Condition
	n := 0
	for iter.Next() {
		n++
		op := iter.Label()
		val := iter.Value()
		opField := field + "." + op

		switch op {
		case ir.OpAnd, ir.OpOr:
			args, err := parseConditionList(val, opField)
			if err != nil {
				return ir.Condition{}, err
			}
			cond = ir.Condition{Op: op, Args: args}

		case ir.OpNot:
			inner, err := parseCondition(val, opField)
			if err != nil {
				return ir.Condition{}, err
			}
			cond = ir.Condition{Op: op, Args: []ir.Condition{inner}}

		case ir.OpImply:
			args, err := parseConditionList(val, opField)
			if err != nil {
				return ir.Condition{}, err
			}
			if len(args) != 2 {
				return ir.Condition{}, &CompileError{Field: opField, Message: "imply takes exactly 2 conditions", Pos: val.Pos()}
			}
			cond = ir.Condition{Op: op, Args: args}

		case ir.OpEq:
			terms, err := parseStringList(val, opField)
			if err != nil {
				return ir.Condition{}, err
			}
			if len(terms) != 2 {
				return ir.Condition{}, &CompileError{Field: opField, Message: "eq takes exactly 2 terms", Pos: val.Pos()}
			}
			cond = ir.Condition{Op: op, Terms: terms}

		case ir.OpExists, ir.OpForall:
			varsVal := val.LookupPath(cue.ParsePath("vars"))
			bodyVal := val.LookupPath(cue.ParsePath("condition"))
			if !varsVal.Exists() || !bodyVal.Exists() {
				return ir.Condition{}, &CompileError{Field: opField, Message: op + " requires vars and condition", Pos: val.Pos()}
			}
			vars, err := parseParams(varsVal, opField+".vars")
			if err != nil {
				return ir.Condition{}, err
			}
			body, err := parseCondition(bodyVal, opField+".condition")
			if err != nil {
				return ir.Condition{}, err
			}
			cond = ir.Condition{Op: op, Vars: vars, Args: []ir.Condition{body}}

		default:
			return ir.Condition{}, &CompileError{
				Field:   opField,
				Message: fmt.Sprintf("unknown condition operator %q", op),
				Pos:     val.Pos(),
			}
		}
	}

	if n != 1 {
		return ir.Condition{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("condition must have exactly one operator, got %d", n),
			Pos:     v.Pos(),
		}
	}
	return cond, nil
}

func parseConditionList(v cue.Value, field string) ([]ir.Condition, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of conditions", Pos: v.Pos()}
	}
	var conds []ir.Condition
	for i := 0; iter.Next(); i++ {
		c, err := parseCondition(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// parseEffects reads `{forall: [...], add: [...], del: [...], when: [...]}`.
func parseEffects(v cue.Value, field string) (ir.EffectList, error) {
	var effects ir.EffectList

	iter, err := v.Fields()
	if err != nil {
		return effects, &CompileError{Field: field, Message: "effect must be a struct", Pos: v.Pos()}
	}

	for iter.Next() {
		category := iter.Label()
		val := iter.Value()
		catField := field + "." + category

		switch category {
		case "add":
			effects.Add, err = parseAtomList(val, catField)
		case "del":
			effects.Del, err = parseAtomList(val, catField)
		case "forall":
			effects.Forall, err = parseForallEffects(val, catField)
		case "when":
			effects.When, err = parseCondEffects(val, catField)
		default:
			err = &CompileError{
				Field:   catField,
				Message: fmt.Sprintf("unknown effect category %q, must be forall, add, del or when", category),
				Pos:     val.Pos(),
			}
		}
		if err != nil {
			return ir.EffectList{}, err
		}
	}

	return effects, nil
}

func parseForallEffects(v cue.Value, field string) ([]ir.ForallEffect, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list", Pos: v.Pos()}
	}
	var out []ir.ForallEffect
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		itemField := fmt.Sprintf("%s[%d]", field, i)

		varsVal := item.LookupPath(cue.ParsePath("vars"))
		effVal := item.LookupPath(cue.ParsePath("effect"))
		if !varsVal.Exists() || !effVal.Exists() {
			return nil, &CompileError{Field: itemField, Message: "forall effect requires vars and effect", Pos: item.Pos()}
		}
		vars, err := parseParams(varsVal, itemField+".vars")
		if err != nil {
			return nil, err
		}
		nested, err := parseEffects(effVal, itemField+".effect")
		if err != nil {
			return nil, err
		}
		out = append(out, ir.ForallEffect{Vars: vars, Effects: nested})
	}
	return out, nil
}

func parseCondEffects(v cue.Value, field string) ([]ir.CondEffect, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list", Pos: v.Pos()}
	}
	var out []ir.CondEffect
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		itemField := fmt.Sprintf("%s[%d]", field, i)

		condVal := item.LookupPath(cue.ParsePath("condition"))
		effVal := item.LookupPath(cue.ParsePath("effect"))
		if !condVal.Exists() || !effVal.Exists() {
			return nil, &CompileError{Field: itemField, Message: "when effect requires condition and effect", Pos: item.Pos()}
		}
		cond, err := parseCondition(condVal, itemField+".condition")
		if err != nil {
			return nil, err
		}
		nested, err := parseEffects(effVal, itemField+".effect")
		if err != nil {
			return nil, err
		}
		out = append(out, ir.CondEffect{Condition: cond, Effects: nested})
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
