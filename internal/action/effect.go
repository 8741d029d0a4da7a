package action

import (
	"fmt"
	"slices"

	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/symbolic"
)

type effectKind uint8

const (
	effectAdd effectKind = iota
	effectDel
	effectWhen
	effectForall
	effectSeq
)

func (k effectKind) String() string {
	switch k {
	case effectAdd:
		return "add"
	case effectDel:
		return "del"
	case effectWhen:
		return "when"
	case effectForall:
		return "forall"
	case effectSeq:
		return "seq"
	default:
		return fmt.Sprintf("effectKind(%d)", uint8(k))
	}
}

// effect is one compiled effect node. Only the fields used by kind are set:
//
//   - add, del: predicate, remap
//   - when: guard, body[0]
//   - forall: gen, body[0]
//   - seq: body, in application order
//
// Nodes hold no references into the schema they were compiled from.
type effect struct {
	kind      effectKind
	predicate string
	remap     symbolic.Remapper
	guard     symbolic.Formula
	gen       symbolic.ParameterGenerator
	body      []effect
}

// apply runs the node against state under args and reports whether state
// changed. args has the arity of the parameter list the node was compiled
// over.
func (e *effect) apply(args []symbolic.Object, state *symbolic.State) bool {
	switch e.kind {
	case effectAdd:
		return state.Emplace(e.predicate, e.remap.Apply(args))

	case effectDel:
		return state.Erase(symbolic.NewProposition(e.predicate, e.remap.Apply(args)))

	case effectWhen:
		if !e.guard.Evaluate(*state, args) {
			return false
		}
		return e.body[0].apply(args, state)

	case effectForall:
		changed := false
		for combo := range e.gen.All() {
			if e.body[0].apply(symbolic.ExtendArgs(args, combo), state) {
				changed = true
			}
		}
		return changed

	case effectSeq:
		changed := false
		for i := range e.body {
			if e.body[i].apply(args, state) {
				changed = true
			}
		}
		return changed

	default:
		panic(fmt.Sprintf("action: unknown effect kind %s", e.kind))
	}
}

// compileEffects compiles an effect list over params into one sequence node.
// Children are ordered forall, add, del, when, each category in declaration
// order.
func compileEffects(p *symbolic.Pddl, list ir.EffectList, params []symbolic.Object, field string) (effect, error) {
	seq := effect{kind: effectSeq}

	for i, fe := range list.Forall {
		node, err := compileForall(p, fe, params, fmt.Sprintf("%s.forall[%d]", field, i))
		if err != nil {
			return effect{}, err
		}
		seq.body = append(seq.body, node)
	}
	for i, atom := range list.Add {
		node, err := compileLeaf(p, effectAdd, atom, params, fmt.Sprintf("%s.add[%d]", field, i))
		if err != nil {
			return effect{}, err
		}
		seq.body = append(seq.body, node)
	}
	for i, atom := range list.Del {
		node, err := compileLeaf(p, effectDel, atom, params, fmt.Sprintf("%s.del[%d]", field, i))
		if err != nil {
			return effect{}, err
		}
		seq.body = append(seq.body, node)
	}
	for i, ce := range list.When {
		node, err := compileWhen(p, ce, params, fmt.Sprintf("%s.when[%d]", field, i))
		if err != nil {
			return effect{}, err
		}
		seq.body = append(seq.body, node)
	}

	return seq, nil
}

func compileLeaf(p *symbolic.Pddl, kind effectKind, atom ir.Atom, params []symbolic.Object, field string) (effect, error) {
	if _, err := p.CheckAtom(atom); err != nil {
		return effect{}, fieldError(field, err)
	}
	remap, err := symbolic.NewRemapper(params, atom.Args, p.Objects())
	if err != nil {
		return effect{}, fieldError(field, err)
	}
	return effect{kind: kind, predicate: atom.Predicate, remap: remap}, nil
}

func compileWhen(p *symbolic.Pddl, ce ir.CondEffect, params []symbolic.Object, field string) (effect, error) {
	guard, err := symbolic.NewFormula(p, &ce.Condition, params)
	if err != nil {
		return effect{}, fieldError(field+".condition", err)
	}
	body, err := compileEffects(p, ce.Effects, params, field+".effects")
	if err != nil {
		return effect{}, err
	}
	return effect{kind: effectWhen, guard: guard, body: []effect{body}}, nil
}

func compileForall(p *symbolic.Pddl, fe ir.ForallEffect, params []symbolic.Object, field string) (effect, error) {
	vars, err := p.ConvertParams(fe.Vars)
	if err != nil {
		return effect{}, fieldError(field+".vars", err)
	}
	inner := append(slices.Clip(params), vars...)
	body, err := compileEffects(p, fe.Effects, inner, field+".effects")
	if err != nil {
		return effect{}, err
	}
	return effect{
		kind: effectForall,
		gen:  symbolic.NewParameterGeneratorFor(p.Objects(), vars),
		body: []effect{body},
	}, nil
}

// fieldError locates a symbolic schema error within the action. The action
// name is filled in by New.
func fieldError(field string, err error) error {
	return wrapSchema("", field, err)
}
