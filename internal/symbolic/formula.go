package symbolic

import (
	"fmt"
	"slices"

	"github.com/roach88/symbolic/internal/ir"
)

type formulaKind uint8

const (
	formulaTrue formulaKind = iota
	formulaAtom
	formulaAnd
	formulaOr
	formulaNot
	formulaImply
	formulaEq
	formulaExists
	formulaForall
)

// formulaNode is one compiled condition. Only the fields used by kind are set.
type formulaNode struct {
	kind      formulaKind
	predicate string
	remap     Remapper
	children  []formulaNode
	gen       ParameterGenerator
}

// Formula is a condition compiled against a formal parameter list. The zero
// Formula is always true. Formulas are immutable and safe to share.
type Formula struct {
	root *formulaNode
	text string
}

// NewFormula compiles cond over params. A nil cond compiles to true.
func NewFormula(p *Pddl, cond *ir.Condition, params []Object) (Formula, error) {
	if cond == nil {
		return Formula{text: "true"}, nil
	}
	root, err := compileCondition(p, *cond, params)
	if err != nil {
		return Formula{}, err
	}
	return Formula{root: &root, text: renderCondition(*cond)}, nil
}

// Evaluate reports whether the formula holds in state under args.
func (f Formula) Evaluate(state State, args []Object) bool {
	if f.root == nil {
		return true
	}
	return f.root.eval(state, args)
}

// String renders the source condition.
func (f Formula) String() string {
	if f.text == "" {
		return "true"
	}
	return f.text
}

func compileCondition(p *Pddl, cond ir.Condition, params []Object) (formulaNode, error) {
	switch cond.Op {
	case ir.OpAtom:
		if cond.Atom == nil {
			return formulaNode{}, newSchemaError(ErrCodeInvalidCondition, "", "atom condition without atom")
		}
		if _, err := p.CheckAtom(*cond.Atom); err != nil {
			return formulaNode{}, err
		}
		remap, err := NewRemapper(params, cond.Atom.Args, p.objects)
		if err != nil {
			return formulaNode{}, err
		}
		return formulaNode{kind: formulaAtom, predicate: cond.Atom.Predicate, remap: remap}, nil

	case ir.OpAnd, ir.OpOr:
		children, err := compileChildren(p, cond.Args, params)
		if err != nil {
			return formulaNode{}, err
		}
		kind := formulaAnd
		if cond.Op == ir.OpOr {
			kind = formulaOr
		}
		return formulaNode{kind: kind, children: children}, nil

	case ir.OpNot:
		if len(cond.Args) != 1 {
			return formulaNode{}, newSchemaError(ErrCodeInvalidCondition, "", "not takes 1 operand, got %d", len(cond.Args))
		}
		children, err := compileChildren(p, cond.Args, params)
		if err != nil {
			return formulaNode{}, err
		}
		return formulaNode{kind: formulaNot, children: children}, nil

	case ir.OpImply:
		if len(cond.Args) != 2 {
			return formulaNode{}, newSchemaError(ErrCodeInvalidCondition, "", "imply takes 2 operands, got %d", len(cond.Args))
		}
		children, err := compileChildren(p, cond.Args, params)
		if err != nil {
			return formulaNode{}, err
		}
		return formulaNode{kind: formulaImply, children: children}, nil

	case ir.OpEq:
		if len(cond.Terms) != 2 {
			return formulaNode{}, newSchemaError(ErrCodeInvalidCondition, "", "eq takes 2 terms, got %d", len(cond.Terms))
		}
		remap, err := NewRemapper(params, cond.Terms, p.objects)
		if err != nil {
			return formulaNode{}, err
		}
		return formulaNode{kind: formulaEq, remap: remap}, nil

	case ir.OpExists, ir.OpForall:
		if len(cond.Args) != 1 {
			return formulaNode{}, newSchemaError(ErrCodeInvalidCondition, "", "%s takes 1 body, got %d", cond.Op, len(cond.Args))
		}
		vars, err := p.ConvertParams(cond.Vars)
		if err != nil {
			return formulaNode{}, err
		}
		inner := append(slices.Clip(params), vars...)
		children, err := compileChildren(p, cond.Args, inner)
		if err != nil {
			return formulaNode{}, err
		}
		kind := formulaExists
		if cond.Op == ir.OpForall {
			kind = formulaForall
		}
		return formulaNode{kind: kind, children: children, gen: NewParameterGeneratorFor(p.objects, vars)}, nil

	default:
		return formulaNode{}, newSchemaError(ErrCodeInvalidCondition, "", "unknown condition operator %q", cond.Op)
	}
}

func compileChildren(p *Pddl, conds []ir.Condition, params []Object) ([]formulaNode, error) {
	children := make([]formulaNode, len(conds))
	for i, c := range conds {
		n, err := compileCondition(p, c, params)
		if err != nil {
			return nil, err
		}
		children[i] = n
	}
	return children, nil
}

func (n *formulaNode) eval(state State, args []Object) bool {
	switch n.kind {
	case formulaTrue:
		return true
	case formulaAtom:
		return state.ContainsCall(n.predicate, n.remap.Apply(args))
	case formulaAnd:
		for i := range n.children {
			if !n.children[i].eval(state, args) {
				return false
			}
		}
		return true
	case formulaOr:
		for i := range n.children {
			if n.children[i].eval(state, args) {
				return true
			}
		}
		return false
	case formulaNot:
		return !n.children[0].eval(state, args)
	case formulaImply:
		return !n.children[0].eval(state, args) || n.children[1].eval(state, args)
	case formulaEq:
		terms := n.remap.Apply(args)
		return terms[0] == terms[1]
	case formulaExists:
		for combo := range n.gen.All() {
			if n.children[0].eval(state, ExtendArgs(args, combo)) {
				return true
			}
		}
		return false
	case formulaForall:
		for combo := range n.gen.All() {
			if !n.children[0].eval(state, ExtendArgs(args, combo)) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("symbolic: unknown formula kind %d", n.kind))
	}
}

// ExtendArgs returns args followed by extra without aliasing args.
func ExtendArgs(args, extra []Object) []Object {
	out := make([]Object, 0, len(args)+len(extra))
	out = append(out, args...)
	return append(out, extra...)
}

// renderCondition renders a condition in a compact prefix form.
func renderCondition(c ir.Condition) string {
	switch c.Op {
	case ir.OpAtom:
		if c.Atom == nil {
			return "?"
		}
		return c.Atom.String()
	case ir.OpEq:
		return renderCall("=", stringers(c.Terms))
	case ir.OpExists, ir.OpForall:
		vars := make([]string, len(c.Vars))
		for i, v := range c.Vars {
			vars[i] = v.String()
		}
		body := "true"
		if len(c.Args) > 0 {
			body = renderCondition(c.Args[0])
		}
		return renderCall(c.Op, stringers(vars)) + " " + body
	default:
		parts := make([]string, len(c.Args))
		for i, a := range c.Args {
			parts[i] = renderCondition(a)
		}
		return renderCall(c.Op, stringers(parts))
	}
}

type stringer string

func (s stringer) String() string { return string(s) }

func stringers(ss []string) []stringer {
	out := make([]stringer, len(ss))
	for i, s := range ss {
		out[i] = stringer(s)
	}
	return out
}
