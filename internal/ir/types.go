package ir

// RootType is the implicit ancestor of every declared type.
const RootType = "object"

// DomainSpec represents a compiled planning domain.
type DomainSpec struct {
	Name       string         `json:"name"`
	Types      []TypeDecl     `json:"types"`
	Constants  []ObjectDecl   `json:"constants"`
	Predicates []PredicateSig `json:"predicates"`
	Actions    []ActionSchema `json:"actions"`
}

// ProblemSpec represents a problem instance over a domain.
type ProblemSpec struct {
	Name    string       `json:"name"`
	Domain  string       `json:"domain"`
	Objects []ObjectDecl `json:"objects"`
	Init    []Atom       `json:"init"`
}

// TypeDecl declares a type and its parent. An empty parent means RootType.
type TypeDecl struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// ObjectDecl declares a named object (or domain constant) of a type.
type ObjectDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Param is a typed formal parameter, e.g. "?x - block".
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PredicateSig declares a predicate and its typed argument list.
type PredicateSig struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// Atom is a predicate applied to terms. Terms starting with "?" refer to
// formal parameters; anything else names an object.
type Atom struct {
	Predicate string   `json:"predicate"`
	Args      []string `json:"args"`
}

// ActionSchema is a parametric action prior to grounding.
type ActionSchema struct {
	Name         string     `json:"name"`
	Params       []Param    `json:"params"`
	Precondition *Condition `json:"precondition,omitempty"` // nil means always applicable
	Effects      EffectList `json:"effects"`
}

// EffectList groups declared effects by category. Application order is
// Forall, Add, Del, When, each in declaration order.
type EffectList struct {
	Forall []ForallEffect `json:"forall,omitempty"`
	Add    []Atom         `json:"add,omitempty"`
	Del    []Atom         `json:"del,omitempty"`
	When   []CondEffect   `json:"when,omitempty"`
}

// ForallEffect applies Effects once per binding of Vars.
type ForallEffect struct {
	Vars    []Param    `json:"vars"`
	Effects EffectList `json:"effects"`
}

// CondEffect applies Effects only when Condition holds at application time.
type CondEffect struct {
	Condition Condition  `json:"condition"`
	Effects   EffectList `json:"effects"`
}

// Condition operators.
const (
	OpAtom   = "atom"
	OpAnd    = "and"
	OpOr     = "or"
	OpNot    = "not"
	OpImply  = "imply"
	OpEq     = "eq"
	OpExists = "exists"
	OpForall = "forall"
)

// ValidOps defines the allowed condition operators.
var ValidOps = map[string]bool{
	OpAtom:   true,
	OpAnd:    true,
	OpOr:     true,
	OpNot:    true,
	OpImply:  true,
	OpEq:     true,
	OpExists: true,
	OpForall: true,
}

// Condition is a first-order formula node.
//
// Field usage by operator:
//   - atom: Atom
//   - and, or: Args (any length; empty "and" is true, empty "or" is false)
//   - not: Args[0]
//   - imply: Args[0] -> Args[1]
//   - eq: Terms[0] == Terms[1]
//   - exists, forall: Vars bound over Args[0]
type Condition struct {
	Op    string      `json:"op"`
	Atom  *Atom       `json:"atom,omitempty"`
	Args  []Condition `json:"args,omitempty"`
	Terms []string    `json:"terms,omitempty"`
	Vars  []Param     `json:"vars,omitempty"`
}

// IsVariable reports whether a term refers to a formal parameter.
func IsVariable(term string) bool {
	return len(term) > 0 && term[0] == '?'
}

// FindAction returns the first action schema with the given name.
func (d *DomainSpec) FindAction(name string) (*ActionSchema, bool) {
	for i := range d.Actions {
		if d.Actions[i].Name == name {
			return &d.Actions[i], true
		}
	}
	return nil, false
}

// FindPredicate returns the predicate signature with the given name.
func (d *DomainSpec) FindPredicate(name string) (*PredicateSig, bool) {
	for i := range d.Predicates {
		if d.Predicates[i].Name == name {
			return &d.Predicates[i], true
		}
	}
	return nil, false
}
