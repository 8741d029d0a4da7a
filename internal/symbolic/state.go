package symbolic

import (
	"maps"
	"slices"
	"strings"
)

// State is a mutable set of unique propositions.
//
// Copying a State value shares its storage; use Clone for an independent
// copy. The zero State is empty and ready to use through a pointer.
// A single State must not be mutated concurrently.
type State struct {
	props map[string]Proposition
}

// NewState creates a state holding props.
func NewState(props ...Proposition) State {
	s := State{props: make(map[string]Proposition, len(props))}
	for _, p := range props {
		s.props[p.String()] = p
	}
	return s
}

// Emplace inserts name(args) if absent and reports whether it was inserted.
func (s *State) Emplace(name string, args []Object) bool {
	return s.Insert(NewProposition(name, args))
}

// Insert adds p if absent and reports whether it was inserted.
func (s *State) Insert(p Proposition) bool {
	key := p.String()
	if _, ok := s.props[key]; ok {
		return false
	}
	if s.props == nil {
		s.props = make(map[string]Proposition)
	}
	s.props[key] = p
	return true
}

// Erase removes p if present and reports whether it was present.
func (s *State) Erase(p Proposition) bool {
	key := p.String()
	if _, ok := s.props[key]; !ok {
		return false
	}
	delete(s.props, key)
	return true
}

// Contains reports whether p is in the state.
func (s State) Contains(p Proposition) bool {
	q, ok := s.props[p.String()]
	return ok && q.Equal(p)
}

// ContainsCall reports whether name(args) is in the state.
func (s State) ContainsCall(name string, args []Object) bool {
	_, ok := s.props[renderCall(name, args)]
	return ok
}

// Len returns the number of propositions.
func (s State) Len() int {
	return len(s.props)
}

// Clone returns an independent copy.
func (s State) Clone() State {
	return State{props: maps.Clone(s.props)}
}

// Equal reports whether both states hold the same propositions.
func (s State) Equal(other State) bool {
	if len(s.props) != len(other.props) {
		return false
	}
	for k, p := range s.props {
		q, ok := other.props[k]
		if !ok || !p.Equal(q) {
			return false
		}
	}
	return true
}

// Keys returns the rendered propositions in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.props))
}

// Propositions returns the propositions sorted by their rendered form.
func (s State) Propositions() []Proposition {
	keys := s.Keys()
	out := make([]Proposition, len(keys))
	for i, k := range keys {
		out[i] = s.props[k]
	}
	return out
}

// Diff returns the propositions added and removed going from s to next,
// both sorted.
func (s State) Diff(next State) (added, removed []string) {
	for _, k := range next.Keys() {
		if _, ok := s.props[k]; !ok {
			added = append(added, k)
		}
	}
	for _, k := range s.Keys() {
		if _, ok := next.props[k]; !ok {
			removed = append(removed, k)
		}
	}
	return added, removed
}

// String renders "{a(x), b(y)}" in sorted order.
func (s State) String() string {
	return "{" + strings.Join(s.Keys(), ", ") + "}"
}
