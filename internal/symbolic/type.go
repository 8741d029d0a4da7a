package symbolic

import (
	"github.com/roach88/symbolic/internal/ir"
)

type typeNode struct {
	name   string
	parent *typeNode
}

// Type is a resolved node in a TypeHierarchy. Types are comparable values;
// two Types are equal iff they come from the same hierarchy node.
type Type struct {
	node *typeNode
}

// Name returns the declared type name, or "" for the zero Type.
func (t Type) Name() string {
	if t.node == nil {
		return ""
	}
	return t.node.name
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.Name()
}

// IsSubtype reports whether t is other or a descendant of other.
func (t Type) IsSubtype(other Type) bool {
	if other.node == nil {
		return false
	}
	for n := t.node; n != nil; n = n.parent {
		if n == other.node {
			return true
		}
	}
	return false
}

// TypeHierarchy resolves type names to Types. The root type "object" always
// exists. Immutable after construction.
type TypeHierarchy struct {
	nodes map[string]*typeNode
	order []string
}

// NewTypeHierarchy builds a hierarchy from type declarations. Parents may be
// declared after their children. Unknown parents, duplicates and cycles are
// schema errors.
func NewTypeHierarchy(decls []ir.TypeDecl) (*TypeHierarchy, error) {
	root := &typeNode{name: ir.RootType}
	h := &TypeHierarchy{
		nodes: map[string]*typeNode{ir.RootType: root},
		order: []string{ir.RootType},
	}

	for i, d := range decls {
		if d.Name == ir.RootType {
			if d.Parent != "" && d.Parent != ir.RootType {
				return nil, newSchemaError(ErrCodeTypeCycle, typeField(i), "root type %q cannot have parent %q", ir.RootType, d.Parent)
			}
			continue
		}
		if _, exists := h.nodes[d.Name]; exists {
			return nil, newSchemaError(ErrCodeDuplicate, typeField(i), "duplicate type %q", d.Name)
		}
		h.nodes[d.Name] = &typeNode{name: d.Name}
		h.order = append(h.order, d.Name)
	}

	for i, d := range decls {
		if d.Name == ir.RootType {
			continue
		}
		parentName := d.Parent
		if parentName == "" {
			parentName = ir.RootType
		}
		parent, ok := h.nodes[parentName]
		if !ok {
			return nil, newSchemaError(ErrCodeUnknownType, typeField(i), "type %q has undeclared parent %q", d.Name, parentName)
		}
		h.nodes[d.Name].parent = parent
	}

	// A chain longer than the number of types must revisit a node.
	limit := len(h.nodes)
	for _, name := range h.order {
		steps := 0
		for n := h.nodes[name]; n != nil; n = n.parent {
			steps++
			if steps > limit {
				return nil, newSchemaError(ErrCodeTypeCycle, "types", "type %q is its own ancestor", name)
			}
		}
	}

	return h, nil
}

func typeField(i int) string {
	return "types[" + itoa(i) + "]"
}

// Lookup resolves a type name.
func (h *TypeHierarchy) Lookup(name string) (Type, bool) {
	n, ok := h.nodes[name]
	if !ok {
		return Type{}, false
	}
	return Type{node: n}, true
}

// Root returns the "object" type.
func (h *TypeHierarchy) Root() Type {
	return Type{node: h.nodes[ir.RootType]}
}

// Names returns all type names in declaration order, root first.
func (h *TypeHierarchy) Names() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}
