package symbolic

import (
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/symbolic/internal/ir"
)

// Object is a named symbol with a type. Objects are comparable values;
// equality is by name and type.
type Object struct {
	name string
	typ  Type
}

// NewObject creates an object. Formal parameters are Objects too, with names
// starting with "?".
func NewObject(name string, typ Type) Object {
	return Object{name: name, typ: typ}
}

// Name returns the object name.
func (o Object) Name() string { return o.name }

// Type returns the object type.
func (o Object) Type() Type { return o.typ }

// String renders the object name.
func (o Object) String() string { return o.name }

// ObjectMap is the registry of every constant and problem object.
// Immutable after construction.
type ObjectMap struct {
	objects []Object
	byName  map[string]int
}

// NewObjectMap registers object declarations in order. Later groups are
// appended after earlier ones (domain constants first, then problem objects).
func NewObjectMap(types *TypeHierarchy, groups ...[]ir.ObjectDecl) (*ObjectMap, error) {
	m := &ObjectMap{byName: make(map[string]int)}
	n := 0
	for _, decls := range groups {
		for _, d := range decls {
			field := "objects[" + itoa(n) + "]"
			n++
			typ, ok := types.Lookup(d.Type)
			if !ok {
				return nil, newSchemaError(ErrCodeUnknownType, field, "object %q has undeclared type %q", d.Name, d.Type)
			}
			name := norm.NFC.String(d.Name)
			if !isSymbol(name) || ir.IsVariable(name) {
				return nil, newSchemaError(ErrCodeInvalidName, field, "invalid object name %q", d.Name)
			}
			if _, exists := m.byName[name]; exists {
				return nil, newSchemaError(ErrCodeDuplicate, field, "duplicate object %q", name)
			}
			m.byName[name] = len(m.objects)
			m.objects = append(m.objects, NewObject(name, typ))
		}
	}
	return m, nil
}

// Lookup resolves an object name.
func (m *ObjectMap) Lookup(name string) (Object, bool) {
	i, ok := m.byName[norm.NFC.String(name)]
	if !ok {
		return Object{}, false
	}
	return m.objects[i], true
}

// OfType returns every object whose type is t or a subtype of t, in
// registration order.
func (m *ObjectMap) OfType(t Type) []Object {
	var out []Object
	for _, o := range m.objects {
		if o.typ.IsSubtype(t) {
			out = append(out, o)
		}
	}
	return out
}

// All returns every registered object in registration order.
func (m *ObjectMap) All() []Object {
	out := make([]Object, len(m.objects))
	copy(out, m.objects)
	return out
}

// Len returns the number of registered objects.
func (m *ObjectMap) Len() int {
	return len(m.objects)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
