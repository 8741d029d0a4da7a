// Package symbolic provides the runtime model that compiled actions operate on.
//
// It turns the plain schema data in internal/ir into resolved values:
//
//   - TypeHierarchy and Type: nominal subtyping rooted at "object"
//   - ObjectMap and Object: every constant and problem object with its type
//   - Proposition and State: ground atoms and the mutable set holding them
//   - ParameterGenerator: lazy cartesian expansion over typed object domains
//   - Remapper: projection of an argument binding onto an atom's own terms
//   - Formula: compiled first-order conditions evaluated against a State
//   - Pddl: the immutable bundle of all of the above for one domain/problem
//
// Everything here is immutable after construction except State. A Pddl is
// passed explicitly to every constructor; there is no package-level domain.
package symbolic
