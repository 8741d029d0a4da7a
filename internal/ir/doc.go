// Package ir provides the plain-data schema types for symbolic planning domains.
//
// This package contains type definitions and hashing only. All other internal
// packages import ir; ir imports nothing internal. Runtime behaviour (types,
// objects, states, compiled actions) lives in internal/symbolic and
// internal/action, which are built from these values.
//
// Key design constraints:
//   - Schemas are immutable once compiled; nothing in ir holds runtime state
//   - Effect lists keep their four categories (forall, add, del, when) separate
//     because application order depends on them
//   - Formal parameter names start with "?"; any other term is an object name
//   - All JSON tags use snake_case
package ir
