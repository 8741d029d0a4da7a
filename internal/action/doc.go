// Package action grounds parametric action schemas and applies them to
// states.
//
// An Action is compiled once from an ir.ActionSchema: its precondition
// becomes a symbolic.Formula and its effect list becomes a tree of effect
// nodes (add, delete, conditional, forall, sequence) driven by one recursive
// apply function. Compiled Actions are immutable and may be shared between
// goroutines; each Apply works on its own copy of the input State.
//
// Effect categories are applied in a fixed order: forall effects, then add
// effects, then delete effects, then conditional effects. Conditional guards
// and later forall expansions observe the live state as mutated by the
// effects that ran before them.
package action
