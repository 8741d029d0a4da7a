package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/symbolic/internal/ir"
)

// CompileProblem parses a CUE value into a ProblemSpec.
//
// The CUE value should be the problem struct itself, e.g.:
//
//	problem: p1: {
//		domain: "blocks"
//		objects: {A: "block", B: "block"}
//		init: ["on(A, B)", "clear(A)"]
//	}
func CompileProblem(v cue.Value) (*ir.ProblemSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ProblemSpec{Name: labelOf(v)}

	// Parse domain reference (required)
	domainVal := v.LookupPath(cue.ParsePath("domain"))
	if !domainVal.Exists() {
		return nil, &CompileError{
			Field:   "domain",
			Message: "domain is required",
			Pos:     v.Pos(),
		}
	}
	domain, err := domainVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Domain = domain

	spec.Objects, err = parseObjectDecls(v, "objects")
	if err != nil {
		return nil, err
	}

	initVal := v.LookupPath(cue.ParsePath("init"))
	if initVal.Exists() {
		spec.Init, err = parseAtomList(initVal, "init")
		if err != nil {
			return nil, err
		}
	}

	return spec, nil
}
