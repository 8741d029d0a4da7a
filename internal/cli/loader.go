package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/symbolic/internal/compiler"
	"github.com/roach88/symbolic/internal/symbolic"
)

// CLI-only error codes. Load and validation codes come from the compiler.
const (
	ErrCodeGeneric      = compiler.ErrLoadGeneric
	ErrCodeWriteFailed  = "E011" // output file could not be written
	ErrCodeStore        = "E012" // run log could not be opened or read
	ErrCodeRunNotFound  = "E013" // run log has no run with the given id
	ErrCodeHashMismatch = "E014" // replayed state does not match the recorded hash
)

// LoadSpecs loads and compiles every CUE file in dir.
func LoadSpecs(dir string, mode compiler.LoadMode) (*compiler.LoadResult, []error) {
	return compiler.LoadDir(dir, mode)
}

// loadPddl loads dir, validates the selected problem against its domain and
// grounds it.
func loadPddl(dir, problem string) (*symbolic.Pddl, error) {
	loaded, errs := LoadSpecs(dir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	domainSpec, problemSpec, err := loaded.SelectProblem(problem)
	if err != nil {
		return nil, err
	}

	verrs := compiler.Validate(domainSpec)
	verrs = append(verrs, compiler.ValidateProblem(domainSpec, problemSpec)...)
	if len(verrs) > 0 {
		return nil, verrs[0]
	}

	return symbolic.NewPddl(*domainSpec, *problemSpec)
}

// errorCode returns the stable code carried by err, if any.
func errorCode(err error) string {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ErrCodeGeneric
}

// describe renders err without a duplicated code prefix.
func describe(err error) string {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("%s: %s", verr.Field, verr.Message)
	}
	return err.Error()
}
