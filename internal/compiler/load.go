package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symbolic/internal/ir"
)

// Load error codes (E001-E099)
const (
	ErrLoadGeneric          = "E001" // generic/unknown error
	ErrLoadScan             = "E002" // directory scan error
	ErrLoadNoFiles          = "E003" // no CUE files found
	ErrLoadFailed           = "E004" // CUE load failed
	ErrLoadNotFound         = "E005" // path not found
	ErrLoadBuildFailed      = "E006" // CUE build failed
	ErrLoadCompile          = "E007" // domain or problem failed to compile
	ErrLoadProblemNotFound  = "E008" // requested problem is not defined
	ErrLoadDomainNotFound   = "E009" // problem names a domain that is not defined
	ErrLoadAmbiguousProblem = "E010" // several problems and none selected
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the domains and problems compiled from CUE files, in
// declaration order.
type LoadResult struct {
	Domains   []ir.DomainSpec
	Problems  []ir.ProblemSpec
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads every CUE file in dir as one instance and compiles the
// domains and problems it defines.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrLoadNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrLoadNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrLoadNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrLoadScan, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrLoadNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, loadErr := buildInstance([]string{"."}, dir)
	if loadErr != nil {
		return nil, []error{loadErr}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	errs := extractSpecs(value, result, mode)
	if len(result.Domains) == 0 && len(result.Problems) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrLoadGeneric, Message: "no domains or problems found in specs"})
	}
	return result, errs
}

// LoadPaths loads each path on its own (a directory or a single .cue file)
// and merges the results in argument order. Scenario files use it to name
// their specs individually.
func LoadPaths(paths []string, mode LoadMode) (*LoadResult, []error) {
	merged := &LoadResult{}
	var errs []error

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrLoadNotFound, Message: fmt.Sprintf("spec not found: %s", path)})
			if mode == LoadModeFailFast {
				return merged, errs
			}
			continue
		}

		var (
			part    *LoadResult
			partErr []error
		)
		if info.IsDir() {
			part, partErr = LoadDir(path, mode)
		} else {
			part, partErr = loadFile(path, mode)
		}
		if part != nil {
			merged.Domains = append(merged.Domains, part.Domains...)
			merged.Problems = append(merged.Problems, part.Problems...)
			merged.FileCount += part.FileCount
		}
		errs = append(errs, partErr...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return merged, errs
		}
	}

	return merged, errs
}

func loadFile(path string, mode LoadMode) (*LoadResult, []error) {
	if filepath.Ext(path) != ".cue" {
		return nil, []error{&LoadError{Code: ErrLoadNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}}
	}
	value, loadErr := buildInstance([]string{"./" + filepath.Base(path)}, filepath.Dir(path))
	if loadErr != nil {
		return nil, []error{loadErr}
	}
	result := &LoadResult{FileCount: 1}
	return result, extractSpecs(value, result, mode)
}

func buildInstance(args []string, dir string) (cue.Value, *LoadError) {
	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Code: ErrLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Code: ErrLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Code: ErrLoadBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return value, nil
}

// extractSpecs compiles every field under the top-level `domain` and
// `problem` structs.
func extractSpecs(value cue.Value, result *LoadResult, mode LoadMode) []error {
	var errs []error

	domainsVal := value.LookupPath(cue.ParsePath("domain"))
	if domainsVal.Exists() {
		iter, err := domainsVal.Fields()
		if err != nil {
			return append(errs, &LoadError{Code: ErrLoadGeneric, Message: fmt.Sprintf("iterating domains: %v", err)})
		}
		for iter.Next() {
			spec, err := CompileDomain(iter.Value())
			if err != nil {
				errs = append(errs, convertCompileError(err, "domain."+iter.Label()))
				if mode == LoadModeFailFast {
					return errs
				}
				continue
			}
			result.Domains = append(result.Domains, *spec)
		}
	}

	problemsVal := value.LookupPath(cue.ParsePath("problem"))
	if problemsVal.Exists() {
		iter, err := problemsVal.Fields()
		if err != nil {
			return append(errs, &LoadError{Code: ErrLoadGeneric, Message: fmt.Sprintf("iterating problems: %v", err)})
		}
		for iter.Next() {
			spec, err := CompileProblem(iter.Value())
			if err != nil {
				errs = append(errs, convertCompileError(err, "problem."+iter.Label()))
				if mode == LoadModeFailFast {
					return errs
				}
				continue
			}
			result.Problems = append(result.Problems, *spec)
		}
	}

	return errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrLoadCompile,
			Message: fmt.Sprintf("%s.%s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrLoadCompile,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// SelectProblem picks the problem named name (or the only problem when name
// is empty) together with the domain it references.
func (r *LoadResult) SelectProblem(name string) (*ir.DomainSpec, *ir.ProblemSpec, error) {
	var problem *ir.ProblemSpec
	switch {
	case name != "":
		for i := range r.Problems {
			if r.Problems[i].Name == name {
				problem = &r.Problems[i]
				break
			}
		}
		if problem == nil {
			return nil, nil, &LoadError{Code: ErrLoadProblemNotFound, Message: fmt.Sprintf("problem %q not found", name)}
		}
	case len(r.Problems) == 1:
		problem = &r.Problems[0]
	case len(r.Problems) == 0:
		return nil, nil, &LoadError{Code: ErrLoadProblemNotFound, Message: "no problems defined"}
	default:
		return nil, nil, &LoadError{Code: ErrLoadAmbiguousProblem, Message: fmt.Sprintf("%d problems defined, select one by name", len(r.Problems))}
	}

	for i := range r.Domains {
		if r.Domains[i].Name == problem.Domain {
			return &r.Domains[i], problem, nil
		}
	}
	return nil, nil, &LoadError{Code: ErrLoadDomainNotFound, Message: fmt.Sprintf("problem %q references undefined domain %q", problem.Name, problem.Domain)}
}
