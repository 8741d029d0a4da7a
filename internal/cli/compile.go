package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/symbolic/internal/compiler"
	"github.com/roach88/symbolic/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled domains and problems.
type CompilationResult struct {
	Domains  []CompiledDomain  `json:"domains"`
	Problems []CompiledProblem `json:"problems"`
}

// CompiledDomain is a domain with its content hash.
type CompiledDomain struct {
	Hash string        `json:"hash"`
	Spec ir.DomainSpec `json:"spec"`
}

// CompiledProblem is a problem with its content hash.
type CompiledProblem struct {
	Hash string         `json:"hash"`
	Spec ir.ProblemSpec `json:"spec"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE specs to IR",
		Long: `Compile CUE domains and problems to their IR form.

The compiler parses every CUE file in the directory, converts each domain
and problem to IR and prints it with its content hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, compiler.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCompileError(formatter, errorCode(loadErrors[0]), describe(loadErrors[0]), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, domain := range loadResult.Domains {
		formatter.VerboseLog("Compiled domain: %s", domain.Name)
	}
	for _, problem := range loadResult.Problems {
		formatter.VerboseLog("Compiled problem: %s", problem.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := hashSpecs(loadResult)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// hashSpecs pairs each compiled spec with its content hash.
func hashSpecs(loaded *compiler.LoadResult) (*CompilationResult, error) {
	result := &CompilationResult{
		Domains:  make([]CompiledDomain, 0, len(loaded.Domains)),
		Problems: make([]CompiledProblem, 0, len(loaded.Problems)),
	}
	for _, domain := range loaded.Domains {
		hash, err := ir.DomainHash(domain)
		if err != nil {
			return nil, fmt.Errorf("hashing domain %s: %w", domain.Name, err)
		}
		result.Domains = append(result.Domains, CompiledDomain{Hash: hash, Spec: domain})
	}
	for _, problem := range loaded.Problems {
		hash, err := ir.ProblemHash(problem)
		if err != nil {
			return nil, fmt.Errorf("hashing problem %s: %w", problem.Name, err)
		}
		result.Problems = append(result.Problems, CompiledProblem{Hash: hash, Spec: problem})
	}
	return result, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d domain(s), %d problem(s)\n\n", len(result.Domains), len(result.Problems))

	if len(result.Domains) > 0 {
		fmt.Fprintln(w, "Domains:")
		for _, d := range result.Domains {
			fmt.Fprintf(w, "  %s: %d type(s), %d predicate(s), %d action(s)\n",
				d.Spec.Name, len(d.Spec.Types), len(d.Spec.Predicates), len(d.Spec.Actions))
		}
		fmt.Fprintln(w)
	}

	if len(result.Problems) > 0 {
		fmt.Fprintln(w, "Problems:")
		for _, p := range result.Problems {
			fmt.Fprintf(w, "  %s (%s): %d object(s), %d initial proposition(s)\n",
				p.Spec.Name, p.Spec.Domain, len(p.Spec.Objects), len(p.Spec.Init))
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote IR to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{Code: errorCode(err), Message: describe(err)}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", errorCode(err), describe(err))
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeIRToFile writes the compilation result to a file as indented JSON.
func writeIRToFile(result *CompilationResult, filename string) error {
	// Canonical JSON without indentation is used only for hashing
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
