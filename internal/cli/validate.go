package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symbolic/internal/compiler"
	"github.com/roach88/symbolic/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Domains  int                        `json:"domains"`
	Problems int                        `json:"problems"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate domains and problems",
		Long: `Validate CUE domains and problems without grounding them.

Checks types, predicates, action parameters and conditions of every domain,
then checks each problem against the domain it names.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, compiler.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputValidateError(formatter, errorCode(loadErrors[0]), describe(loadErrors[0]), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	validationErrors := loadErrorsToValidation(loadErrors)
	validationErrors = append(validationErrors, validateAll(loadResult, formatter)...)

	result := ValidationResult{
		Valid:    len(validationErrors) == 0,
		Domains:  len(loadResult.Domains),
		Problems: len(loadResult.Problems),
		Errors:   validationErrors,
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateAll validates every domain, then every problem against its domain.
func validateAll(loaded *compiler.LoadResult, formatter *OutputFormatter) []compiler.ValidationError {
	var allErrors []compiler.ValidationError

	domains := make(map[string]*ir.DomainSpec, len(loaded.Domains))
	for i := range loaded.Domains {
		domain := &loaded.Domains[i]
		domains[domain.Name] = domain
		formatter.VerboseLog("Validating domain: %s", domain.Name)
		allErrors = append(allErrors, prefixFields("domain."+domain.Name, compiler.Validate(domain))...)
	}

	for i := range loaded.Problems {
		problem := &loaded.Problems[i]
		formatter.VerboseLog("Validating problem: %s", problem.Name)

		domain, ok := domains[problem.Domain]
		if !ok {
			allErrors = append(allErrors, compiler.ValidationError{
				Field:   "problem." + problem.Name + ".domain",
				Message: fmt.Sprintf("domain %q is not defined", problem.Domain),
				Code:    compiler.ErrLoadDomainNotFound,
			})
			continue
		}
		allErrors = append(allErrors, prefixFields("problem."+problem.Name, compiler.ValidateProblem(domain, problem))...)
	}

	return allErrors
}

func prefixFields(prefix string, errs []compiler.ValidationError) []compiler.ValidationError {
	for i := range errs {
		errs[i].Field = prefix + "." + errs[i].Field
	}
	return errs
}

func loadErrorsToValidation(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		verr := compiler.ValidationError{
			Field:   "load",
			Message: describe(err),
			Code:    errorCode(err),
		}
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			verr.Line = loadErr.Pos.Line()
		}
		out = append(out, verr)
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d domain(s), %d problem(s))\n", result.Domains, result.Problems)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateSpecsDir validates all specs in a directory.
// This is a helper function for external callers.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, compiler.LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	errs := loadErrorsToValidation(loadErrors)
	return append(errs, validateAll(loadResult, &OutputFormatter{Format: "text"})...), nil
}
