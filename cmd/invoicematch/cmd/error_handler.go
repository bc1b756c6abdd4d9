package cmd

import (
	"fmt"
	"os"

	"invoice-matching-service/pkg/errors"
	"invoice-matching-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message and returns the exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if matchingErr, ok := errors.AsMatchingError(err); ok {
		return h.handleMatchingError(matchingErr)
	}

	return h.handleGenericError(err)
}

// handleMatchingError handles MatchingError with detailed context
func (h *CLIErrorHandler) handleMatchingError(err *errors.MatchingError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-MatchingError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, check the logs or run with --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryParse:
		return `Parse error help:
• Verify the JSON file structure against the documented invoice/PO shape
• Check for unknown fields; documents are decoded strictly
• Ensure amounts are decimal numbers or quoted decimal strings
• Use 'invoicematch match --help' for examples of correct inputs`

	case errors.CategoryData:
		return `Data error help:
• Check that all required fields have values (invoice number, PO reference)
• Quantities and amounts must be non-negative
• Verify date fields use YYYY-MM-DD or RFC3339
• Fix the document and re-run the match`

	case errors.CategoryPrecondition:
		return `Precondition error help:
• Check the document pair's current stage and status
• Resolve all medium-or-higher issues before advancing or approving
• Approved and rejected pairs cannot be modified`

	case errors.CategoryNotFound:
		return `Not-found error help:
• Verify the id was copied correctly
• The referenced result, issue, or queue item may belong to another run`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Tolerances and thresholds must be between 0.0 and 1.0
• Use 'invoicematch match --help' to see all available options
• Try running with default settings first`

	default:
		return `An unexpected error occurred. Run with --verbose for details.`
	}
}
