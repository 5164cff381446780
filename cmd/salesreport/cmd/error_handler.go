package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"salesledger/pkg/errors"
	"salesledger/pkg/logger"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

// CLIErrorHandler turns command errors into messages and exit codes
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if salesErr, ok := errors.AsSalesError(err); ok {
		return h.handleSalesError(salesErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleSalesError(err *errors.SalesError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(h.out, "\nContext:\n")
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
		if err.StackTrace != nil {
			fmt.Fprintf(h.out, "%+v\n", err.StackTrace)
		}
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	cause := pkgerrors.Cause(err)

	switch {
	case isFileNotFoundError(cause):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case isPermissionError(cause):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	case isDiskFullError(cause):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 5
	}

	// cobra flag and argument errors land here
	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'salesreport --help' for usage.\n")
	return 1
}

func getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategorySelection:
		return `Selection help:
• Select at least one branch with --branches
• Use 'salesreport values branches' to list the branch names in the ledger
• Leave --products or --customers empty to include all of them`

	case errors.CategoryLoad:
		return `Ledger help:
• Check that the file is a UTF-8 CSV export with a header row
• Document dates must match --date-format (default D/M/YYYY, zero padding optional)
• Use --layout or --columns when your headers differ from the defaults
• Reload after fixing the file: a failed load is not retried`

	case errors.CategoryConfiguration:
		return `Configuration help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'salesreport report --help' to see all available options`

	case errors.CategoryExport:
		return `Export help:
• Check that the output directory exists and is writable
• Binary formats such as xlsx need --output-file`

	default:
		return `For more help:
• Use 'salesreport --help' for general help
• Run again with --verbose for details`
	}
}

func isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full")
}
