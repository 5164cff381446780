package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"salesledger/internal/report"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and output fallbacks
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the output format and locale settings")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders the summary, falling back to the console
// format when a structured format fails. Binary formats are refused on a
// terminal.
func (srg *SafeReportGenerator) GenerateReportSafely(summary *report.Summary, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Info("Starting report generation")

	if err := srg.validateInputs(summary, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	if err := srg.generateWithFallback(summary, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	srg.logger.Info("Report generation completed successfully")
	return nil
}

// WriteToFile renders the summary into path. When path cannot be created a
// sibling backup file is tried before giving up.
func (srg *SafeReportGenerator) WriteToFile(summary *report.Summary, path string) (string, error) {
	if summary == nil {
		return "", errors.InternalError(errors.CodeUnexpectedError, "report_generation", fmt.Errorf("summary cannot be nil"))
	}

	written := path
	file, err := os.Create(path)
	if err != nil && isFileError(err) {
		backupPath := generateBackupPath(path)
		srg.logger.WithFields(logger.Fields{
			"original_file": path,
			"backup_file":   backupPath,
		}).Warn("Attempting output fallback")

		var backupErr error
		file, backupErr = os.Create(backupPath)
		if backupErr != nil {
			return "", errors.ExportError(path, err)
		}
		written = backupPath
	} else if err != nil {
		return "", errors.ExportError(path, err)
	}

	if err := srg.GenerateReport(summary, file); err != nil {
		file.Close()
		return "", errors.ExportError(written, err)
	}
	if err := file.Close(); err != nil {
		return "", errors.ExportError(written, err)
	}

	srg.logger.WithField("file", written).Info("Report written")
	return written, nil
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(summary *report.Summary, writer io.Writer) error {
	if summary == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_generation",
			fmt.Errorf("summary cannot be nil"))
	}

	if writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_generation",
			fmt.Errorf("writer cannot be nil"))
	}

	if srg.config.Format.IsBinary() && isTerminal(writer) {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", srg.config.Format, nil).
			WithSuggestion("write xlsx output to a file with --output-file")
	}

	return nil
}

// generateWithFallback attempts to generate the report with a format fallback
func (srg *SafeReportGenerator) generateWithFallback(summary *report.Summary, writer io.Writer) error {
	err := srg.GenerateReport(summary, writer)
	if err == nil {
		return nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")

	if srg.shouldAttemptFormatFallback() {
		return srg.generateWithFormatFallback(summary, writer, err)
	}

	return srg.wrapGenerationError(err)
}

// shouldAttemptFormatFallback reports whether a console fallback makes sense.
// Data formats written to a file are not mixed with console text.
func (srg *SafeReportGenerator) shouldAttemptFormatFallback() bool {
	return srg.config.Format == FormatJSON
}

// generateWithFormatFallback attempts to generate with the console format
func (srg *SafeReportGenerator) generateWithFormatFallback(summary *report.Summary, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(summary, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}

	srg.logger.Info("Report generated successfully using format fallback")
	return nil
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if salesErr, ok := errors.AsSalesError(err); ok {
		return salesErr
	}
	return errors.ExportError(string(srg.config.Format)+" report", err)
}

func isFileError(err error) bool {
	return os.IsPermission(err) ||
		os.IsNotExist(err) ||
		isSpaceError(err)
}

// generateBackupPath places a _backup sibling next to originalPath, falling
// back to the temp dir when the directory itself is missing
func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	if _, err := os.Stat(dir); err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
