// Package reporter renders assembled sales summaries.
//
// Supported output formats:
//   - Console: nested bullet breakdown plus the monthly tables
//   - JSON: the full summary, amounts as exact decimal strings
//   - CSV: the filtered transactions, one row per record
//   - XLSX: a workbook with the filtered transactions and monthly sheets
//
// Rounding happens only here. The console format rounds monetary values to
// whole units; the data exports keep full precision.
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport(summary, os.Stdout)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"

	"salesledger/internal/report"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return true
	default:
		return false
	}
}

// IsBinary reports whether the format cannot be written to a terminal
func (f OutputFormat) IsBinary() bool {
	return f == FormatXLSX
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeMonthly  bool `json:"include_monthly"`
	IncludeFiltered bool `json:"include_filtered"`

	// Console options
	Locale          string `json:"locale"`
	MaxFilteredRows int    `json:"max_filtered_rows"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:          FormatConsole,
		IncludeMonthly:  true,
		IncludeFiltered: true,
		Locale:          "en",
		MaxFilteredRows: 20,
		CSVDelimiter:    ',',
		CSVHeaders:      true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale '%s': %w", c.Locale, err)
	}
	if c.MaxFilteredRows < 0 {
		return fmt.Errorf("max filtered rows cannot be negative, got %d", c.MaxFilteredRows)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' {
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}
	return nil
}

// ReportGenerator generates sales reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport renders summary to writer in the configured format
func (rg *ReportGenerator) GenerateReport(summary *report.Summary, writer io.Writer) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(summary, writer)
	case FormatJSON:
		return rg.generateJSONReport(summary, writer)
	case FormatCSV:
		return WriteCSV(summary.Filtered, writer, rg.config.CSVDelimiter, rg.config.CSVHeaders)
	case FormatXLSX:
		return WriteXLSX(summary, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateJSONReport writes the summary, dropping the sections the
// configuration excludes
func (rg *ReportGenerator) generateJSONReport(summary *report.Summary, writer io.Writer) error {
	out := *summary
	if !rg.config.IncludeMonthly {
		out.BranchMonthly, out.BranchRolling = nil, nil
		out.ProductMonthly, out.BranchProductMonthly = nil, nil
	}
	if !rg.config.IncludeFiltered {
		out.Filtered = nil
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&out)
}
