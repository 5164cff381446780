// Package config turns CLI settings into component configurations.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"salesledger/internal/filter"
	"salesledger/internal/models"
	"salesledger/internal/parsers"
	"salesledger/internal/report"
	"salesledger/internal/reporter"
	"salesledger/pkg/errors"
)

// DefaultBranch is selected when no branch is configured
const DefaultBranch = "CASA MATRIZ"

// DateFlagLayout is the layout of --from and --to
const DateFlagLayout = "2006-01-02"

// Layout names for the ledger column presets
const (
	LayoutSpanish = "es"
	LayoutEnglish = "en"
)

// LedgerSettings describes the ledger source columns
type LedgerSettings struct {
	Layout     string
	Columns    map[string]string
	Delimiter  string
	DateFormat string
}

// CreateLedgerParserConfig builds the parser configuration. Column overrides
// are keyed by field name (date, branch, product, customer, gross, net,
// quantity).
func CreateLedgerParserConfig(settings LedgerSettings) (*parsers.LedgerParserConfig, error) {
	var config *parsers.LedgerParserConfig
	switch strings.ToLower(settings.Layout) {
	case "", LayoutSpanish:
		config = parsers.DefaultLedgerParserConfig()
	case LayoutEnglish:
		config = parsers.EnglishLedgerParserConfig()
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "layout", settings.Layout, nil).
			WithSuggestion("use 'es' or 'en'")
	}

	fields := make([]string, 0, len(settings.Columns))
	for field := range settings.Columns {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		column := strings.TrimSpace(settings.Columns[field])
		if !isKnownField(field) {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns."+field, column, nil).
				WithSuggestion("known fields are date, branch, product, customer, gross, net and quantity")
		}
		if column == "" {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns."+field, column, nil)
		}
		config.ColumnAliases[strings.ToLower(field)] = column
	}

	if settings.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(settings.Delimiter)
		if size != len(settings.Delimiter) {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "delimiter", settings.Delimiter, nil).
				WithSuggestion("the delimiter must be a single character")
		}
		config.Delimiter = r
	}

	if settings.DateFormat != "" {
		config.DateFormat = settings.DateFormat
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns", settings.Columns, err)
	}
	return config, nil
}

func isKnownField(field string) bool {
	switch strings.ToLower(field) {
	case parsers.FieldDate, parsers.FieldBranch, parsers.FieldProduct, parsers.FieldCustomer,
		parsers.FieldGross, parsers.FieldNet, parsers.FieldQuantity:
		return true
	default:
		return false
	}
}

// CreateSelection builds the query selection. Branches are used as given;
// an explicitly empty list stays empty and is rejected later.
func CreateSelection(branches, products, customers []string) models.Selection {
	return models.NewSelection(branches, products, customers)
}

// ParseDateRange parses the optional --from and --to bounds
func ParseDateRange(from, to string) (filter.DateRange, error) {
	var r filter.DateRange
	var err error

	if from != "" {
		if r.From, err = time.Parse(DateFlagLayout, from); err != nil {
			return r, errors.ConfigurationError(errors.CodeInvalidConfig, "from", from, err).
				WithSuggestion("use YYYY-MM-DD")
		}
	}
	if to != "" {
		if r.To, err = time.Parse(DateFlagLayout, to); err != nil {
			return r, errors.ConfigurationError(errors.CodeInvalidConfig, "to", to, err).
				WithSuggestion("use YYYY-MM-DD")
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return r, errors.ConfigurationError(errors.CodeInvalidConfig, "from", from,
			fmt.Errorf("start date cannot be after end date"))
	}
	return r, nil
}

// CreateAssemblerConfig creates the report assembler configuration
func CreateAssemblerConfig(concurrency, rolling int, dateRange filter.DateRange) (*report.Config, error) {
	config := report.DefaultConfig()
	if concurrency > 0 {
		config.MaxConcurrency = concurrency
	}
	config.RollingWindow = rolling
	config.DateRange = dateRange

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err)
	}
	return config, nil
}

// ParseOutputFormat validates an output format name
func ParseOutputFormat(format string) (reporter.OutputFormat, error) {
	f := reporter.OutputFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = reporter.FormatConsole
	}
	if !f.IsValid() {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", format, nil).
			WithSuggestion("valid formats: console, json, csv, xlsx")
	}
	return f, nil
}

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) reporter.OutputFormat {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return reporter.FormatXLSX
	}
	return reporter.FormatCSV
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format reporter.OutputFormat, locale string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = format
	if locale != "" {
		config.Locale = locale
	}

	switch format {
	case reporter.FormatConsole:
		config.IncludeMonthly = true
		config.IncludeFiltered = true
	case reporter.FormatJSON:
		config.IncludeMonthly = true
		config.IncludeFiltered = true
	case reporter.FormatCSV:
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}
