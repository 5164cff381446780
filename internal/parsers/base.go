// Package parsers loads the sales ledger from delimited text sources.
//
// Loading is all-or-nothing: an unreadable source, a missing required column
// or any malformed row aborts the load with a LoadError. Rows are never
// skipped or partially recovered, since a silently shortened ledger would
// produce wrong totals downstream.
//
// Example usage:
//
//	parser, err := NewLedgerParser(DefaultLedgerParserConfig())
//	ledger, stats, err := parser.ParseLedger(ctx, "ventas.csv")
package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"salesledger/pkg/errors"
	"salesledger/pkg/logger"
)

// ParseConfig holds low-level CSV reader settings
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// BaseParser provides common CSV parsing functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &BaseParser{
		config: config,
		logger: logger.WithComponent("base_parser"),
	}
}

// ParseContext holds state during a single parse
type ParseContext struct {
	Source     string
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
	ctx        context.Context
}

// NewParseContext creates a new parsing context
func NewParseContext(ctx context.Context, source string) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{
		Source:    source,
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

// IsCancelled checks if the parsing context has been cancelled
func (pc *ParseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// GetColumnIndex returns the index of a column by name, or -1 if not found.
// Lookup falls back to a case-insensitive match.
func (pc *ParseContext) GetColumnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	for header, index := range pc.HeaderMap {
		if strings.EqualFold(header, name) {
			return index
		}
	}
	return -1
}

// OpenFile reads a whole source file into memory. Ledgers are loaded in
// full, so the reader is backed by the buffered bytes.
func (bp *BaseParser) OpenFile(filePath string) (*csv.Reader, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening ledger source")

	data, err := os.ReadFile(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to read ledger source")
		return nil, errors.LoadFailure(errors.CodeSourceUnreadable, filePath, 0, "", "", err)
	}
	return bp.NewReader(bytes.NewReader(data), filePath)
}

// NewReader validates encoding (when configured) and returns a configured
// csv.Reader over r
func (bp *BaseParser) NewReader(r io.ReadSeeker, source string) (*csv.Reader, error) {
	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(r, source); err != nil {
			return nil, err
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, errors.LoadFailure(errors.CodeSourceUnreadable, source, 0, "", "", err)
		}
	}

	reader := csv.NewReader(r)
	reader.Comma = bp.config.Delimiter
	reader.Comment = bp.config.Comment
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	return reader, nil
}

func (bp *BaseParser) validateEncoding(r io.Reader, source string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.LoadFailure(errors.CodeEncodingError, source, lineNum, "", "",
				fmt.Errorf("invalid UTF-8 encoding detected"))
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.LoadFailure(errors.CodeSourceUnreadable, source, lineNum, "", "", err)
	}
	return nil
}

// ReadHeaders reads the header row and checks that every required column is
// present
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, requiredHeaders []string) error {
	if !bp.config.HasHeader {
		parseCtx.Headers = append([]string(nil), requiredHeaders...)
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.LoadFailure(errors.CodeEmptySource, parseCtx.Source, 0, "", "", nil)
		}
		return errors.LoadFailure(errors.CodeMalformedRow, parseCtx.Source, 1, "", "", err)
	}

	parseCtx.LineNumber++
	parseCtx.Headers = cleanHeaders(headers)
	bp.buildHeaderMap(parseCtx)

	bp.logger.WithField("headers", parseCtx.Headers).Debug("Read ledger headers")

	for _, header := range requiredHeaders {
		if parseCtx.GetColumnIndex(header) == -1 {
			bp.logger.WithFields(logger.Fields{
				"missing_header":    header,
				"available_headers": parseCtx.Headers,
			}).Error("Required header is missing")
			return errors.LoadFailure(errors.CodeMissingColumn, parseCtx.Source, 0, header, "", nil)
		}
	}
	return nil
}

// cleanHeaders trims whitespace and a leading byte order mark
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

func (bp *BaseParser) buildHeaderMap(parseCtx *ParseContext) {
	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}
}

// ReadRecord reads the next non-empty record. It returns io.EOF at the end
// of the source.
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		if parseCtx.IsCancelled() {
			return nil, errors.InternalError(errors.CodeCancelled, "ledger_parsing", parseCtx.ctx.Err())
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, errors.LoadFailure(errors.CodeMalformedRow, parseCtx.Source, parseCtx.LineNumber+1, "", "", err)
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// GetFieldValue retrieves a trimmed field value by column name
func (bp *BaseParser) GetFieldValue(record []string, parseCtx *ParseContext, fieldName string) (string, error) {
	index := parseCtx.GetColumnIndex(fieldName)
	if index == -1 {
		return "", errors.LoadFailure(errors.CodeMissingColumn, parseCtx.Source, parseCtx.LineNumber, fieldName, "", nil)
	}

	if index >= len(record) {
		return "", errors.LoadFailure(errors.CodeMalformedRow, parseCtx.Source, parseCtx.LineNumber, fieldName, "",
			fmt.Errorf("field '%s' (index %d) not present in record with %d fields", fieldName, index, len(record)))
	}

	return strings.TrimSpace(record[index]), nil
}

// ParseStats holds statistics about a completed load
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	SkippedEmpty  int
}

func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records", ps.TotalLines, ps.RecordsParsed)
}
