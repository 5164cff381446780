package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/models"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"
)

// LedgerParser loads sales ledgers from CSV sources
type LedgerParser struct {
	*BaseParser
	config *LedgerParserConfig
	logger logger.Logger
}

// NewLedgerParser creates a ledger parser with the given configuration
func NewLedgerParser(config *LedgerParserConfig) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns", config, err)
	}

	return &LedgerParser{
		BaseParser: NewBaseParser(config.ParseConfig()),
		config:     config,
		logger:     logger.WithComponent("ledger_parser"),
	}, nil
}

// Config returns the parser's column configuration
func (p *LedgerParser) Config() *LedgerParserConfig {
	return p.config
}

// ParseLedger loads the whole ledger at filePath
func (p *LedgerParser) ParseLedger(ctx context.Context, filePath string) (*models.Ledger, *ParseStats, error) {
	reader, err := p.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	return p.parse(ctx, reader, filePath)
}

// ParseReader loads a ledger from r, naming it source in errors
func (p *LedgerParser) ParseReader(ctx context.Context, r io.Reader, source string) (*models.Ledger, *ParseStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.LoadFailure(errors.CodeSourceUnreadable, source, 0, "", "", err)
	}
	reader, err := p.NewReader(bytes.NewReader(data), source)
	if err != nil {
		return nil, nil, err
	}
	return p.parse(ctx, reader, source)
}

func (p *LedgerParser) parse(ctx context.Context, reader *csv.Reader, source string) (*models.Ledger, *ParseStats, error) {
	start := time.Now()
	parseCtx := NewParseContext(ctx, source)
	stats := &ParseStats{}

	p.logger.WithField("source", source).Info("Loading sales ledger")

	if err := p.ReadHeaders(reader, parseCtx, p.config.RequiredColumns()); err != nil {
		return nil, nil, err
	}

	var records []models.TransactionRecord
	for {
		row, err := p.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		record, err := p.parseRecord(row, parseCtx)
		if err != nil {
			p.logger.WithError(err).WithFields(logger.Fields{
				"source": source,
				"line":   parseCtx.LineNumber,
			}).Error("Rejecting ledger: malformed row")
			return nil, nil, err
		}
		records = append(records, record)
	}

	stats.TotalLines = parseCtx.LineNumber
	stats.RecordsParsed = len(records)
	stats.SkippedEmpty = stats.TotalLines - stats.RecordsParsed
	if p.config.HasHeader && stats.TotalLines > 0 {
		stats.SkippedEmpty--
	}

	p.logger.WithFields(logger.Fields{
		"source":   source,
		"records":  stats.RecordsParsed,
		"lines":    stats.TotalLines,
		"duration": time.Since(start).String(),
	}).Info("Sales ledger loaded")

	return models.NewLedger(source, records), stats, nil
}

func (p *LedgerParser) parseRecord(row []string, parseCtx *ParseContext) (models.TransactionRecord, error) {
	var zero models.TransactionRecord

	dateCol := p.config.GetColumnName(FieldDate)
	dateStr, err := p.GetFieldValue(row, parseCtx, dateCol)
	if err != nil {
		return zero, err
	}
	date, err := time.Parse(p.config.dateFormat(), dateStr)
	if err != nil {
		return zero, errors.LoadFailure(errors.CodeInvalidDate, parseCtx.Source, parseCtx.LineNumber, dateCol, dateStr, err)
	}

	branchCol := p.config.GetColumnName(FieldBranch)
	branch, err := p.GetFieldValue(row, parseCtx, branchCol)
	if err != nil {
		return zero, err
	}
	if branch == "" {
		return zero, errors.LoadFailure(errors.CodeMalformedRow, parseCtx.Source, parseCtx.LineNumber, branchCol, "",
			fmt.Errorf("branch cannot be empty"))
	}

	product, err := p.GetFieldValue(row, parseCtx, p.config.GetColumnName(FieldProduct))
	if err != nil {
		return zero, err
	}

	customer, err := p.GetFieldValue(row, parseCtx, p.config.GetColumnName(FieldCustomer))
	if err != nil {
		return zero, err
	}
	if customer == "" {
		customer = models.NoCustomer
	}

	gross, err := p.amount(row, parseCtx, FieldGross, false)
	if err != nil {
		return zero, err
	}

	net, err := p.amount(row, parseCtx, FieldNet, p.config.OptionalNet)
	if err != nil {
		return zero, err
	}
	if !p.hasColumn(parseCtx, FieldNet) {
		net = gross
	}

	var qty int64
	if p.hasColumn(parseCtx, FieldQuantity) {
		qtyCol := p.config.GetColumnName(FieldQuantity)
		qtyStr, err := p.GetFieldValue(row, parseCtx, qtyCol)
		if err != nil {
			return zero, err
		}
		qty, err = models.ParseQuantity(qtyStr)
		if err != nil {
			return zero, errors.LoadFailure(errors.CodeInvalidQuantity, parseCtx.Source, parseCtx.LineNumber, qtyCol, qtyStr, err)
		}
	}

	record := models.NewTransactionRecord(date, branch, product, customer, gross, net, qty)
	if err := record.Validate(); err != nil {
		return zero, errors.LoadFailure(errors.CodeMalformedRow, parseCtx.Source, parseCtx.LineNumber, "", "", err)
	}
	return record, nil
}

// amount reads a decimal column. An optional column absent from the header
// yields zero.
func (p *LedgerParser) amount(row []string, parseCtx *ParseContext, field string, optional bool) (decimal.Decimal, error) {
	if optional && !p.hasColumn(parseCtx, field) {
		return decimal.Zero, nil
	}

	col := p.config.GetColumnName(field)
	raw, err := p.GetFieldValue(row, parseCtx, col)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := models.ParseDecimalFromString(raw)
	if err != nil {
		return decimal.Zero, errors.LoadFailure(errors.CodeInvalidAmount, parseCtx.Source, parseCtx.LineNumber, col, raw, err)
	}
	return value, nil
}

func (p *LedgerParser) hasColumn(parseCtx *ParseContext, field string) bool {
	col := p.config.GetColumnName(field)
	return strings.TrimSpace(col) != "" && parseCtx.GetColumnIndex(col) != -1
}
