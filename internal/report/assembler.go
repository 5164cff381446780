// Package report assembles the sales summary for one selection: the branch
// → product → customer breakdown, the monthly branch and product matrices
// and the filtered transaction view.
//
// Example usage:
//
//	assembler, err := report.NewAssembler(report.DefaultConfig())
//	summary, err := assembler.Build(ctx, ledger, selection, models.MeasureGross)
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesledger/internal/aggregator"
	"salesledger/internal/filter"
	"salesledger/internal/models"
	"salesledger/internal/timeseries"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"
)

// Summary is the assembled result of one query
type Summary struct {
	QueryID     string           `json:"query_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Source      string           `json:"source"`
	Measure     models.Measure   `json:"measure"`
	Selection   models.Selection `json:"selection"`

	// Branches holds one tree per selected branch, in selection order. A
	// branch total covers all of the branch's records regardless of the
	// product and customer selection.
	Branches []*models.SummaryNode `json:"branches"`

	BranchMonthly  *timeseries.Matrix `json:"branch_monthly"`
	BranchRolling  *timeseries.Matrix `json:"branch_rolling,omitempty"`
	ProductMonthly *timeseries.Matrix `json:"product_monthly,omitempty"`

	// BranchProductMonthly has one column per "branch - product" pair that
	// occurs in the filtered view, branch-major in selection order
	BranchProductMonthly *timeseries.Matrix `json:"branch_product_monthly,omitempty"`

	Filtered      []models.TransactionRecord `json:"filtered"`
	FilteredTotal decimal.Decimal            `json:"filtered_total"`

	Stats *Stats `json:"stats"`
}

// Stats records sizes and timing of a build
type Stats struct {
	LedgerRecords   int           `json:"ledger_records"`
	InRangeRecords  int           `json:"in_range_records"`
	FilteredRecords int           `json:"filtered_records"`
	Duration        time.Duration `json:"duration"`
}

// Branch returns the tree of one branch, or nil
func (s *Summary) Branch(name string) *models.SummaryNode {
	for _, b := range s.Branches {
		if b.Label == name {
			return b
		}
	}
	return nil
}

// Assembler builds summaries from a ledger snapshot. It holds no per-query
// state and is safe for concurrent use.
type Assembler struct {
	config *Config
	logger logger.Logger
}

// NewAssembler creates a new assembler
func NewAssembler(config *Config) (*Assembler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err)
	}
	if config.DateField == "" {
		config.DateField = models.DateFieldDocument
	}

	return &Assembler{
		config: config,
		logger: logger.WithComponent("report_assembler"),
	}, nil
}

// branchResult is the per-branch work product, stored by selection index
type branchResult struct {
	node    *models.SummaryNode
	monthly models.MonthlySeries
}

// Build assembles the summary for sel over ledger. An empty branch selection
// fails before any computation. The same inputs always produce the same
// summary apart from QueryID, GeneratedAt and Stats.Duration.
func (a *Assembler) Build(ctx context.Context, ledger *models.Ledger, sel models.Selection, measure models.Measure) (*Summary, error) {
	if !sel.HasBranches() {
		return nil, errors.InvalidSelection(sel.Products, sel.Customers)
	}
	if !measure.IsValid() {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "measure", measure, nil)
	}
	if ledger == nil {
		return nil, errors.New(errors.CategoryLoad, errors.CodeEmptySource, "no ledger loaded")
	}

	queryID := uuid.NewString()
	op := logger.NewOperationLogger("build_report", a.logger).
		WithField("query_id", queryID).
		WithField("branches", len(sel.Branches)).
		WithField("measure", string(measure))
	start := time.Now()

	records := a.config.DateRange.Apply(ledger.Records)

	op.Step("branch_breakdown")
	results, err := a.buildBranches(ctx, records, sel, measure)
	if err != nil {
		op.Error(err, "Report build failed")
		return nil, err
	}

	op.Step("filtered_view")
	filtered, err := filter.Apply(records, sel)
	if err != nil {
		op.Error(err, "Report build failed")
		return nil, err
	}

	summary := &Summary{
		QueryID:       queryID,
		GeneratedAt:   start,
		Source:        ledger.Source,
		Measure:       measure,
		Selection:     sel,
		Branches:      make([]*models.SummaryNode, len(results)),
		Filtered:      filtered,
		FilteredTotal: aggregator.TotalOf(filtered, measure),
	}

	op.Step("monthly_matrices")
	branchSeries := make(map[string]models.MonthlySeries, len(results))
	for i, r := range results {
		summary.Branches[i] = r.node
		branchSeries[sel.Branches[i]] = r.monthly
	}
	summary.BranchMonthly = timeseries.Align(sel.Branches, branchSeries)

	if a.config.RollingWindow > 0 {
		rolling := make(map[string]models.MonthlySeries, len(sel.Branches))
		for _, b := range sel.Branches {
			// Zero-filled months count toward the window
			mean, err := aggregator.RollingMean(summary.BranchMonthly.Series(b), a.config.RollingWindow)
			if err != nil {
				op.Error(err, "Report build failed")
				return nil, errors.InternalError(errors.CodeUnexpectedError, "rolling_mean", err)
			}
			rolling[b] = mean
		}
		summary.BranchRolling = timeseries.Align(sel.Branches, rolling)
	}

	if len(sel.Products) > 0 {
		_, productSeries := aggregator.MonthlyTotalsBy(filtered,
			func(r models.TransactionRecord) string { return r.Product },
			a.config.DateField, measure)
		summary.ProductMonthly = timeseries.Align(sel.Products, productSeries)

		_, pairSeries := aggregator.MonthlyTotalsBy(filtered, branchProductKey, a.config.DateField, measure)
		summary.BranchProductMonthly = timeseries.Align(branchProductColumns(filtered, sel, measure), pairSeries)
	}

	summary.Stats = &Stats{
		LedgerRecords:   ledger.Len(),
		InRangeRecords:  len(records),
		FilteredRecords: len(filtered),
		Duration:        time.Since(start),
	}

	op.WithField("filtered_records", len(filtered)).Success("Report assembled")
	return summary, nil
}

func branchProductKey(r models.TransactionRecord) string {
	return r.Branch + " - " + r.Product
}

// branchProductColumns lists the branch/product pairs with at least one
// filtered record, ordered by selected branch then selected product
func branchProductColumns(filtered []models.TransactionRecord, sel models.Selection, measure models.Measure) []string {
	present := make(map[string]bool)
	for _, g := range aggregator.GroupTotals(filtered, branchProductKey, measure) {
		present[g.Key] = true
	}

	var columns []string
	for _, b := range sel.Branches {
		for _, p := range sel.Products {
			k := branchProductKey(models.TransactionRecord{Branch: b, Product: p})
			if present[k] {
				columns = append(columns, k)
			}
		}
	}
	return columns
}

// buildBranches computes each selected branch's tree and monthly series.
// Branches run concurrently; results land at the branch's selection index.
func (a *Assembler) buildBranches(ctx context.Context, records []models.TransactionRecord, sel models.Selection, measure models.Measure) ([]branchResult, error) {
	results := make([]branchResult, len(sel.Branches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.MaxConcurrency)

	for i, branch := range sel.Branches {
		i, branch := i, branch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.InternalError(errors.CodeCancelled, "build_report", err)
			}
			results[i] = a.buildBranch(records, branch, sel, measure)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Assembler) buildBranch(records []models.TransactionRecord, branch string, sel models.Selection, measure models.Measure) branchResult {
	branchRecords := filter.ByBranch(records, branch)
	node := &models.SummaryNode{
		Label: branch,
		Total: aggregator.TotalOf(branchRecords, measure),
	}

	for _, product := range sel.Products {
		productRecords := filter.ByBranchProduct(branchRecords, branch, product)
		productNode := &models.SummaryNode{
			Label: product,
			Total: aggregator.TotalOf(productRecords, measure),
		}
		for _, customer := range sel.Customers {
			customerRecords := filter.ByBranchProductCustomer(productRecords, branch, product, customer)
			productNode.Children = append(productNode.Children, &models.SummaryNode{
				Label: customer,
				Total: aggregator.TotalOf(customerRecords, measure),
			})
		}
		node.Children = append(node.Children, productNode)
	}

	return branchResult{
		node:    node,
		monthly: aggregator.MonthlyTotals(branch, branchRecords, a.config.DateField, measure),
	}
}
