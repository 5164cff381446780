package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"salesledger/cmd/salesreport/config"
	"salesledger/internal/models"
	"salesledger/internal/report"
	"salesledger/internal/reporter"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// reportOptions holds everything one report run needs
type reportOptions struct {
	ledgerOptions
	Measure     models.Measure
	Format      reporter.OutputFormat
	OutputFile  string
	Rolling     int
	Concurrency int
	Locale      string
}

var reportFlagNames = []string{"measure", "output-format", "output-file", "rolling", "concurrency", "locale"}

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise sales by branch, product and customer",
	Long: `Report loads the sales ledger and prints, for every selected branch, the
total of the chosen measure broken down by product and customer, followed by
the monthly series of each branch and the filtered transactions.

An empty --products or --customers list means every product or customer.
At least one branch is required.

Examples:
  # Head office totals
  salesreport report --ledger ventas.csv

  # Two branches, one product, net amounts
  salesreport report --ledger ventas.csv --branches "CASA MATRIZ,SUCURSAL NORTE" \
    --products "Producto X" --measure net

  # Three month rolling mean, JSON written to a file
  salesreport report --ledger ventas.csv --rolling 3 --output-format json --output-file resumen.json

  # Workbook with one sheet per section
  salesreport report --ledger ventas.csv --output-format xlsx --output-file resumen.xlsx`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, reportFlagNames...)
	},
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("measure", "m", string(models.MeasureGross), "value to sum: gross, net, quantity")
	reportCmd.Flags().StringP("output-format", "f", string(reporter.FormatConsole), "output format: console, json, csv, xlsx")
	reportCmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().Int("rolling", 0, "trailing window in months for the rolling mean (0 disables it)")
	reportCmd.Flags().Int("concurrency", 4, "branches summarised in parallel")
	reportCmd.Flags().String("locale", "en", "locale used to group digits in console output")
}

func loadReportOptions() (*reportOptions, error) {
	base, err := loadLedgerOptions()
	if err != nil {
		return nil, err
	}

	measure, err := models.ParseMeasure(viper.GetString("measure"))
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "measure", viper.GetString("measure"), err)
	}

	format, err := config.ParseOutputFormat(viper.GetString("output-format"))
	if err != nil {
		return nil, err
	}

	opts := &reportOptions{
		ledgerOptions: base,
		Measure:       measure,
		Format:        format,
		OutputFile:    viper.GetString("output-file"),
		Rolling:       viper.GetInt("rolling"),
		Concurrency:   viper.GetInt("concurrency"),
		Locale:        viper.GetString("locale"),
	}

	if opts.Format.IsBinary() && opts.OutputFile == "" {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output-file", "", nil).
			WithSuggestion(fmt.Sprintf("the %s format needs --output-file", opts.Format))
	}

	return opts, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	opts, err := loadReportOptions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return executeReport(ctx, opts, cmd.OutOrStdout())
}

// executeReport loads the ledger, assembles the summary and renders it to
// the output file or out
func executeReport(ctx context.Context, opts *reportOptions, out io.Writer) error {
	log := logger.GetGlobalLogger().WithComponent("cli")

	if !opts.Selection.HasBranches() {
		return errors.InvalidSelection(opts.Selection.Products, opts.Selection.Customers)
	}

	summary, err := buildSummary(ctx, opts)
	if err != nil {
		return err
	}

	generator, err := reporter.NewSafeReportGenerator(config.CreateReportConfig(opts.Format, opts.Locale), nil)
	if err != nil {
		return err
	}

	if opts.OutputFile == "" {
		return generator.GenerateReportSafely(summary, out)
	}

	written, err := generator.WriteToFile(summary, opts.OutputFile)
	if err != nil {
		return err
	}
	if written != opts.OutputFile {
		log.WithFields(logger.Fields{
			"requested": opts.OutputFile,
			"written":   written,
		}).Warn("Report written to backup location")
	}
	fmt.Fprintf(out, "Report written to %s\n", written)
	return nil
}

func buildSummary(ctx context.Context, opts *reportOptions) (*report.Summary, error) {
	l, err := openLedger(ctx, opts.ledgerOptions)
	if err != nil {
		return nil, err
	}

	assemblerConfig, err := config.CreateAssemblerConfig(opts.Concurrency, opts.Rolling, opts.DateRange)
	if err != nil {
		return nil, err
	}

	assembler, err := report.NewAssembler(assemblerConfig)
	if err != nil {
		return nil, err
	}

	return assembler.Build(ctx, l, opts.Selection, opts.Measure)
}
