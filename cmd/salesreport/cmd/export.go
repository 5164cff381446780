package cmd

import (
	"context"
	"os"
	"os/signal"

	"salesledger/cmd/salesreport/config"
	"salesledger/internal/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered transactions to CSV or XLSX",
	Long: `Export writes the transactions matching the selection. A file name ending
in .xlsx produces a workbook; anything else, or no file, produces CSV.

Examples:
  salesreport export --ledger ventas.csv --branches "CASA MATRIZ" > filtrado.csv
  salesreport export --ledger ventas.csv --products "Producto X" --output-file filtrado.xlsx`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, "output-file")
	},
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output-file", "o", "", "output file path (default: CSV on stdout)")
}

func loadExportOptions() (*reportOptions, error) {
	base, err := loadLedgerOptions()
	if err != nil {
		return nil, err
	}

	outputFile := viper.GetString("output-file")
	return &reportOptions{
		ledgerOptions: base,
		Measure:       models.MeasureGross,
		Format:        config.FormatFromPath(outputFile),
		OutputFile:    outputFile,
		Concurrency:   1,
		Locale:        "en",
	}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	opts, err := loadExportOptions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return executeReport(ctx, opts, cmd.OutOrStdout())
}
