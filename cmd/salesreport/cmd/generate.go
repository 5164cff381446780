package cmd

import (
	"fmt"
	"io"
	"os"

	"salesledger/cmd/salesreport/config"
	"salesledger/internal/reporter"
	"salesledger/internal/sample"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateFlagNames = []string{"rows", "seed", "pattern", "min-amount", "max-amount", "output"}

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic sales ledger",
	Long: `Generate writes a reproducible ledger in the default column layout, for
demos and load tests. The same --seed always produces the same file.

Examples:
  salesreport generate --output ventas.csv
  salesreport generate --rows 50000 --from 2022-01-01 --to 2023-12-31 --pattern end-of-month --output grande.csv`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, generateFlagNames...)
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := sample.DefaultLedgerGenerator()
	generateCmd.Flags().Int("rows", defaults.Count, "number of sales to generate")
	generateCmd.Flags().Int64("seed", defaults.Seed, "random seed")
	generateCmd.Flags().String("pattern", string(defaults.Pattern), "date pattern: random, end-of-month")
	generateCmd.Flags().String("min-amount", defaults.MinAmount.String(), "lowest unit price")
	generateCmd.Flags().String("max-amount", defaults.MaxAmount.String(), "highest unit price")
	generateCmd.Flags().String("output", "", "output file path (default: stdout)")
}

func loadGenerator() (*sample.LedgerGenerator, error) {
	g := sample.DefaultLedgerGenerator()
	g.Count = viper.GetInt("rows")
	g.Seed = viper.GetInt64("seed")
	g.Pattern = sample.Pattern(viper.GetString("pattern"))

	// the default branch selection is for reports, not for generation
	if viper.IsSet("branches") {
		g.Branches = config.CreateSelection(stringList("branches"), nil, nil).Branches
	}
	if viper.IsSet("products") {
		g.Products = config.CreateSelection(nil, stringList("products"), nil).Products
	}
	if viper.IsSet("customers") {
		g.Customers = config.CreateSelection(nil, nil, stringList("customers")).Customers
	}

	dateRange, err := config.ParseDateRange(viper.GetString("from"), viper.GetString("to"))
	if err != nil {
		return nil, err
	}
	if !dateRange.From.IsZero() {
		g.StartDate = dateRange.From
	}
	if !dateRange.To.IsZero() {
		g.EndDate = dateRange.To
	}

	for key, target := range map[string]*decimal.Decimal{"min-amount": &g.MinAmount, "max-amount": &g.MaxAmount} {
		if s := viper.GetString(key); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, errors.ConfigurationError(errors.CodeInvalidConfig, key, s, err)
			}
			*target = d
		}
	}

	if err := g.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "generate", g.Count, err)
	}
	return g, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	g, err := loadGenerator()
	if err != nil {
		return err
	}
	return executeGenerate(g, viper.GetString("output"), cmd.OutOrStdout())
}

func executeGenerate(g *sample.LedgerGenerator, output string, out io.Writer) error {
	log := logger.GetGlobalLogger().WithComponent("cli").WithFields(logger.Fields{
		"rows": g.Count,
		"seed": g.Seed,
	})

	records, err := g.Generate()
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "generate", g.Count, err)
	}

	if output == "" {
		return logger.TimedOperation("write_ledger", log, func() error {
			if err := reporter.WriteCSV(records, out, ',', true); err != nil {
				return errors.ExportError("stdout", err)
			}
			return nil
		})
	}

	err = logger.TimedOperation("write_ledger", log.WithField("file", output), func() error {
		file, err := os.Create(output)
		if err != nil {
			return errors.ExportError(output, err)
		}
		if err := reporter.WriteCSV(records, file, ',', true); err != nil {
			file.Close()
			return errors.ExportError(output, err)
		}
		if err := file.Close(); err != nil {
			return errors.ExportError(output, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Generated %d sales in %s\n", len(records), output)
	return nil
}
