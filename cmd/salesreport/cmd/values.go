package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"salesledger/internal/models"
	"salesledger/pkg/errors"

	"github.com/spf13/cobra"
)

// valuesCmd represents the values command
var valuesCmd = &cobra.Command{
	Use:   "values {branches|products|customers}",
	Short: "List the distinct branches, products or customers in the ledger",
	Long: `Values prints one distinct name per line, in the order the names first
appear in the ledger. Use it to find the exact names accepted by --branches,
--products and --customers.

Examples:
  salesreport values branches --ledger ventas.csv
  salesreport values products --ledger ventas.csv --from 2023-01-01`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"branches", "products", "customers"},
	RunE:      runValues,
}

func init() {
	rootCmd.AddCommand(valuesCmd)
}

func runValues(cmd *cobra.Command, args []string) error {
	opts, err := loadLedgerOptions()
	if err != nil {
		return err
	}
	return executeValues(cmd.Context(), opts, args[0], cmd.OutOrStdout())
}

func executeValues(ctx context.Context, opts ledgerOptions, dimension string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	l, err := openLedger(ctx, opts)
	if err != nil {
		return err
	}
	l = models.NewLedger(l.Source, opts.DateRange.Apply(l.Records))

	var values []string
	switch strings.ToLower(dimension) {
	case "branches", "branch":
		values = l.Branches()
	case "products", "product":
		values = l.Products()
	case "customers", "customer":
		values = l.Customers()
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "dimension", dimension, nil).
			WithSuggestion("use branches, products or customers")
	}

	for _, v := range values {
		fmt.Fprintln(out, v)
	}
	return nil
}
