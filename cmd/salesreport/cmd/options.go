package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"salesledger/cmd/salesreport/config"
	"salesledger/internal/filter"
	"salesledger/internal/ledger"
	"salesledger/internal/models"
	"salesledger/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ledgerOptions are the source and selection settings shared by every command
type ledgerOptions struct {
	Path      string
	Settings  config.LedgerSettings
	Selection models.Selection
	DateRange filter.DateRange
}

// loadLedgerOptions reads the shared settings from viper, so config file and
// SALESREPORT_* variables apply as well as flags
func loadLedgerOptions() (ledgerOptions, error) {
	opts := ledgerOptions{
		Path: viper.GetString("ledger"),
		Settings: config.LedgerSettings{
			Layout:     viper.GetString("layout"),
			Columns:    viper.GetStringMapString("columns"),
			Delimiter:  viper.GetString("delimiter"),
			DateFormat: viper.GetString("date-format"),
		},
		Selection: config.CreateSelection(
			stringList("branches"),
			stringList("products"),
			stringList("customers"),
		),
	}

	if err := validateFileExists(opts.Path, "ledger file"); err != nil {
		return opts, err
	}

	dateRange, err := config.ParseDateRange(viper.GetString("from"), viper.GetString("to"))
	if err != nil {
		return opts, err
	}
	opts.DateRange = dateRange

	return opts, nil
}

// stringList reads a list setting. Values given as one string, as in
// environment variables, are split on commas so names may contain spaces.
func stringList(key string) []string {
	if s, ok := viper.Get(key).(string); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}
		}
		return strings.Split(s, ",")
	}
	return viper.GetStringSlice(key)
}

// bindFlags binds the running command's own flags to viper. Binding at run
// time keeps commands that share a flag name from overriding each other.
func bindFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, name, nil, err)
		}
	}
	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "ledger", filePath,
			fmt.Errorf("%s path cannot be empty", description)).
			WithSuggestion("Pass --ledger or set SALESREPORT_LEDGER")
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.LoadFailure(errors.CodeSourceUnreadable, filePath, 0, "", "",
			fmt.Errorf("%s does not exist: %s", description, filePath))
	}
	if err != nil {
		return errors.LoadFailure(errors.CodeSourceUnreadable, filePath, 0, "", "", err)
	}

	if info.IsDir() {
		return errors.LoadFailure(errors.CodeSourceUnreadable, filePath, 0, "", "",
			fmt.Errorf("%s is a directory, expected a file: %s", description, filePath))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errors.LoadFailure(errors.CodeSourceUnreadable, filePath, 0, "", "",
			fmt.Errorf("%s is not readable: %w", description, err))
	}
	file.Close()

	return nil
}

// openLedger builds the file loader for opts and loads the ledger through a
// handle
func openLedger(ctx context.Context, opts ledgerOptions) (*models.Ledger, error) {
	parserConfig, err := config.CreateLedgerParserConfig(opts.Settings)
	if err != nil {
		return nil, err
	}

	loader, err := ledger.NewFileLoader(opts.Path, parserConfig)
	if err != nil {
		return nil, err
	}

	return ledger.NewHandle(loader).Get(ctx)
}
