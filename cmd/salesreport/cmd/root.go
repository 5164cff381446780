package cmd

import (
	"fmt"
	"os"
	"strings"

	"salesledger/cmd/salesreport/config"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	initErr   error
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "salesreport",
	Short: "Sales ledger aggregation tool",
	Long: `Salesreport loads a sales ledger export and summarises it by branch,
product and customer, with month by month series per branch.

Examples:
  salesreport report --ledger ventas.csv
  salesreport report --ledger ventas.csv --branches "CASA MATRIZ,SUCURSAL NORTE" --products "Producto X"
  salesreport report --ledger ventas.csv --measure net --rolling 3 --output-format json
  salesreport export --ledger ventas.csv --branches "CASA MATRIZ" --output-file filtrado.xlsx
  salesreport values branches --ledger ventas.csv`,
	Version:       getVersionString(),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initErr
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (optional)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text, json")

	// Ledger source flags shared by every command
	flags.StringP("ledger", "l", "", "path to the sales ledger CSV file (required)")
	flags.String("layout", config.LayoutSpanish, "column header preset: es, en")
	flags.StringToString("columns", nil, "column overrides, e.g. gross=Total,net=Neto")
	flags.String("delimiter", "", "field delimiter of the ledger file (default ',')")
	flags.String("date-format", "", "Go layout of the document date (default 2/1/2006, zero padding optional)")

	// Selection flags shared by every command
	flags.StringSliceP("branches", "b", []string{config.DefaultBranch}, "branches to report on")
	flags.StringSliceP("products", "p", nil, "products to break down (default: all)")
	flags.StringSliceP("customers", "c", nil, "customers to break down (default: all)")
	flags.String("from", "", "first document date to include (YYYY-MM-DD)")
	flags.String("to", "", "last document date to include (YYYY-MM-DD)")

	for _, name := range []string{
		"verbose", "log-format", "ledger", "layout", "columns", "delimiter", "date-format",
		"branches", "products", "customers", "from", "to",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in .env, the config file and ENV variables.
func initConfig() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			initErr = errors.ConfigurationError(errors.CodeMissingConfig, "config", cfgFile, err).
				WithSuggestion("Check the config file path and its syntax")
			return
		}
	}

	viper.SetEnvPrefix("SALESREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := setupLogging(viper.GetBool("verbose"), viper.GetString("log-format")); err != nil {
		initErr = err
		return
	}

	if cfgFile != "" {
		logger.GetGlobalLogger().WithField("file", viper.ConfigFileUsed()).Info("Using config file")
	}
}

// setupLogging installs the global logger. Logs go to stderr so stdout
// carries only the report.
func setupLogging(verbose bool, format string) error {
	logConfig := logger.DefaultConfig()
	logConfig.Level = logger.WarnLevel
	if verbose {
		logConfig = logger.DebugConfig()
	}
	if format != "" {
		logConfig.Format = logger.Format(format)
	}
	logConfig.Writer = os.Stderr

	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log-format", format, err).
			WithSuggestion("use 'text' or 'json'")
	}
	logger.SetGlobalLogger(log)
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
