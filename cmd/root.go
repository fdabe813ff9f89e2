// =============================================================================
// CSV to Tally Sync - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tallysync)
//   ├── syncCmd (tallysync sync)
//   ├── validateCmd (tallysync validate)
//   └── versionCmd (tallysync version)
//
// The root command owns the global flags (--config, --verbose) and the shared
// configuration and logger setup used by the subcommands.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
	"github.com/ginjaninja78/CSV-to-Tally-sync/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tallysync",
	Short: "CSV to Tally Sync - Post sales transactions from CSV/XLSX into Tally",
	Long: `CSV to Tally Sync reads sales transactions from a CSV or XLSX file and
replicates them into Tally through its XML import endpoint.

For every row it:
  - Creates the party ledger (under Sundry Debtors)
  - Creates the sales ledger (under Sales Accounts)
  - Posts a balanced sales voucher

Every call is reported. A failed row never stops the run.

Example Usage:
  tallysync sync --input sales.csv --company "Demo Co"
  tallysync sync --dry-run                # Build and log payloads, send nothing
  tallysync validate --input sales.xlsx   # Check the input without sending`,

	// SilenceUsage keeps row and transport failures from printing usage.
	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration. The default config file may be
// absent; a file named explicitly with --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if !cmd.Flags().Changed("config") && !utils.FileExists(path) {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// newLogger builds the run logger from the output settings.
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
