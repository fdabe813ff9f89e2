// =============================================================================
// CSV to Tally Sync - Sync Command
// =============================================================================
//
// This file defines the 'sync' command, which is the main command. It reads
// the input file and replicates every row into Tally.
//
// COMMAND USAGE:
//   tallysync sync [flags]
//
// FLAGS:
//   --input       : Input .csv or .xlsx file (overrides input_path)
//   --endpoint    : Tally XML endpoint (overrides endpoint_url)
//   --company     : Tally company name (overrides company_name)
//   --dry-run     : Build and log every payload without sending anything
//   --report-dir  : Write the run report into this directory
//
// PROCESSING PIPELINE:
//   1. Load and validate configuration
//   2. Read the input file (any failure here aborts with exit status 1)
//   3. Sync every record: party ledger, sales ledger, voucher
//   4. Print the summary block and write the report file
//
// The command exits 0 once the full pass completes, whatever the per-row
// outcomes were.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/source"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/syncer"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/tally"
	"github.com/ginjaninja78/CSV-to-Tally-sync/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputPath   string
	endpointURL string
	companyName string
	dryRun      bool
	reportDir   string
)

// =============================================================================
// SYNC COMMAND DEFINITION
// =============================================================================

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync input rows into Tally",
	Long: `The sync command reads the input file and, for every row in file order,
creates the party ledger, creates the sales ledger and posts a sales voucher.

Rows are processed strictly one at a time. Rejections and transport errors are
logged and the run continues with the next call. A summary of every outcome is
printed at the end and, with --report-dir, written to a report file.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applySyncFlags(cmd, cfg)

		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runSync(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input .csv or .xlsx file")
	syncCmd.Flags().StringVar(&endpointURL, "endpoint", "", "Tally XML endpoint URL")
	syncCmd.Flags().StringVar(&companyName, "company", "", "Tally company name")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build and log payloads without sending them")
	syncCmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory to write the run report into")
}

// applySyncFlags copies explicitly set flags over the loaded configuration.
func applySyncFlags(cmd *cobra.Command, cfg *config.Config) {
	applyInputFlag(cmd, cfg)
	if cmd.Flags().Changed("endpoint") {
		cfg.EndpointURL = endpointURL
	}
	if cmd.Flags().Changed("company") {
		cfg.CompanyName = companyName
	}
	if cmd.Flags().Changed("report-dir") {
		cfg.ReportDir = reportDir
	}
}

// =============================================================================
// MAIN SYNC FUNCTION
// =============================================================================

func runSync(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg)

	log.Infof("Reading %s", cfg.InputPath)
	records, err := source.Load(cfg)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d record(s)", len(records))

	var sender syncer.Sender
	if dryRun {
		log.Warn("Dry run: nothing will be sent to Tally")
		sender = syncer.DryRunSender{Log: log}
	} else {
		log.Infof("Target %s, company %q", cfg.EndpointURL, cfg.CompanyName)
		sender = tally.NewClient(cfg.EndpointURL,
			tally.WithTimeout(cfg.RequestTimeout),
			tally.WithRateLimit(cfg.RateLimit),
		)
	}

	report, runErr := syncer.New(cfg, sender, log).Run(ctx, records)

	fmt.Println()
	fmt.Print(report.String())

	if cfg.ReportDir != "" {
		path, err := utils.WriteRunReport(cfg.ReportDir, report.RunID, report.String())
		if err != nil {
			log.Errorf("Could not write run report: %v", err)
		} else {
			log.Infof("Run report written to %s", path)
		}
	}

	return runErr
}
