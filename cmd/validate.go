// =============================================================================
// CSV to Tally Sync - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the configuration and
// the input file and checks every record the same way 'sync' would, without
// contacting Tally.
//
// COMMAND USAGE:
//   tallysync validate [--input file]
//
// EXIT STATUS:
//   0 - every record is valid
//   1 - configuration or input could not be loaded, or a record is invalid
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/converter"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/source"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and input without sending anything",
	Long: `The validate command loads the configuration and input file, then checks
every record for blank fields, dd-mm-yyyy dates and positive amounts.
Nothing is sent to Tally.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyInputFlag(cmd, cfg)

		// The company is only needed to post vouchers.
		if cfg.CompanyName == "" {
			cfg.CompanyName = "-"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		return runValidate(cfg)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input .csv or .xlsx file")
}

func applyInputFlag(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("input") {
		cfg.InputPath = inputPath
	}
}

func runValidate(cfg *config.Config) error {
	records, err := source.Load(cfg)
	if err != nil {
		return err
	}

	var invalid []*validation.InputError
	for _, record := range records {
		_, err := converter.Convert(record)

		var inputErr *validation.InputError
		if errors.As(err, &inputErr) {
			invalid = append(invalid, inputErr)
		}
	}

	fmt.Printf("Checked %d record(s) from %s\n", len(records), cfg.InputPath)
	fmt.Println(validation.FormatErrors(invalid))

	if len(invalid) > 0 {
		return fmt.Errorf("%d of %d record(s) are invalid", len(invalid), len(records))
	}
	return nil
}
