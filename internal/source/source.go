// =============================================================================
// CSV to Tally Sync - Input Source
// =============================================================================
//
// This module picks a row reader by file extension and maps the configured
// header names onto transaction records:
//
//   .csv  -> csvparser (streaming, delimiter and charset from csv_settings)
//   .xlsx -> xlsxparser (sheet_name, or the first sheet)
//
// Any failure here is fatal to the run: a missing file, an unknown extension
// or a header row without one of the required columns.
//
// =============================================================================

package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/csvparser"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/xlsxparser"
)

// Load reads every record from cfg.InputPath in file order.
func Load(cfg *config.Config) ([]types.TransactionRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(cfg.InputPath)); ext {
	case ".csv", ".txt":
		return loadCSV(cfg)
	case ".xlsx":
		return loadXLSX(cfg)
	default:
		return nil, fmt.Errorf("unsupported input file type %q (expected .csv or .xlsx)", ext)
	}
}

func loadCSV(cfg *config.Config) ([]types.TransactionRecord, error) {
	parser, err := csvparser.NewStreamingParser(cfg.InputPath, cfg.CSVSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.InputPath, err)
	}
	defer parser.Close()

	if err := checkHeaders(parser.Headers(), cfg.Columns); err != nil {
		return nil, err
	}

	var records []types.TransactionRecord
	for parser.Next() {
		records = append(records, toRecord(parser.RowNumber(), parser.Row(), cfg.Columns))
	}
	if err := parser.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.InputPath, err)
	}

	return records, nil
}

func loadXLSX(cfg *config.Config) ([]types.TransactionRecord, error) {
	sheet, err := xlsxparser.Parse(cfg.InputPath, cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.InputPath, err)
	}

	if err := checkHeaders(sheet.Headers, cfg.Columns); err != nil {
		return nil, err
	}

	records := make([]types.TransactionRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		records = append(records, toRecord(row.Number, row.Fields, cfg.Columns))
	}

	return records, nil
}

// checkHeaders fails when any mapped column is absent from the header row.
func checkHeaders(headers []string, columns config.Columns) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, name := range []string{columns.Date, columns.PartyLedger, columns.SalesLedger, columns.Amount} {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("input is missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func toRecord(row int, fields map[string]string, columns config.Columns) types.TransactionRecord {
	return types.TransactionRecord{
		Row:         row,
		Date:        fields[columns.Date],
		PartyLedger: fields[columns.PartyLedger],
		SalesLedger: fields[columns.SalesLedger],
		Amount:      fields[columns.Amount],
	}
}
