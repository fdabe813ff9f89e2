// =============================================================================
// CSV to Tally Sync - XLSX Parser
// =============================================================================
//
// This module reads transaction exports saved as Excel workbooks. The first
// row of the chosen sheet holds the column headers; every following non-empty
// row is one transaction.
//
//   | Date       | PartyLedger | SalesLedger  | Amount |
//   |------------|-------------|--------------|--------|
//   | 01-04-2024 | Acme Corp   | Retail Sales | 1500   |
//
// Cells are read with their display format applied, so a date column must be
// stored as text or formatted as dd-mm-yyyy.
//
// =============================================================================

package xlsxparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/csvparser"
)

// =============================================================================
// SHEET STRUCTURE
// =============================================================================

// Sheet is the parsed content of one worksheet.
type Sheet struct {
	// Name is the worksheet that was read.
	Name string

	// Headers contains the cleaned header row.
	Headers []string

	// Rows contains the data rows in sheet order.
	Rows []Row
}

// Row is one data row of a worksheet.
type Row struct {
	// Number is the 1-indexed row number in the sheet.
	Number int

	// Fields maps header -> trimmed cell value.
	Fields map[string]string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a worksheet from an XLSX file.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - sheetName: The worksheet to read. Empty selects the first sheet.
//
// RETURNS:
//   - The parsed sheet.
//   - An error if the file cannot be opened or the sheet is missing or empty.
func Parse(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheetName = sheets[0]
	}

	index, err := f.GetSheetIndex(sheetName)
	if err != nil || index < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheetName)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	return parseRows(sheetName, rows)
}

// parseRows turns raw sheet rows into a Sheet.
func parseRows(sheetName string, rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	sheet := &Sheet{
		Name:    sheetName,
		Headers: csvparser.CleanHeaders(rows[0]),
	}

	for i := 1; i < len(rows); i++ {
		if csvparser.IsRowEmpty(rows[i]) {
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{
			Number: i + 1,
			Fields: csvparser.RowToMap(sheet.Headers, rows[i]),
		})
	}

	return sheet, nil
}
