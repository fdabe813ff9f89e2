// =============================================================================
// CSV to Tally Sync - Date Normalizer
// =============================================================================
//
// Source files carry dates as dd-mm-yyyy. Tally imports them as yyyymmdd.
//
// =============================================================================

package converter

import (
	"fmt"
	"strings"
)

// dateSeparator separates day, month and year in source dates.
const dateSeparator = "-"

// NormalizeDate converts a dd-mm-yyyy date into the yyyymmdd form the
// accounting system expects.
//
// Component widths are kept as supplied; no padding is added and no calendar
// check is made, so "31-02-2024" passes and is left for the accounting system
// to reject.
//
// EXAMPLE:
//
//	Input:  "05-03-2024"
//	Output: "20240305"
func NormalizeDate(value string) (string, error) {
	parts := strings.Split(value, dateSeparator)
	if len(parts) != 3 {
		return "", fmt.Errorf("date %q is not in dd-mm-yyyy form", value)
	}

	day, month, year := parts[0], parts[1], parts[2]
	if day == "" || month == "" || year == "" {
		return "", fmt.Errorf("date %q has an empty component", value)
	}

	return year + month + day, nil
}
