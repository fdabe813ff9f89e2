// =============================================================================
// CSV to Tally Sync - Converter Module
// =============================================================================
//
// This module turns one transaction record into the three typed requests the
// accounting system needs:
//   1. A party ledger creation request (customer under Sundry Debtors)
//   2. A sales ledger creation request (income under Sales Accounts)
//   3. A sales voucher request dated in yyyymmdd form
//
// The record is validated as a whole first. Every problem found (blank
// fields, malformed date, bad amount) is collected into one InputError so the
// caller can report the record once and move on.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Requests holds everything derived from a single record.
// Nothing here is cached; every record regenerates its requests.
type Requests struct {
	Party   types.LedgerRequest
	Sales   types.LedgerRequest
	Voucher types.VoucherRequest
}

// Ledgers returns the ledger requests in the order they must be sent.
func (r Requests) Ledgers() []types.LedgerRequest {
	return []types.LedgerRequest{r.Party, r.Sales}
}

// =============================================================================
// CONVERSION
// =============================================================================

// Convert validates a record and derives its requests.
//
// RETURNS:
//   - The derived requests.
//   - A *validation.InputError when any field is unusable.
//
// Ledger names are passed through untouched (escaping belongs to the payload
// builder). Only the date is normalized.
func Convert(record types.TransactionRecord) (Requests, error) {
	inputErr := validation.ValidateRecord(record)

	date := ""
	if strings.TrimSpace(record.Date) != "" {
		normalized, err := NormalizeDate(record.Date)
		if err != nil {
			inputErr.Add("Date", record.Date, "ddmmyyyy", err.Error())
		}
		date = normalized
	}

	var amount decimal.Decimal
	if strings.TrimSpace(record.Amount) != "" {
		parsed, err := ParseAmount(record.Amount)
		if err != nil {
			inputErr.Add("Amount", record.Amount, "positive_decimal", err.Error())
		}
		amount = parsed
	}

	if err := inputErr.OrNil(); err != nil {
		return Requests{}, err
	}

	return Requests{
		Party: types.LedgerRequest{Name: record.PartyLedger, Role: types.RoleParty},
		Sales: types.LedgerRequest{Name: record.SalesLedger, Role: types.RoleIncome},
		Voucher: types.VoucherRequest{
			Date:        date,
			PartyLedger: record.PartyLedger,
			SalesLedger: record.SalesLedger,
			Amount:      amount,
		},
	}, nil
}

// groupedAmount matches an amount whose integer part uses comma grouping,
// either thousands ("1,234,567.50") or lakh ("12,34,567.50").
var groupedAmount = regexp.MustCompile(`^[-+]?(\d{1,3}(,\d{3})+|\d{1,2}(,\d{2})+,\d{3})(\.\d+)?$`)

// ParseAmount parses a positive decimal amount.
// Grouping commas are dropped ("1,500.00" -> 1500); commas anywhere else make
// the amount invalid ("1,5", "1.500,00").
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	if strings.Contains(cleaned, ",") {
		if !groupedAmount.MatchString(cleaned) {
			return decimal.Decimal{}, fmt.Errorf("amount %q has misplaced digit grouping", value)
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q is not a number", value)
	}

	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount %q must be greater than zero", value)
	}

	return amount, nil
}
