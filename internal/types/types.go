// =============================================================================
// CSV to Tally Sync - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - source
//   - validation
//   - converter
//   - xmlwriter
//   - syncer
//
// =============================================================================

package types

import "github.com/shopspring/decimal"

// =============================================================================
// INPUT TYPES
// =============================================================================

// TransactionRecord is a single row read from the input file.
// Values are kept exactly as they appear in the file; nothing is parsed here.
type TransactionRecord struct {
	// Row is the 1-indexed row number in the source file.
	// Useful for error reporting.
	Row int

	// Date is the transaction date in dd-mm-yyyy form.
	Date string `validate:"notblank"`

	// PartyLedger is the customer/debtor account name.
	PartyLedger string `validate:"notblank"`

	// SalesLedger is the income account name.
	SalesLedger string `validate:"notblank"`

	// Amount is the invoice amount as a decimal string.
	Amount string `validate:"notblank"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// LedgerRole decides the parent group of a ledger and whether it is a party.
type LedgerRole int

const (
	// RoleParty is a customer ledger under Sundry Debtors.
	RoleParty LedgerRole = iota

	// RoleIncome is an income ledger under Sales Accounts.
	RoleIncome
)

// String returns the role name used in logs and reports.
func (r LedgerRole) String() string {
	switch r {
	case RoleParty:
		return "party"
	case RoleIncome:
		return "income"
	default:
		return "unknown"
	}
}

// LedgerRequest asks the accounting system to create a ledger.
type LedgerRequest struct {
	Name string
	Role LedgerRole
}

// IsParty reports whether the ledger is flagged as a transacting party.
func (l LedgerRequest) IsParty() bool {
	return l.Role == RoleParty
}

// VoucherRequest asks the accounting system to post a two-line sales voucher.
type VoucherRequest struct {
	// Date is the normalized yyyymmdd date.
	Date string

	PartyLedger string
	SalesLedger string

	// Amount is always positive. The party line carries its negation.
	Amount decimal.Decimal
}
