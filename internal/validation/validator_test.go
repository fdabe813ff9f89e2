package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name   string
		record types.TransactionRecord
		fields []string
	}{
		{
			name:   "complete",
			record: types.TransactionRecord{Row: 2, Date: "01-04-2024", PartyLedger: "Acme", SalesLedger: "Sales", Amount: "1"},
		},
		{
			name:   "blank party",
			record: types.TransactionRecord{Row: 3, Date: "01-04-2024", PartyLedger: "   ", SalesLedger: "Sales", Amount: "1"},
			fields: []string{"PartyLedger"},
		},
		{
			name:   "everything missing",
			record: types.TransactionRecord{Row: 4},
			fields: []string{"Date", "PartyLedger", "SalesLedger", "Amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputErr := ValidateRecord(tt.record)
			require.NotNil(t, inputErr)

			var got []string
			for _, ve := range inputErr.Errors {
				got = append(got, ve.Field)
				assert.Equal(t, tt.record.Row, ve.RowNumber)
				assert.Equal(t, "is required", ve.Message)
			}
			assert.Equal(t, tt.fields, got)

			if len(tt.fields) == 0 {
				assert.NoError(t, inputErr.OrNil())
			} else {
				assert.Error(t, inputErr.OrNil())
			}
		})
	}
}

func TestInputError(t *testing.T) {
	inputErr := &InputError{Row: 7}
	inputErr.Add("Date", "2024/04/01", "ddmmyyyy", "bad date")
	inputErr.Add("Amount", "-1", "positive_decimal", "must be positive")

	assert.Equal(t, "invalid record at row 7: Date: bad date; Amount: must be positive", inputErr.Error())
	assert.Equal(t, "row 7, field 'Date': bad date (value: '2024/04/01')", inputErr.Errors[0].Error())

	wrapped := fmt.Errorf("sync: %w", inputErr.OrNil())
	assert.True(t, IsInputError(wrapped))
	assert.False(t, IsInputError(errors.New("other")))

	var nilErr *InputError
	assert.NoError(t, nilErr.OrNil())
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	inputErr := &InputError{Row: 2}
	inputErr.Add("Date", "", "notblank", "is required")

	out := FormatErrors([]*InputError{inputErr})
	assert.Contains(t, out, "1 invalid record(s)")
	assert.Contains(t, out, "1. invalid record at row 2: Date: is required")
}

func TestValidator_NotBlank(t *testing.T) {
	var v = Validator()
	require.NotPanics(t, func() { v = Validator() })
	assert.Same(t, v, Validator())

	assert.NoError(t, v.Var("Acme", "notblank"))
	assert.Error(t, v.Var(" \t ", "notblank"))
	assert.Error(t, v.Var("", "notblank"))
}
