// =============================================================================
// CSV to Tally Sync - Validation Engine
// =============================================================================
//
// This module validates transaction records before anything is sent to the
// accounting endpoint. A record that fails validation is reported once as an
// InputError and never produces a request.
//
// VALIDATION STRATEGY:
//   1. Field-level: required fields are present and not blank (struct tags
//      on types.TransactionRecord, checked by go-playground/validator)
//   2. Value-level: the converter adds date shape and amount errors to the
//      same InputError so that a record reports every problem at once
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single failed field check.
type ValidationError struct {
	// Field is the name of the record field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the source row number (for error reporting).
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d, field '%s': %s (value: '%s')",
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// InputError groups every validation failure of one record.
type InputError struct {
	Row    int
	Errors []*ValidationError
}

// Error implements the error interface.
func (e *InputError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", ve.Field, ve.Message))
	}
	return fmt.Sprintf("invalid record at row %d: %s", e.Row, strings.Join(msgs, "; "))
}

// Add appends a field failure to the error.
func (e *InputError) Add(field, value, rule, message string) {
	e.Errors = append(e.Errors, &ValidationError{
		Field:     field,
		Value:     value,
		Rule:      rule,
		Message:   message,
		RowNumber: e.Row,
	})
}

// OrNil returns nil when no failure was recorded.
func (e *InputError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsInputError reports whether err is, or wraps, an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// =============================================================================
// VALIDATOR
// =============================================================================

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator instance with the custom rules
// registered. It is also used by the config package.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("notblank", notBlank); err != nil {
			panic(fmt.Sprintf("validation: register notblank: %v", err))
		}
	})
	return validate
}

// notBlank fails empty and whitespace-only strings.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidateRecord checks the field-level rules of a record.
//
// RETURNS:
//   - An InputError listing every failed field. It is never nil; callers
//     extend it and call OrNil.
func ValidateRecord(record types.TransactionRecord) *InputError {
	inputErr := &InputError{Row: record.Row}

	err := Validator().Struct(record)
	if err == nil {
		return inputErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		inputErr.Add("record", "", "struct", err.Error())
		return inputErr
	}

	for _, fe := range fieldErrs {
		inputErr.Add(fe.Field(), fmt.Sprint(fe.Value()), fe.Tag(), messageFor(fe.Tag()))
	}

	return inputErr
}

// messageFor maps a validator tag to a readable message.
func messageFor(tag string) string {
	switch tag {
	case "notblank", "required":
		return "is required"
	default:
		return "failed rule " + tag
	}
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats input errors for display or logging.
func FormatErrors(errs []*InputError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d invalid record(s):\n\n", len(errs)))

	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
