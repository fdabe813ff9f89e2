// =============================================================================
// CSV to Tally Sync - Tally Error Types
// =============================================================================
//
// Two ways a call to Tally can fail:
//   - TransportError: no usable response came back (retryable)
//   - RejectionError: Tally answered but refused the import (not retryable)
//
// =============================================================================

package tally

import (
	"errors"
	"fmt"
)

// TransportError means no usable response came back: connection refused,
// timeout, non-2xx status, or any other transport failure.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tally transport %s (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tally transport %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError means the call went through but Tally reported a
// line-level error, such as a duplicate name or a validation failure.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return "tally rejected request: " + e.Message
}

// IsTransportError reports whether err is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejection reports whether err is, or wraps, a RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
