package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates that an operation would violate a structural
// invariant, e.g. deleting an account that journal lines still reference.
var ErrConflict = errors.New("conflict with existing state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ReasonCode is a machine-checkable code attached to validation failures so
// callers can branch without parsing error strings.
type ReasonCode string

const (
	ReasonUnbalancedEntry   ReasonCode = "UNBALANCED_ENTRY"
	ReasonInvalidAccount    ReasonCode = "INVALID_ACCOUNT"
	ReasonDuplicateName     ReasonCode = "DUPLICATE_NAME"
	ReasonEmptyName         ReasonCode = "EMPTY_NAME"
	ReasonTooFewLines       ReasonCode = "TOO_FEW_LINES"
	ReasonNonPositiveAmount ReasonCode = "NON_POSITIVE_AMOUNT"

	// ReasonUnsupportedCurrency rejects accounts and entries whose currency
	// differs from the ledger's configured currency. A ledger instance is
	// single-currency; mixed-currency aggregation is undefined.
	ReasonUnsupportedCurrency ReasonCode = "UNSUPPORTED_CURRENCY"
)

// ValidationError wraps ErrValidation with a reason code and detail message.
// It satisfies errors.Is(err, ErrValidation).
type ValidationError struct {
	Reason ReasonCode
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a formatted detail message.
func NewValidationError(reason ReasonCode, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the reason code from an error chain, or "" if the error
// is not a ValidationError.
func ReasonOf(err error) ReasonCode {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// ErrInvariantViolation is the fatal/diagnostic class for internal
// self-check failures such as a trial balance that does not balance. It
// signals a bug in the ledger's acceptance logic, not bad user input, and
// must never be mapped to a user-facing validation response.
var ErrInvariantViolation = errors.New("ledger invariant violation")

// NewInvariantViolation wraps ErrInvariantViolation with diagnostic detail.
func NewInvariantViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
