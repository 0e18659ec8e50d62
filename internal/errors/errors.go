// Package errors defines the domain error taxonomy shared by the ledger
// and order services. Every failure the core surfaces to a calling layer
// is one of these coded errors; storage-engine errors never leak out raw.
package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error codes. Callers dispatch on these rather than on messages.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeLockTimeout         = "LOCK_TIMEOUT"
	CodeNotFound            = "NOT_FOUND"
)

// DomainError is a coded business error with optional context details.
type DomainError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches by code so errors.Is works against the sentinel values below
// even when a context-carrying instance was returned.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Sentinel values for errors.Is checks.
var (
	ErrValidation          = &DomainError{Code: CodeValidation, Message: "validation failed"}
	ErrInsufficientBalance = &DomainError{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrInvalidTransition   = &DomainError{Code: CodeInvalidTransition, Message: "invalid order transition"}
	ErrLockTimeout         = &DomainError{Code: CodeLockTimeout, Message: "timed out waiting for balance lock"}
	ErrNotFound            = &DomainError{Code: CodeNotFound, Message: "not found"}
)

// NewValidation reports a field-level input violation.
func NewValidation(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Details: map[string]interface{}{"field": field},
	}
}

// NewInsufficientBalance carries enough context for the caller to render an
// actionable message: who, how much was attempted, and what was available.
func NewInsufficientBalance(userID uint, attempted, balance decimal.Decimal) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("user %d has %s, attempted %s", userID, balance.StringFixed(2), attempted.StringFixed(2)),
		Details: map[string]interface{}{
			"user_id":   userID,
			"attempted": attempted.StringFixed(2),
			"balance":   balance.StringFixed(2),
		},
	}
}

// NewInvalidTransition reports an operation attempted on an order whose
// status does not allow it.
func NewInvalidTransition(orderID uint, status, operation string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot %s order %d in status %s", operation, orderID, status),
		Details: map[string]interface{}{
			"order_id":  orderID,
			"status":    status,
			"operation": operation,
		},
	}
}

// NewNotFound reports an unknown entity id.
func NewNotFound(entity string, id uint) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %d not found", entity, id),
		Details: map[string]interface{}{"entity": entity, "id": id},
	}
}

// CodeOf returns the domain error code, or "" for non-domain errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
