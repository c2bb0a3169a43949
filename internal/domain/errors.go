package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Domain errors.
var (
	ErrClientNotFound            = errors.New("client not found")
	ErrDriverNotFound            = errors.New("driver not found")
	ErrOilTypeNotFound           = errors.New("oil type not found")
	ErrSaleNotFound              = errors.New("sale not found")
	ErrPurchaseNotFound          = errors.New("purchase not found")
	ErrMovementNotFound          = errors.New("vehicle movement not found")
	ErrTreasuryMovementNotFound  = errors.New("treasury movement not found")
	ErrCompanyAccountNotFound    = errors.New("company account not found")
	ErrInvalidPrefix             = errors.New("invalid sequence prefix")
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrUnknownSubjectType        = errors.New("unknown balance subject type")
	ErrUnexpected                = errors.New("unexpected error")
	ErrValidation                = errors.New("validation failed")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrStorage                   = errors.New("storage error")
	ErrInternalMovementExists    = errors.New("internal movement already exists for operation")
	ErrMovementOperationRequired = errors.New("internal movement requires an operation reference")
	ErrInternalMovementDelete    = errors.New("internal movement is deleted with its sale or purchase")
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level details for rejected input.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError creates a ValidationError for one field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasField reports whether the error names the given field.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}

	return false
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}

	return e
}

// InsufficientBalanceError is returned when a debit exceeds the current balance.
type InsufficientBalanceError struct {
	Subject   Subject
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: %s %s has %s, requested %s",
		ErrInsufficientBalance, e.Subject.Type, e.Subject.ID, e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// StorageError wraps failures of the underlying store. Callers may retry
// the whole logical operation as a fresh transaction.
type StorageError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsTransientStorageError reports whether err is a storage failure worth an automatic retry
// (deadlock, serialization failure, lock timeout).
func IsTransientStorageError(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Transient
	}

	return false
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	switch {
	case errors.Is(err, ErrClientNotFound),
		errors.Is(err, ErrDriverNotFound),
		errors.Is(err, ErrOilTypeNotFound),
		errors.Is(err, ErrSaleNotFound),
		errors.Is(err, ErrPurchaseNotFound),
		errors.Is(err, ErrMovementNotFound),
		errors.Is(err, ErrTreasuryMovementNotFound),
		errors.Is(err, ErrCompanyAccountNotFound):
		return true
	}

	return false
}
