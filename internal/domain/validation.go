package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength          = 255
	MaxVehicleNumberLength = 32
	MaxNoteLength          = 2000
	MaxAmount              = "1000000000000" // 1 trillion
)

var (
	maxAmount            = decimal.RequireFromString(MaxAmount)
	vehicleNumberPattern = regexp.MustCompile(`^[\p{L}\p{N} -]+$`)
)

// validateName adds an error when name is blank or too long.
func validateName(verr *ValidationError, field, name string) {
	name = strings.TrimSpace(name)

	if name == "" {
		verr.Add(field, "is required")
		return
	}

	if len(name) > MaxNameLength {
		verr.Add(field, "must be at most 255 characters")
	}
}

// validateVehicleNumber adds an error for a malformed plate.
func validateVehicleNumber(verr *ValidationError, field, number string) {
	number = strings.TrimSpace(number)
	if number == "" {
		verr.Add(field, "is required")
		return
	}

	if len(number) > MaxVehicleNumberLength || !vehicleNumberPattern.MatchString(number) {
		verr.Add(field, "must be letters, digits, spaces or dashes")
	}
}

// ValidateDelta checks a signed balance change.
func ValidateDelta(delta decimal.Decimal) error {
	verr := &ValidationError{}

	if delta.IsZero() {
		verr.Add("delta", "must not be zero")
	} else if delta.Abs().GreaterThan(maxAmount) {
		verr.Add("delta", "exceeds maximum allowed amount")
	} else if exceedsScale(delta, MoneyScale) {
		verr.Add("delta", "must have at most 2 decimal places")
	}

	return verr.OrNil()
}

// ValidateNote checks a free-text note length.
func ValidateNote(note string) error {
	if len(note) > MaxNoteLength {
		return NewValidationError("note", "must be at most 2000 characters")
	}

	return nil
}
