package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier prefixes of the independent id series.
const (
	PrefixClient           = "CL-"
	PrefixDriver           = "DR-"
	PrefixOilType          = "OT-"
	PrefixSale             = "SL-"
	PrefixPurchase         = "BU-"
	PrefixInternalMovement = "VEi-"
	PrefixExternalMovement = "VEe-"
)

const (
	maxPrefixLength = 16
	suffixWidth     = 3
)

// ValidatePrefix checks that a prefix is usable as a series key.
func ValidatePrefix(prefix string) error {
	if prefix == "" || len(prefix) > maxPrefixLength || !strings.HasSuffix(prefix, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}

	for _, r := range strings.TrimSuffix(prefix, "-") {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
		}
	}

	return nil
}

// FormatSequenceID renders prefix + zero-padded counter, e.g. CL-007.
func FormatSequenceID(prefix string, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, suffixWidth, n)
}

// ParseSequenceSuffix extracts the integer suffix of id for prefix.
func ParseSequenceSuffix(prefix, id string) (int64, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("identifier %q does not start with %q", id, prefix)
	}

	suffix := strings.TrimPrefix(id, prefix)
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q has a non-numeric suffix: %w", id, err)
	}

	if n < 0 {
		return 0, fmt.Errorf("identifier %q has a negative suffix", id)
	}

	return n, nil
}

// MovementPrefix returns the id series for a movement type.
func MovementPrefix(t MovementType) string {
	if t == MovementTypeInternal {
		return PrefixInternalMovement
	}

	return PrefixExternalMovement
}
