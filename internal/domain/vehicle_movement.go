package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType distinguishes derived movements from standalone ones.
type MovementType string

const (
	MovementTypeInternal MovementType = "internal"
	MovementTypeExternal MovementType = "external"
)

// IsValid checks if the movement type is known.
func (t MovementType) IsValid() bool {
	return t == MovementTypeInternal || t == MovementTypeExternal
}

// VehicleMovement is a logistics record. Internal movements mirror a Sale or Purchase.
type VehicleMovement struct {
	ID                string
	Type              MovementType
	OperationType     OperationType
	OperationID       string
	Date              time.Time
	ClientID          string
	OilTypeID         string
	Quantity          decimal.Decimal
	DriverID          string
	VehicleNumber     string
	LoadingLocation   string
	UnloadingLocation string
	DriverFreight     decimal.NullDecimal
	ClientFreight     decimal.NullDecimal
	Notes             string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the movement invariants.
func (m *VehicleMovement) Validate() error {
	verr := &ValidationError{}

	switch m.Type {
	case MovementTypeInternal:
		if !m.OperationType.IsValid() {
			verr.Add("operation_type", "is required for internal movements")
		}
		if m.OperationID == "" {
			verr.Add("operation_id", "is required for internal movements")
		}
	case MovementTypeExternal:
		if m.OperationType != "" || m.OperationID != "" {
			verr.Add("operation_id", "must be empty for external movements")
		}
	default:
		verr.Add("movement_type", "must be internal or external")
	}

	if !m.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than zero")
	} else if exceedsScale(m.Quantity, QuantityScale) {
		verr.Add("quantity", "must have at most 3 decimal places")
	}

	if m.DriverID == "" {
		verr.Add("driver_id", "is required")
	}

	validateVehicleNumber(verr, "vehicle_number", m.VehicleNumber)

	validateFreight(verr, m.DriverFreight, m.ClientFreight)

	return verr.OrNil()
}

// IsInternal reports whether the movement mirrors a commerce record.
func (m *VehicleMovement) IsInternal() bool {
	return m.Type == MovementTypeInternal
}

// SyncFields returns the fields shared with the commerce record.
func (m *VehicleMovement) SyncFields() SyncFields {
	return SyncFields{
		DriverID:          m.DriverID,
		VehicleNumber:     m.VehicleNumber,
		LoadingLocation:   m.LoadingLocation,
		UnloadingLocation: m.UnloadingLocation,
		DriverFreight:     m.DriverFreight,
		ClientFreight:     m.ClientFreight,
	}
}

// ApplySyncFields overwrites the shared fields.
func (m *VehicleMovement) ApplySyncFields(f SyncFields) {
	m.DriverID = f.DriverID
	m.VehicleNumber = f.VehicleNumber
	m.LoadingLocation = f.LoadingLocation
	m.UnloadingLocation = f.UnloadingLocation
	m.DriverFreight = f.DriverFreight
	m.ClientFreight = f.ClientFreight
}

// NewInternalMovement derives an internal movement from a commerce record.
func NewInternalMovement(id string, r *CommerceRecord, now time.Time) *VehicleMovement {
	m := &VehicleMovement{
		ID:            id,
		Type:          MovementTypeInternal,
		OperationType: r.Kind,
		OperationID:   r.ID,
		Date:          r.Date,
		ClientID:      r.ClientID,
		OilTypeID:     r.OilTypeID,
		Quantity:      r.Quantity,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.ApplySyncFields(r.SyncFields())

	return m
}
