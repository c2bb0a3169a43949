package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the kind of commerce record.
type OperationType string

const (
	OperationSale     OperationType = "sale"
	OperationPurchase OperationType = "purchase"
)

// IsValid checks if the operation type is known.
func (t OperationType) IsValid() bool {
	return t == OperationSale || t == OperationPurchase
}

// Prefix returns the id series of the operation type.
func (t OperationType) Prefix() string {
	if t == OperationPurchase {
		return PrefixPurchase
	}

	return PrefixSale
}

// NotFoundError returns the not-found sentinel of the operation type.
func (t OperationType) NotFoundError() error {
	if t == OperationPurchase {
		return ErrPurchaseNotFound
	}

	return ErrSaleNotFound
}

const (
	QuantityScale = 3
	MoneyScale    = 2
)

// CommerceRecord is a priced Sale or Purchase. For a purchase, ClientID is the supplier.
type CommerceRecord struct {
	Kind              OperationType
	ID                string
	Date              time.Time
	ClientID          string
	OilTypeID         string
	DriverID          string
	VehicleNumber     string
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	Amount            decimal.Decimal
	LoadingLocation   string
	UnloadingLocation string
	DriverFreight     decimal.NullDecimal
	ClientFreight     decimal.NullDecimal
	Description       string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ComputeAmount sets Amount = Quantity x Price rounded half-up to two places.
func (r *CommerceRecord) ComputeAmount() {
	r.Amount = ComputeAmount(r.Quantity, r.Price)
}

// ComputeAmount multiplies quantity by price and rounds to the money scale.
func ComputeAmount(quantity, price decimal.Decimal) decimal.Decimal {
	// Round is half away from zero, which is half-up for non-negative operands.
	return quantity.Mul(price).Round(MoneyScale)
}

// Validate checks the record invariants.
func (r *CommerceRecord) Validate() error {
	verr := &ValidationError{}

	if !r.Kind.IsValid() {
		verr.Add("kind", "must be sale or purchase")
	}

	if r.ClientID == "" {
		if r.Kind == OperationPurchase {
			verr.Add("supplier_id", "is required")
		} else {
			verr.Add("client_id", "is required")
		}
	}

	if r.OilTypeID == "" {
		verr.Add("oil_type_id", "is required")
	}

	if !r.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than zero")
	} else if exceedsScale(r.Quantity, QuantityScale) {
		verr.Add("quantity", "must have at most 3 decimal places")
	}

	if r.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	} else if exceedsScale(r.Price, MoneyScale) {
		verr.Add("price", "must have at most 2 decimal places")
	}

	if r.DriverID != "" {
		validateVehicleNumber(verr, "vehicle_number", r.VehicleNumber)
	}

	validateFreight(verr, r.DriverFreight, r.ClientFreight)

	return verr.OrNil()
}

// NeedsMovement reports whether the record must have an internal vehicle movement.
func (r *CommerceRecord) NeedsMovement() bool {
	return r.DriverID != "" && strings.TrimSpace(r.VehicleNumber) != ""
}

// SyncFields returns the fields shared with the internal vehicle movement.
func (r *CommerceRecord) SyncFields() SyncFields {
	return SyncFields{
		DriverID:          r.DriverID,
		VehicleNumber:     r.VehicleNumber,
		LoadingLocation:   r.LoadingLocation,
		UnloadingLocation: r.UnloadingLocation,
		DriverFreight:     r.DriverFreight,
		ClientFreight:     r.ClientFreight,
	}
}

// ApplySyncFields overwrites the shared fields.
func (r *CommerceRecord) ApplySyncFields(f SyncFields) {
	r.DriverID = f.DriverID
	r.VehicleNumber = f.VehicleNumber
	r.LoadingLocation = f.LoadingLocation
	r.UnloadingLocation = f.UnloadingLocation
	r.DriverFreight = f.DriverFreight
	r.ClientFreight = f.ClientFreight
}

// SyncFields is the canonical field set kept identical between a commerce
// record and its internal vehicle movement.
type SyncFields struct {
	DriverID          string
	VehicleNumber     string
	LoadingLocation   string
	UnloadingLocation string
	DriverFreight     decimal.NullDecimal
	ClientFreight     decimal.NullDecimal
}

// Equal compares two field sets by value.
func (f SyncFields) Equal(o SyncFields) bool {
	return f.DriverID == o.DriverID &&
		f.VehicleNumber == o.VehicleNumber &&
		f.LoadingLocation == o.LoadingLocation &&
		f.UnloadingLocation == o.UnloadingLocation &&
		nullDecimalEqual(f.DriverFreight, o.DriverFreight) &&
		nullDecimalEqual(f.ClientFreight, o.ClientFreight)
}

// ValidateFreight checks driver_freight <= client_freight when both are present
// and that neither is negative or finer than the money scale.
func ValidateFreight(driverFreight, clientFreight decimal.NullDecimal) error {
	verr := &ValidationError{}
	validateFreight(verr, driverFreight, clientFreight)

	return verr.OrNil()
}

func validateFreight(verr *ValidationError, driverFreight, clientFreight decimal.NullDecimal) {
	if driverFreight.Valid {
		if driverFreight.Decimal.IsNegative() {
			verr.Add("driver_freight", "must not be negative")
		} else if exceedsScale(driverFreight.Decimal, MoneyScale) {
			verr.Add("driver_freight", "must have at most 2 decimal places")
		}
	}

	if clientFreight.Valid {
		if clientFreight.Decimal.IsNegative() {
			verr.Add("client_freight", "must not be negative")
		} else if exceedsScale(clientFreight.Decimal, MoneyScale) {
			verr.Add("client_freight", "must have at most 2 decimal places")
		}
	}

	if driverFreight.Valid && clientFreight.Valid && driverFreight.Decimal.GreaterThan(clientFreight.Decimal) {
		verr.Add("driver_freight", "must not exceed client freight")
		verr.Add("client_freight", "must not be less than driver freight")
	}
}

// DefaultFreightRate is the per-unit rate of the fixed freight formula.
var DefaultFreightRate = decimal.NewFromInt(10)

// EstimateFreight applies the fixed freight formula quantity x rate.
func EstimateFreight(quantity, rate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(rate).Round(MoneyScale)
}

func nullDecimalEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}

	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func exceedsScale(d decimal.Decimal, scale int32) bool {
	return !d.Equal(d.Truncate(scale))
}
