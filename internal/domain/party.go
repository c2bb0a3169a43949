package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer or supplier with a running balance.
type Client struct {
	ID        string
	Name      string
	Phone     string
	Address   string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the editable client fields.
func (c *Client) Validate() error {
	verr := &ValidationError{}
	validateName(verr, "name", c.Name)

	return verr.OrNil()
}

// Driver is a truck driver with a vehicle and a balance.
type Driver struct {
	ID            string
	Name          string
	Phone         string
	VehicleNumber string
	Balance       decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the editable driver fields.
func (d *Driver) Validate() error {
	verr := &ValidationError{}
	validateName(verr, "name", d.Name)
	validateVehicleNumber(verr, "vehicle_number", d.VehicleNumber)

	return verr.OrNil()
}

// OilType is a traded product.
type OilType struct {
	ID              string
	Name            string
	PricePerLiter   decimal.Decimal
	CurrentQuantity decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the oil type fields.
func (o *OilType) Validate() error {
	verr := &ValidationError{}
	validateName(verr, "name", o.Name)
	if o.PricePerLiter.IsNegative() {
		verr.Add("price_per_liter", "must not be negative")
	}
	if o.CurrentQuantity.IsNegative() {
		verr.Add("current_quantity", "must not be negative")
	}

	return verr.OrNil()
}

// CompanyAccountID is the id of the single company account row.
const CompanyAccountID = "main"

// CompanyAccount holds the company's own balance.
type CompanyAccount struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}
