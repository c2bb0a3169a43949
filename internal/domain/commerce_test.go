package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validSale() *CommerceRecord {
	return &CommerceRecord{
		Kind:      OperationSale,
		ClientID:  "CL-001",
		OilTypeID: "OT-001",
		Quantity:  decimal.RequireFromString("10.000"),
		Price:     decimal.RequireFromString("5.00"),
	}
}

func TestComputeAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		quantity string
		price    string
		want     string
	}{
		{"10.000", "5.00", "50"},
		{"1.005", "1.00", "1.01"},
		{"0.333", "0.15", "0.05"},
		{"2.125", "3.30", "7.01"},
		{"1.001", "0.05", "0.05"},
	}

	for _, tt := range tests {
		got := ComputeAmount(decimal.RequireFromString(tt.quantity), decimal.RequireFromString(tt.price))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ComputeAmount(%s, %s) = %s, want %s", tt.quantity, tt.price, got, tt.want)
		}
	}
}

func TestCommerceRecordComputeAmountOverridesCaller(t *testing.T) {
	t.Parallel()

	r := validSale()
	r.Amount = decimal.NewFromInt(999)
	r.ComputeAmount()

	if r.Amount.StringFixed(2) != "50.00" {
		t.Fatalf("expected 50.00, got %s", r.Amount.StringFixed(2))
	}
}

func TestCommerceRecordValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		if err := validSale().Validate(); err != nil {
			t.Fatalf("expected valid record, got %v", err)
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		r := validSale()
		r.Quantity = decimal.Zero
		assertFieldError(t, r.Validate(), "quantity")
	})

	t.Run("quantity with four places", func(t *testing.T) {
		r := validSale()
		r.Quantity = decimal.RequireFromString("1.0001")
		assertFieldError(t, r.Validate(), "quantity")
	})

	t.Run("negative price", func(t *testing.T) {
		r := validSale()
		r.Price = decimal.NewFromInt(-1)
		assertFieldError(t, r.Validate(), "price")
	})

	t.Run("freight ordering names both fields", func(t *testing.T) {
		r := validSale()
		r.DriverFreight = decimal.NewNullDecimal(decimal.NewFromInt(60))
		r.ClientFreight = decimal.NewNullDecimal(decimal.NewFromInt(50))
		err := r.Validate()
		assertFieldError(t, err, "driver_freight")
		assertFieldError(t, err, "client_freight")
	})

	t.Run("freight with three places", func(t *testing.T) {
		r := validSale()
		r.DriverFreight = decimal.NewNullDecimal(decimal.RequireFromString("1.005"))
		r.ClientFreight = decimal.NewNullDecimal(decimal.RequireFromString("2.0049"))
		err := r.Validate()
		assertFieldError(t, err, "driver_freight")
		assertFieldError(t, err, "client_freight")
	})

	t.Run("equal freight allowed", func(t *testing.T) {
		r := validSale()
		r.DriverFreight = decimal.NewNullDecimal(decimal.NewFromInt(50))
		r.ClientFreight = decimal.NewNullDecimal(decimal.NewFromInt(50))
		if err := r.Validate(); err != nil {
			t.Fatalf("expected valid record, got %v", err)
		}
	})

	t.Run("single freight skips ordering", func(t *testing.T) {
		r := validSale()
		r.DriverFreight = decimal.NewNullDecimal(decimal.NewFromInt(60))
		if err := r.Validate(); err != nil {
			t.Fatalf("expected valid record, got %v", err)
		}
	})

	t.Run("purchase requires supplier", func(t *testing.T) {
		r := validSale()
		r.Kind = OperationPurchase
		r.ClientID = ""
		assertFieldError(t, r.Validate(), "supplier_id")
	})

	t.Run("driver requires vehicle", func(t *testing.T) {
		r := validSale()
		r.DriverID = "DR-001"
		assertFieldError(t, r.Validate(), "vehicle_number")
	})
}

func TestSyncFieldsEqual(t *testing.T) {
	t.Parallel()

	a := SyncFields{
		DriverID:      "DR-001",
		VehicleNumber: "ABC-1",
		DriverFreight: decimal.NewNullDecimal(decimal.RequireFromString("10.0")),
	}
	b := a
	b.DriverFreight = decimal.NewNullDecimal(decimal.RequireFromString("10.00"))

	if !a.Equal(b) {
		t.Fatalf("expected equal values with different exponents to compare equal")
	}

	b.ClientFreight = decimal.NewNullDecimal(decimal.Zero)
	if a.Equal(b) {
		t.Fatalf("expected null and zero freight to differ")
	}
}

func TestNeedsMovement(t *testing.T) {
	t.Parallel()

	r := validSale()
	if r.NeedsMovement() {
		t.Fatalf("record without driver must not need a movement")
	}

	r.DriverID = "DR-001"
	r.VehicleNumber = "ABC-1"
	if !r.NeedsMovement() {
		t.Fatalf("record with driver and vehicle must need a movement")
	}
}

func TestValidateFreight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		driver decimal.NullDecimal
		client decimal.NullDecimal
		field  string
	}{
		{"both absent", decimal.NullDecimal{}, decimal.NullDecimal{}, ""},
		{"two places", decimal.NewNullDecimal(decimal.RequireFromString("1.25")), decimal.NewNullDecimal(decimal.RequireFromString("2.50")), ""},
		{"trailing zeros", decimal.NewNullDecimal(decimal.RequireFromString("1.2500")), decimal.NullDecimal{}, ""},
		{"driver three places", decimal.NewNullDecimal(decimal.RequireFromString("1.005")), decimal.NullDecimal{}, "driver_freight"},
		{"client four places", decimal.NullDecimal{}, decimal.NewNullDecimal(decimal.RequireFromString("2.0049")), "client_freight"},
		{"negative driver", decimal.NewNullDecimal(decimal.NewFromInt(-1)), decimal.NullDecimal{}, "driver_freight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFreight(tt.driver, tt.client)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestEstimateFreight(t *testing.T) {
	t.Parallel()

	got := EstimateFreight(decimal.RequireFromString("12.5"), DefaultFreightRate)
	if !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected 125, got %s", got)
	}
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if !verr.HasField(field) {
		t.Fatalf("expected error on %s, got %v", field, verr.Fields)
	}
}
