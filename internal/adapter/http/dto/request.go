package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// CreateClientRequest represents a request to create a client.
type CreateClientRequest struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateClientRequest) ToUseCaseInput() usecase.CreateClientInput {
	return usecase.CreateClientInput{
		Name:           r.Name,
		Phone:          r.Phone,
		Address:        r.Address,
		OpeningBalance: r.OpeningBalance,
	}
}

// UpdateClientRequest represents a request to edit client details.
type UpdateClientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateClientRequest) ToUseCaseInput() usecase.UpdateClientInput {
	return usecase.UpdateClientInput{
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
	}
}

// AdjustBalanceRequest sets a balance to an absolute value.
type AdjustBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
	Note    string          `json:"note"`
}

// CreateDriverRequest represents a request to create a driver.
type CreateDriverRequest struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	VehicleNumber  string          `json:"vehicle_number"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDriverRequest) ToUseCaseInput() usecase.CreateDriverInput {
	return usecase.CreateDriverInput{
		Name:           r.Name,
		Phone:          r.Phone,
		VehicleNumber:  r.VehicleNumber,
		OpeningBalance: r.OpeningBalance,
	}
}

// UpdateDriverRequest represents a request to edit driver details.
type UpdateDriverRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicle_number"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateDriverRequest) ToUseCaseInput() usecase.UpdateDriverInput {
	return usecase.UpdateDriverInput{
		Name:          r.Name,
		Phone:         r.Phone,
		VehicleNumber: r.VehicleNumber,
	}
}

// CreateOilTypeRequest represents a request to create an oil type.
type CreateOilTypeRequest struct {
	Name            string          `json:"name"`
	PricePerLiter   decimal.Decimal `json:"price_per_liter"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateOilTypeRequest) ToUseCaseInput() usecase.CreateOilTypeInput {
	return usecase.CreateOilTypeInput{
		Name:            r.Name,
		PricePerLiter:   r.PricePerLiter,
		CurrentQuantity: r.CurrentQuantity,
	}
}

// UpdateOilTypeRequest replaces the editable fields of an oil type.
type UpdateOilTypeRequest struct {
	Name            string          `json:"name"`
	PricePerLiter   decimal.Decimal `json:"price_per_liter"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateOilTypeRequest) ToUseCaseInput() usecase.UpdateOilTypeInput {
	return usecase.UpdateOilTypeInput{
		Name:            r.Name,
		PricePerLiter:   r.PricePerLiter,
		CurrentQuantity: r.CurrentQuantity,
	}
}

// CommerceRequest is the body of sale and purchase writes. For purchases
// client_id names the supplier.
type CommerceRequest struct {
	Date              Date                `json:"date"`
	ClientID          string              `json:"client_id"`
	OilTypeID         string              `json:"oil_type_id"`
	DriverID          string              `json:"driver_id,omitempty"`
	VehicleNumber     string              `json:"vehicle_number,omitempty"`
	Quantity          decimal.Decimal     `json:"quantity"`
	Price             decimal.Decimal     `json:"price"`
	LoadingLocation   string              `json:"loading_location,omitempty"`
	UnloadingLocation string              `json:"unloading_location,omitempty"`
	DriverFreight     decimal.NullDecimal `json:"driver_freight"`
	ClientFreight     decimal.NullDecimal `json:"client_freight"`
	Description       string              `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CommerceRequest) ToUseCaseInput() usecase.CommerceInput {
	return usecase.CommerceInput{
		Date:              r.Date.Time,
		ClientID:          r.ClientID,
		OilTypeID:         r.OilTypeID,
		DriverID:          r.DriverID,
		VehicleNumber:     r.VehicleNumber,
		Quantity:          r.Quantity,
		Price:             r.Price,
		LoadingLocation:   r.LoadingLocation,
		UnloadingLocation: r.UnloadingLocation,
		DriverFreight:     r.DriverFreight,
		ClientFreight:     r.ClientFreight,
		Description:       r.Description,
	}
}

// MovementRequest is the body of vehicle movement writes.
type MovementRequest struct {
	Type              domain.MovementType  `json:"movement_type"`
	OperationType     domain.OperationType `json:"operation_type,omitempty"`
	OperationID       string               `json:"operation_id,omitempty"`
	Date              Date                 `json:"date"`
	ClientID          string               `json:"client_id,omitempty"`
	OilTypeID         string               `json:"oil_type_id,omitempty"`
	Quantity          decimal.Decimal      `json:"quantity"`
	DriverID          string               `json:"driver_id"`
	VehicleNumber     string               `json:"vehicle_number,omitempty"`
	LoadingLocation   string               `json:"loading_location,omitempty"`
	UnloadingLocation string               `json:"unloading_location,omitempty"`
	DriverFreight     decimal.NullDecimal  `json:"driver_freight"`
	ClientFreight     decimal.NullDecimal  `json:"client_freight"`
	Notes             string               `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *MovementRequest) ToUseCaseInput() usecase.MovementInput {
	return usecase.MovementInput{
		Type:              r.Type,
		OperationType:     r.OperationType,
		OperationID:       r.OperationID,
		Date:              r.Date.Time,
		ClientID:          r.ClientID,
		OilTypeID:         r.OilTypeID,
		Quantity:          r.Quantity,
		DriverID:          r.DriverID,
		VehicleNumber:     r.VehicleNumber,
		LoadingLocation:   r.LoadingLocation,
		UnloadingLocation: r.UnloadingLocation,
		DriverFreight:     r.DriverFreight,
		ClientFreight:     r.ClientFreight,
		Notes:             r.Notes,
	}
}

// PostTreasuryRequest represents a treasury posting.
type PostTreasuryRequest struct {
	Source            domain.AccountSource   `json:"source"`
	TransactionType   domain.TransactionType `json:"transaction_type"`
	SubjectID         string                 `json:"subject_id,omitempty"`
	Amount            decimal.Decimal        `json:"amount"`
	PaymentMethod     domain.PaymentMethod   `json:"payment_method"`
	PaymentDetails    string                 `json:"payment_details,omitempty"`
	Note              string                 `json:"note,omitempty"`
	Date              Date                   `json:"date"`
	RelatedSaleID     string                 `json:"related_sale_id,omitempty"`
	RelatedPurchaseID string                 `json:"related_purchase_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostTreasuryRequest) ToUseCaseInput() usecase.PostInput {
	return usecase.PostInput{
		Source:            r.Source,
		TransactionType:   r.TransactionType,
		SubjectID:         r.SubjectID,
		Amount:            r.Amount,
		PaymentMethod:     r.PaymentMethod,
		PaymentDetails:    r.PaymentDetails,
		Note:              r.Note,
		Date:              r.Date.Time,
		RelatedSaleID:     r.RelatedSaleID,
		RelatedPurchaseID: r.RelatedPurchaseID,
	}
}

// BalanceChangeRequest applies a signed delta to one balance.
type BalanceChangeRequest struct {
	SubjectType domain.SubjectType `json:"subject_type"`
	SubjectID   string             `json:"subject_id"`
	Delta       decimal.Decimal    `json:"delta"`
	Note        string             `json:"note"`
	NoOverdraft bool               `json:"no_overdraft"`
}

// ToUseCaseInput converts to use case input. The actor comes from the
// request context.
func (r *BalanceChangeRequest) ToUseCaseInput() usecase.ApplyChangeInput {
	return usecase.ApplyChangeInput{
		Subject:     domain.Subject{Type: r.SubjectType, ID: r.SubjectID},
		Delta:       r.Delta,
		Note:        r.Note,
		NoOverdraft: r.NoOverdraft,
	}
}
