package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// ClientResponse represents a client in API responses.
type ClientResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ClientFromDomain converts a domain client to a response.
func ClientFromDomain(c *domain.Client) *ClientResponse {
	return &ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		Balance:   c.Balance,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ClientsFromDomain converts domain clients to responses.
func ClientsFromDomain(clients []*domain.Client) []*ClientResponse {
	result := make([]*ClientResponse, len(clients))
	for i, c := range clients {
		result[i] = ClientFromDomain(c)
	}
	return result
}

// DriverResponse represents a driver in API responses.
type DriverResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	VehicleNumber string          `json:"vehicle_number,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DriverFromDomain converts a domain driver to a response.
func DriverFromDomain(d *domain.Driver) *DriverResponse {
	return &DriverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		VehicleNumber: d.VehicleNumber,
		Balance:       d.Balance,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// DriversFromDomain converts domain drivers to responses.
func DriversFromDomain(drivers []*domain.Driver) []*DriverResponse {
	result := make([]*DriverResponse, len(drivers))
	for i, d := range drivers {
		result[i] = DriverFromDomain(d)
	}
	return result
}

// OilTypeResponse represents an oil type in API responses.
type OilTypeResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PricePerLiter   decimal.Decimal `json:"price_per_liter"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
}

// OilTypesFromDomain converts domain oil types to responses.
func OilTypesFromDomain(oilTypes []*domain.OilType) []*OilTypeResponse {
	result := make([]*OilTypeResponse, len(oilTypes))
	for i, o := range oilTypes {
		result[i] = OilTypeFromDomain(o)
	}
	return result
}

// OilTypeFromDomain converts a domain oil type to a response.
func OilTypeFromDomain(o *domain.OilType) *OilTypeResponse {
	return &OilTypeResponse{
		ID:              o.ID,
		Name:            o.Name,
		PricePerLiter:   o.PricePerLiter,
		CurrentQuantity: o.CurrentQuantity,
	}
}

// CommerceResponse represents a sale or purchase.
type CommerceResponse struct {
	ID                string               `json:"id"`
	Kind              domain.OperationType `json:"kind"`
	Date              Date                 `json:"date"`
	ClientID          string               `json:"client_id"`
	OilTypeID         string               `json:"oil_type_id"`
	DriverID          string               `json:"driver_id,omitempty"`
	VehicleNumber     string               `json:"vehicle_number,omitempty"`
	Quantity          decimal.Decimal      `json:"quantity"`
	Price             decimal.Decimal      `json:"price"`
	Amount            decimal.Decimal      `json:"amount"`
	LoadingLocation   string               `json:"loading_location,omitempty"`
	UnloadingLocation string               `json:"unloading_location,omitempty"`
	DriverFreight     decimal.NullDecimal  `json:"driver_freight"`
	ClientFreight     decimal.NullDecimal  `json:"client_freight"`
	Description       string               `json:"description,omitempty"`
	CreatedBy         string               `json:"created_by"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// CommerceFromDomain converts a domain record to a response.
func CommerceFromDomain(r *domain.CommerceRecord) *CommerceResponse {
	return &CommerceResponse{
		ID:                r.ID,
		Kind:              r.Kind,
		Date:              NewDate(r.Date),
		ClientID:          r.ClientID,
		OilTypeID:         r.OilTypeID,
		DriverID:          r.DriverID,
		VehicleNumber:     r.VehicleNumber,
		Quantity:          r.Quantity,
		Price:             r.Price,
		Amount:            r.Amount,
		LoadingLocation:   r.LoadingLocation,
		UnloadingLocation: r.UnloadingLocation,
		DriverFreight:     r.DriverFreight,
		ClientFreight:     r.ClientFreight,
		Description:       r.Description,
		CreatedBy:         r.CreatedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// CommerceListFromDomain converts domain records to responses.
func CommerceListFromDomain(records []*domain.CommerceRecord) []*CommerceResponse {
	result := make([]*CommerceResponse, len(records))
	for i, r := range records {
		result[i] = CommerceFromDomain(r)
	}
	return result
}

// CommerceWriteResponse is returned by sale and purchase writes. Sync reports
// what happened to the linked internal movement.
type CommerceWriteResponse struct {
	*CommerceResponse
	Sync usecase.SyncOutcome `json:"movement_sync"`
}

// CommerceWriteFromResult converts a use case result to a response.
func CommerceWriteFromResult(res *usecase.CommerceResult) *CommerceWriteResponse {
	return &CommerceWriteResponse{
		CommerceResponse: CommerceFromDomain(res.Record),
		Sync:             res.Sync,
	}
}

// MovementResponse represents a vehicle movement.
type MovementResponse struct {
	ID                string               `json:"id"`
	Type              domain.MovementType  `json:"movement_type"`
	OperationType     domain.OperationType `json:"operation_type,omitempty"`
	OperationID       string               `json:"operation_id,omitempty"`
	Date              Date                 `json:"date"`
	ClientID          string               `json:"client_id,omitempty"`
	OilTypeID         string               `json:"oil_type_id,omitempty"`
	Quantity          decimal.Decimal      `json:"quantity"`
	DriverID          string               `json:"driver_id"`
	VehicleNumber     string               `json:"vehicle_number"`
	LoadingLocation   string               `json:"loading_location,omitempty"`
	UnloadingLocation string               `json:"unloading_location,omitempty"`
	DriverFreight     decimal.NullDecimal  `json:"driver_freight"`
	ClientFreight     decimal.NullDecimal  `json:"client_freight"`
	Notes             string               `json:"notes,omitempty"`
	CreatedBy         string               `json:"created_by"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Sync              usecase.SyncOutcome  `json:"commerce_sync,omitempty"`
}

// MovementFromDomain converts a domain movement to a response.
func MovementFromDomain(m *domain.VehicleMovement) *MovementResponse {
	return &MovementResponse{
		ID:                m.ID,
		Type:              m.Type,
		OperationType:     m.OperationType,
		OperationID:       m.OperationID,
		Date:              NewDate(m.Date),
		ClientID:          m.ClientID,
		OilTypeID:         m.OilTypeID,
		Quantity:          m.Quantity,
		DriverID:          m.DriverID,
		VehicleNumber:     m.VehicleNumber,
		LoadingLocation:   m.LoadingLocation,
		UnloadingLocation: m.UnloadingLocation,
		DriverFreight:     m.DriverFreight,
		ClientFreight:     m.ClientFreight,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.VehicleMovement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// MovementWriteFromResult converts a use case result to a response.
func MovementWriteFromResult(res *usecase.MovementResult) *MovementResponse {
	resp := MovementFromDomain(res.Movement)
	resp.Sync = res.Sync
	return resp
}

// FreightEstimateResponse is the body of a freight estimate.
type FreightEstimateResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Freight  decimal.Decimal `json:"freight"`
}

// TreasuryMovementResponse represents a treasury movement.
type TreasuryMovementResponse struct {
	ID                int64                  `json:"id"`
	Date              Date                   `json:"date"`
	TransactionType   domain.TransactionType `json:"transaction_type"`
	MovementSource    domain.MovementSource  `json:"movement_source"`
	PaidAmount        decimal.Decimal        `json:"paid_amount"`
	PaymentMethod     domain.PaymentMethod   `json:"payment_method"`
	PaymentDetails    string                 `json:"payment_details,omitempty"`
	Description       string                 `json:"description"`
	Note              string                 `json:"note,omitempty"`
	RelatedClientID   string                 `json:"related_client_id,omitempty"`
	RelatedDriverID   string                 `json:"related_driver_id,omitempty"`
	RelatedSaleID     string                 `json:"related_sale_id,omitempty"`
	RelatedPurchaseID string                 `json:"related_purchase_id,omitempty"`
	CreatedBy         string                 `json:"created_by"`
	CreatedAt         time.Time              `json:"created_at"`
}

// TreasuryMovementFromDomain converts a domain treasury movement to a response.
func TreasuryMovementFromDomain(m *domain.TreasuryMovement) *TreasuryMovementResponse {
	return &TreasuryMovementResponse{
		ID:                m.ID,
		Date:              NewDate(m.Date),
		TransactionType:   m.TransactionType,
		MovementSource:    m.MovementSource,
		PaidAmount:        m.PaidAmount,
		PaymentMethod:     m.PaymentMethod,
		PaymentDetails:    m.PaymentDetails,
		Description:       m.Description,
		Note:              m.Note,
		RelatedClientID:   m.RelatedClientID,
		RelatedDriverID:   m.RelatedDriverID,
		RelatedSaleID:     m.RelatedSaleID,
		RelatedPurchaseID: m.RelatedPurchaseID,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
	}
}

// TreasuryListResponse carries a page of movements and the totals over it.
type TreasuryListResponse struct {
	Movements []*TreasuryMovementResponse `json:"movements"`
	Income    decimal.Decimal             `json:"total_income"`
	Expense   decimal.Decimal             `json:"total_expense"`
	Net       decimal.Decimal             `json:"net"`
}

// TreasuryListFromResult converts a use case list to a response.
func TreasuryListFromResult(list *usecase.TreasuryList) *TreasuryListResponse {
	movements := make([]*TreasuryMovementResponse, len(list.Movements))
	for i, m := range list.Movements {
		movements[i] = TreasuryMovementFromDomain(m)
	}

	return &TreasuryListResponse{
		Movements: movements,
		Income:    list.Totals.Income,
		Expense:   list.Totals.Expense,
		Net:       list.Totals.Net,
	}
}

// BalanceLogResponse represents one balance change log entry.
type BalanceLogResponse struct {
	ID              string             `json:"id"`
	SubjectType     domain.SubjectType `json:"subject_type"`
	SubjectID       string             `json:"subject_id"`
	PreviousBalance decimal.Decimal    `json:"previous_balance"`
	NewBalance      decimal.Decimal    `json:"new_balance"`
	ChangeAmount    decimal.Decimal    `json:"change_amount"`
	ActorID         string             `json:"actor_id"`
	Note            string             `json:"note,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// BalanceLogFromDomain converts a domain log entry to a response.
func BalanceLogFromDomain(l *domain.BalanceChangeLog) *BalanceLogResponse {
	return &BalanceLogResponse{
		ID:              l.ID,
		SubjectType:     l.Subject.Type,
		SubjectID:       l.Subject.ID,
		PreviousBalance: l.PreviousBalance,
		NewBalance:      l.NewBalance,
		ChangeAmount:    l.ChangeAmount,
		ActorID:         l.ActorID,
		Note:            l.Note,
		CreatedAt:       l.CreatedAt,
	}
}

// BalanceLogsFromDomain converts domain log entries to responses.
func BalanceLogsFromDomain(logs []*domain.BalanceChangeLog) []*BalanceLogResponse {
	result := make([]*BalanceLogResponse, len(logs))
	for i, l := range logs {
		result[i] = BalanceLogFromDomain(l)
	}
	return result
}

// BalanceChangeResponse is returned by balance mutations.
type BalanceChangeResponse struct {
	PreviousBalance decimal.Decimal     `json:"previous_balance"`
	NewBalance      decimal.Decimal     `json:"new_balance"`
	Log             *BalanceLogResponse `json:"log"`
}

// BalanceChangeFromResult converts a ledger result to a response.
func BalanceChangeFromResult(c *usecase.BalanceChange) *BalanceChangeResponse {
	resp := &BalanceChangeResponse{
		PreviousBalance: c.Previous,
		NewBalance:      c.New,
	}
	if c.Log != nil {
		resp.Log = BalanceLogFromDomain(c.Log)
	}
	return resp
}

// StatementEntryResponse is one statement line.
type StatementEntryResponse struct {
	Date           Date                      `json:"date"`
	Kind           domain.StatementEntryKind `json:"kind"`
	Reference      string                    `json:"reference"`
	Description    string                    `json:"description,omitempty"`
	Amount         decimal.Decimal           `json:"amount"`
	RunningBalance decimal.Decimal           `json:"running_balance"`
}

// StatementResponse represents a client account statement.
type StatementResponse struct {
	ClientID      string                   `json:"client_id"`
	ClientName    string                   `json:"client_name"`
	Entries       []StatementEntryResponse `json:"entries"`
	TotalSales    decimal.Decimal          `json:"total_sales"`
	TotalPurchase decimal.Decimal          `json:"total_purchases"`
	TotalIncome   decimal.Decimal          `json:"total_income"`
	TotalExpense  decimal.Decimal          `json:"total_expense"`
	FinalBalance  decimal.Decimal          `json:"final_balance"`
}

// StatementFromDomain converts a domain statement to a response.
func StatementFromDomain(s *domain.Statement) *StatementResponse {
	entries := make([]StatementEntryResponse, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = StatementEntryResponse{
			Date:           NewDate(e.Date),
			Kind:           e.Kind,
			Reference:      e.Reference,
			Description:    e.Description,
			Amount:         e.Amount,
			RunningBalance: e.RunningBalance,
		}
	}

	return &StatementResponse{
		ClientID:      s.ClientID,
		ClientName:    s.ClientName,
		Entries:       entries,
		TotalSales:    s.TotalSales,
		TotalPurchase: s.TotalPurchase,
		TotalIncome:   s.TotalIncome,
		TotalExpense:  s.TotalExpense,
		FinalBalance:  s.FinalBalance,
	}
}

// DiscrepancyResponse describes one subject whose chain does not reconcile.
type DiscrepancyResponse struct {
	SubjectType   domain.SubjectType      `json:"subject_type"`
	SubjectID     string                  `json:"subject_id"`
	StoredBalance decimal.Decimal         `json:"stored_balance"`
	Entries       int                     `json:"entries"`
	Violations    []domain.ChainViolation `json:"violations"`
}

// ReconciliationResponse is the body of a ledger verification.
type ReconciliationResponse struct {
	TotalSubjects      int                   `json:"total_subjects"`
	ReconciledSubjects int                   `json:"reconciled_subjects"`
	Discrepancies      []DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time             `json:"checked_at"`
}

// ReconciliationFromReport converts a reconciliation report to a response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = DiscrepancyResponse{
			SubjectType:   d.Subject.Type,
			SubjectID:     d.Subject.ID,
			StoredBalance: d.StoredBalance,
			Entries:       d.Entries,
			Violations:    d.Violations,
		}
	}

	return &ReconciliationResponse{
		TotalSubjects:      r.TotalSubjects,
		ReconciledSubjects: r.ReconciledSubjects,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ActivityResponse represents one activity log entry.
type ActivityResponse struct {
	ID         string                `json:"id"`
	ActorID    string                `json:"actor_id"`
	ActorName  string                `json:"actor_name,omitempty"`
	Action     string                `json:"action"`
	Method     string                `json:"method"`
	Path       string                `json:"path"`
	ResourceID string                `json:"resource_id,omitempty"`
	RequestID  string                `json:"request_id,omitempty"`
	IPAddress  string                `json:"ip_address,omitempty"`
	UserAgent  string                `json:"user_agent,omitempty"`
	Status     domain.ActivityStatus `json:"status"`
	StatusCode int                   `json:"status_code"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ActivityFromDomain converts activity entries to responses.
func ActivityFromDomain(entries []*domain.ActivityLog) []*ActivityResponse {
	result := make([]*ActivityResponse, len(entries))
	for i, e := range entries {
		result[i] = &ActivityResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			ActorName:  e.ActorName,
			Action:     e.Action,
			Method:     e.Method,
			Path:       e.Path,
			ResourceID: e.ResourceID,
			RequestID:  e.RequestID,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			Status:     e.Status,
			StatusCode: e.StatusCode,
			CreatedAt:  e.CreatedAt,
		}
	}
	return result
}

// SequenceResponse carries a freshly allocated identifier.
type SequenceResponse struct {
	Prefix string `json:"prefix"`
	ID     string `json:"id"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}
