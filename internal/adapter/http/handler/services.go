package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// The interfaces below are the slices of the use cases each handler calls.

type clientService interface {
	CreateClient(ctx context.Context, input usecase.CreateClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	ListClients(ctx context.Context, limit, offset int) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, id string, input usecase.UpdateClientInput) (*domain.Client, error)
	AdjustBalance(ctx context.Context, id string, target decimal.Decimal, note string) (*usecase.BalanceChange, error)
}

type statementService interface {
	ClientStatement(ctx context.Context, clientID string) (*domain.Statement, error)
}

type driverService interface {
	CreateDriver(ctx context.Context, input usecase.CreateDriverInput) (*domain.Driver, error)
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
	ListDrivers(ctx context.Context, limit, offset int) ([]*domain.Driver, error)
	UpdateDriver(ctx context.Context, id string, input usecase.UpdateDriverInput) (*domain.Driver, error)
}

type oilTypeService interface {
	CreateOilType(ctx context.Context, input usecase.CreateOilTypeInput) (*domain.OilType, error)
	GetOilType(ctx context.Context, id string) (*domain.OilType, error)
	ListOilTypes(ctx context.Context, limit, offset int) ([]*domain.OilType, error)
	UpdateOilType(ctx context.Context, id string, input usecase.UpdateOilTypeInput) (*domain.OilType, error)
}

type commerceService interface {
	CreateSale(ctx context.Context, input usecase.CommerceInput) (*usecase.CommerceResult, error)
	CreatePurchase(ctx context.Context, input usecase.CommerceInput) (*usecase.CommerceResult, error)
	UpdateSale(ctx context.Context, id string, input usecase.CommerceInput) (*usecase.CommerceResult, error)
	UpdatePurchase(ctx context.Context, id string, input usecase.CommerceInput) (*usecase.CommerceResult, error)
	DeleteSale(ctx context.Context, id string) error
	DeletePurchase(ctx context.Context, id string) error
	Get(ctx context.Context, kind domain.OperationType, id string) (*domain.CommerceRecord, error)
	List(ctx context.Context, filter usecase.CommerceFilter) ([]*domain.CommerceRecord, error)
}

type movementService interface {
	CreateMovement(ctx context.Context, input usecase.MovementInput) (*usecase.MovementResult, error)
	UpdateMovement(ctx context.Context, id string, input usecase.MovementInput) (*usecase.MovementResult, error)
	DeleteMovement(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.VehicleMovement, error)
	List(ctx context.Context, filter usecase.MovementFilter) ([]*domain.VehicleMovement, error)
	EstimateFreight(quantity decimal.Decimal) (decimal.Decimal, error)
	FreightRate() decimal.Decimal
}

type treasuryService interface {
	Post(ctx context.Context, input usecase.PostInput) (*domain.TreasuryMovement, error)
	List(ctx context.Context, filter usecase.TreasuryFilter) (*usecase.TreasuryList, error)
}

type ledgerService interface {
	ApplyChange(ctx context.Context, input usecase.ApplyChangeInput) (*usecase.BalanceChange, error)
	ListLogs(ctx context.Context, input usecase.ListLogsInput) ([]*domain.BalanceChangeLog, error)
}

type reconciliationService interface {
	VerifyAll(ctx context.Context) (*usecase.ReconciliationReport, error)
}

type activityService interface {
	List(ctx context.Context, filter usecase.ActivityFilter) ([]*domain.ActivityLog, error)
}

type sequenceService interface {
	Allocate(ctx context.Context, prefix string) (string, error)
}
