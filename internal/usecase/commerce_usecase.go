package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

// CommerceUseCase handles sales and purchases.
type CommerceUseCase struct {
	txManager    TransactionManager
	commerceRepo CommerceRepository
	clientRepo   ClientRepository
	driverRepo   DriverRepository
	oilTypeRepo  OilTypeRepository
	allocator    *SequenceAllocator
	sync         *MovementSynchronizer
	clock        Clock
	retrier      Retrier
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewCommerceUseCase creates a new CommerceUseCase.
func NewCommerceUseCase(
	txManager TransactionManager,
	commerceRepo CommerceRepository,
	clientRepo ClientRepository,
	driverRepo DriverRepository,
	oilTypeRepo OilTypeRepository,
	allocator *SequenceAllocator,
	sync *MovementSynchronizer,
	clock Clock,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *CommerceUseCase {
	return &CommerceUseCase{
		txManager:    txManager,
		commerceRepo: commerceRepo,
		clientRepo:   clientRepo,
		driverRepo:   driverRepo,
		oilTypeRepo:  oilTypeRepo,
		allocator:    allocator,
		sync:         sync,
		clock:        orSystemClock(clock),
		retrier:      orNoRetry(retrier),
		logger:       logger,
		metrics:      metrics,
	}
}

// CommerceInput is the validated field set of a sale or purchase.
// Amount is always derived and cannot be supplied.
type CommerceInput struct {
	Date              time.Time
	ClientID          string
	OilTypeID         string
	DriverID          string
	VehicleNumber     string
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	LoadingLocation   string
	UnloadingLocation string
	DriverFreight     decimal.NullDecimal
	ClientFreight     decimal.NullDecimal
	Description       string
}

// CommerceResult is a saved record with the synchronization outcome of its movement.
type CommerceResult struct {
	Record *domain.CommerceRecord
	Sync   SyncOutcome
}

// CreateSale creates a sale.
func (uc *CommerceUseCase) CreateSale(ctx context.Context, input CommerceInput) (*CommerceResult, error) {
	return uc.create(ctx, domain.OperationSale, input)
}

// CreatePurchase creates a purchase. ClientID is the supplier.
func (uc *CommerceUseCase) CreatePurchase(ctx context.Context, input CommerceInput) (*CommerceResult, error) {
	return uc.create(ctx, domain.OperationPurchase, input)
}

// UpdateSale re-validates and saves a sale.
func (uc *CommerceUseCase) UpdateSale(ctx context.Context, id string, input CommerceInput) (*CommerceResult, error) {
	return uc.update(ctx, domain.OperationSale, id, input)
}

// UpdatePurchase re-validates and saves a purchase.
func (uc *CommerceUseCase) UpdatePurchase(ctx context.Context, id string, input CommerceInput) (*CommerceResult, error) {
	return uc.update(ctx, domain.OperationPurchase, id, input)
}

// DeleteSale removes a sale together with its internal movement.
func (uc *CommerceUseCase) DeleteSale(ctx context.Context, id string) error {
	return uc.delete(ctx, domain.OperationSale, id)
}

// DeletePurchase removes a purchase together with its internal movement.
func (uc *CommerceUseCase) DeletePurchase(ctx context.Context, id string) error {
	return uc.delete(ctx, domain.OperationPurchase, id)
}

func (uc *CommerceUseCase) create(ctx context.Context, kind domain.OperationType, input CommerceInput) (*CommerceResult, error) {
	start := time.Now()
	actor := domain.ActorOrSystem(ctx)

	var result *CommerceResult
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now()
		record := &domain.CommerceRecord{
			Kind:      kind,
			CreatedBy: actor.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyCommerceInput(record, input, now)

		if err := uc.prepare(ctx, record); err != nil {
			return err
		}

		id, err := uc.allocator.AllocateTx(ctx, tx, kind.Prefix())
		if err != nil {
			return err
		}
		record.ID = id

		if err := uc.commerceRepo.Create(ctx, tx, record); err != nil {
			return err
		}

		outcome, err := uc.sync.SyncMovementFromCommerce(ctx, tx, record)
		if err != nil {
			return err
		}

		result = &CommerceResult{Record: record, Sync: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.observe(kind, "create", start)

	uc.logger.Info().
		Str("id", result.Record.ID).
		Str("kind", string(kind)).
		Str("amount", result.Record.Amount.StringFixed(domain.MoneyScale)).
		Str("actor", actor.ID).
		Msg("commerce record created")

	return result, nil
}

func (uc *CommerceUseCase) update(ctx context.Context, kind domain.OperationType, id string, input CommerceInput) (*CommerceResult, error) {
	start := time.Now()

	var result *CommerceResult
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		record, err := uc.commerceRepo.GetByIDForUpdate(ctx, tx, kind, id)
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		applyCommerceInput(record, input, record.Date)
		record.UpdatedAt = now

		if err := uc.prepare(ctx, record); err != nil {
			return err
		}

		if err := uc.commerceRepo.Update(ctx, tx, record); err != nil {
			return err
		}

		outcome, err := uc.sync.SyncMovementFromCommerce(ctx, tx, record)
		if err != nil {
			return err
		}

		result = &CommerceResult{Record: record, Sync: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.observe(kind, "update", start)

	return result, nil
}

func (uc *CommerceUseCase) delete(ctx context.Context, kind domain.OperationType, id string) error {
	start := time.Now()

	var movementID string
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		if _, err := uc.commerceRepo.GetByIDForUpdate(ctx, tx, kind, id); err != nil {
			return err
		}

		var err error
		movementID, err = uc.sync.RemoveMovementOfCommerce(ctx, tx, kind, id)
		if err != nil {
			return err
		}

		return uc.commerceRepo.Delete(ctx, tx, kind, id)
	})
	if err != nil {
		return err
	}

	uc.observe(kind, "delete", start)

	uc.logger.Info().
		Str("id", id).
		Str("kind", string(kind)).
		Str("movement_id", movementID).
		Str("actor", domain.ActorOrSystem(ctx).ID).
		Msg("commerce record deleted")

	return nil
}

func applyCommerceInput(record *domain.CommerceRecord, input CommerceInput, defaultDate time.Time) {
	record.Date = input.Date
	if record.Date.IsZero() {
		record.Date = defaultDate
	}
	record.ClientID = input.ClientID
	record.OilTypeID = input.OilTypeID
	record.DriverID = input.DriverID
	record.VehicleNumber = strings.TrimSpace(input.VehicleNumber)
	record.Quantity = input.Quantity
	record.Price = input.Price
	record.LoadingLocation = input.LoadingLocation
	record.UnloadingLocation = input.UnloadingLocation
	record.DriverFreight = input.DriverFreight
	record.ClientFreight = input.ClientFreight
	record.Description = input.Description
	record.ComputeAmount()
}

// prepare resolves references, fills the vehicle number from the driver and
// validates the record.
func (uc *CommerceUseCase) prepare(ctx context.Context, record *domain.CommerceRecord) error {
	if err := record.Validate(); err != nil && !onlyVehicleMissing(err, record) {
		return err
	}

	verr := &domain.ValidationError{}

	clientField := "client_id"
	if record.Kind == domain.OperationPurchase {
		clientField = "supplier_id"
	}

	if _, err := uc.clientRepo.GetByID(ctx, record.ClientID); err != nil {
		if !errors.Is(err, domain.ErrClientNotFound) {
			return err
		}
		verr.Add(clientField, "references an unknown client")
	}

	if _, err := uc.oilTypeRepo.GetByID(ctx, record.OilTypeID); err != nil {
		if !errors.Is(err, domain.ErrOilTypeNotFound) {
			return err
		}
		verr.Add("oil_type_id", "references an unknown oil type")
	}

	if record.DriverID != "" {
		driver, err := uc.driverRepo.GetByID(ctx, record.DriverID)
		switch {
		case errors.Is(err, domain.ErrDriverNotFound):
			verr.Add("driver_id", "references an unknown driver")
		case err != nil:
			return err
		case record.VehicleNumber == "":
			record.VehicleNumber = driver.VehicleNumber
		}
	}

	if err := verr.OrNil(); err != nil {
		return err
	}

	return record.Validate()
}

// onlyVehicleMissing reports whether the single validation failure is an empty
// vehicle number that the driver's vehicle can still fill.
func onlyVehicleMissing(err error, record *domain.CommerceRecord) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || record.VehicleNumber != "" {
		return false
	}

	for _, f := range verr.Fields {
		if f.Field != "vehicle_number" {
			return false
		}
	}

	return true
}

func (uc *CommerceUseCase) observe(kind domain.OperationType, action string, start time.Time) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.CommerceRecords.WithLabelValues(string(kind), action).Inc()
	uc.metrics.OperationDuration.WithLabelValues("commerce_" + action).Observe(time.Since(start).Seconds())
}

// Get returns a sale or purchase by id.
func (uc *CommerceUseCase) Get(ctx context.Context, kind domain.OperationType, id string) (*domain.CommerceRecord, error) {
	return uc.commerceRepo.GetByID(ctx, kind, id)
}

// List lists sales or purchases, newest first.
func (uc *CommerceUseCase) List(ctx context.Context, filter CommerceFilter) ([]*domain.CommerceRecord, error) {
	if !filter.Kind.IsValid() {
		return nil, domain.NewValidationError("kind", "must be sale or purchase")
	}

	filter.Limit = clampLimit(filter.Limit)

	return uc.commerceRepo.List(ctx, filter)
}
