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

// MovementUseCase handles vehicle movements.
type MovementUseCase struct {
	txManager    TransactionManager
	movementRepo MovementRepository
	commerceRepo CommerceRepository
	clientRepo   ClientRepository
	driverRepo   DriverRepository
	oilTypeRepo  OilTypeRepository
	allocator    *SequenceAllocator
	sync         *MovementSynchronizer
	freightRate  decimal.Decimal
	clock        Clock
	retrier      Retrier
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewMovementUseCase creates a new MovementUseCase. A zero freightRate uses
// domain.DefaultFreightRate.
func NewMovementUseCase(
	txManager TransactionManager,
	movementRepo MovementRepository,
	commerceRepo CommerceRepository,
	clientRepo ClientRepository,
	driverRepo DriverRepository,
	oilTypeRepo OilTypeRepository,
	allocator *SequenceAllocator,
	sync *MovementSynchronizer,
	freightRate decimal.Decimal,
	clock Clock,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *MovementUseCase {
	if !freightRate.IsPositive() {
		freightRate = domain.DefaultFreightRate
	}

	return &MovementUseCase{
		txManager:    txManager,
		movementRepo: movementRepo,
		commerceRepo: commerceRepo,
		clientRepo:   clientRepo,
		driverRepo:   driverRepo,
		oilTypeRepo:  oilTypeRepo,
		allocator:    allocator,
		sync:         sync,
		freightRate:  freightRate,
		clock:        orSystemClock(clock),
		retrier:      orNoRetry(retrier),
		logger:       logger,
		metrics:      metrics,
	}
}

// MovementInput is the validated field set of a vehicle movement.
type MovementInput struct {
	Type              domain.MovementType
	OperationType     domain.OperationType
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
}

// MovementResult is a saved movement with the synchronization outcome of its record.
type MovementResult struct {
	Movement *domain.VehicleMovement
	Sync     SyncOutcome
}

// CreateMovement creates an external movement, or an internal one for a
// sale or purchase that has none yet.
func (uc *MovementUseCase) CreateMovement(ctx context.Context, input MovementInput) (*MovementResult, error) {
	if !input.Type.IsValid() {
		return nil, domain.NewValidationError("movement_type", "must be internal or external")
	}

	actor := domain.ActorOrSystem(ctx)

	var result *MovementResult
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now()
		movement := &domain.VehicleMovement{
			Type:          input.Type,
			OperationType: input.OperationType,
			OperationID:   input.OperationID,
			CreatedBy:     actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		applyMovementInput(movement, input, now)

		if movement.IsInternal() {
			if err := uc.bindOperation(ctx, tx, movement); err != nil {
				return err
			}
		}

		if err := uc.prepare(ctx, movement); err != nil {
			return err
		}

		id, err := uc.allocator.AllocateTx(ctx, tx, domain.MovementPrefix(movement.Type))
		if err != nil {
			return err
		}
		movement.ID = id

		if err := uc.movementRepo.Create(ctx, tx, movement); err != nil {
			return err
		}

		outcome, err := uc.sync.SyncCommerceFromMovement(ctx, tx, movement)
		if err != nil {
			return err
		}

		result = &MovementResult{Movement: movement, Sync: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MovementsCreated.WithLabelValues(string(result.Movement.Type)).Inc()
	}

	uc.logger.Info().
		Str("movement_id", result.Movement.ID).
		Str("type", string(result.Movement.Type)).
		Str("actor", actor.ID).
		Msg("vehicle movement created")

	return result, nil
}

// bindOperation locks the referenced record, rejects a second internal
// movement and fills the commercial fields from the record.
func (uc *MovementUseCase) bindOperation(ctx context.Context, tx Transaction, movement *domain.VehicleMovement) error {
	if !movement.OperationType.IsValid() || movement.OperationID == "" {
		return domain.NewValidationError("operation_id", domain.ErrMovementOperationRequired.Error())
	}

	record, err := uc.commerceRepo.GetByIDForUpdate(ctx, tx, movement.OperationType, movement.OperationID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NewValidationError("operation_id", "references a missing "+string(movement.OperationType))
		}
		return err
	}

	_, err = uc.movementRepo.GetByOperationForUpdate(ctx, tx, movement.OperationType, movement.OperationID)
	switch {
	case err == nil:
		return domain.NewValidationError("operation_id", domain.ErrInternalMovementExists.Error())
	case !errors.Is(err, domain.ErrMovementNotFound):
		return err
	}

	movement.ClientID = record.ClientID
	movement.OilTypeID = record.OilTypeID
	movement.Quantity = record.Quantity
	movement.Date = record.Date

	return nil
}

// UpdateMovement saves a movement and, when internal, propagates the shared
// fields back to its record. The movement type and operation reference are
// fixed at creation.
func (uc *MovementUseCase) UpdateMovement(ctx context.Context, id string, input MovementInput) (*MovementResult, error) {
	var result *MovementResult
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		current, err := uc.movementRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if current.IsInternal() {
			if _, err := uc.commerceRepo.GetByIDForUpdate(ctx, tx, current.OperationType, current.OperationID); err != nil {
				if domain.IsNotFound(err) {
					return domain.NewValidationError("operation_id", "references a missing "+string(current.OperationType))
				}
				return err
			}
		}

		movement, err := uc.movementRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		applyMovementInput(movement, input, movement.Date)
		movement.UpdatedAt = uc.clock.Now()

		if err := uc.prepare(ctx, movement); err != nil {
			return err
		}

		if err := uc.movementRepo.Update(ctx, tx, movement); err != nil {
			return err
		}

		outcome, err := uc.sync.SyncCommerceFromMovement(ctx, tx, movement)
		if err != nil {
			return err
		}

		result = &MovementResult{Movement: movement, Sync: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteMovement removes an external movement. Internal movements only go
// away with the sale or purchase they mirror.
func (uc *MovementUseCase) DeleteMovement(ctx context.Context, id string) error {
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		movement, err := uc.movementRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if movement.IsInternal() {
			return domain.ErrInternalMovementDelete
		}

		return uc.movementRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	uc.logger.Info().
		Str("movement_id", id).
		Str("actor", domain.ActorOrSystem(ctx).ID).
		Msg("vehicle movement deleted")

	return nil
}

func applyMovementInput(m *domain.VehicleMovement, input MovementInput, defaultDate time.Time) {
	m.Date = input.Date
	if m.Date.IsZero() {
		m.Date = defaultDate
	}
	if input.ClientID != "" {
		m.ClientID = input.ClientID
	}
	if input.OilTypeID != "" {
		m.OilTypeID = input.OilTypeID
	}
	if !input.Quantity.IsZero() {
		m.Quantity = input.Quantity
	}
	m.DriverID = input.DriverID
	m.VehicleNumber = strings.TrimSpace(input.VehicleNumber)
	m.LoadingLocation = input.LoadingLocation
	m.UnloadingLocation = input.UnloadingLocation
	m.DriverFreight = input.DriverFreight
	m.ClientFreight = input.ClientFreight
	m.Notes = input.Notes
}

// prepare resolves references, fills the vehicle number from the driver and
// validates the movement.
func (uc *MovementUseCase) prepare(ctx context.Context, m *domain.VehicleMovement) error {
	verr := &domain.ValidationError{}

	if m.ClientID == "" {
		verr.Add("client_id", "is required")
	} else if _, err := uc.clientRepo.GetByID(ctx, m.ClientID); err != nil {
		if !errors.Is(err, domain.ErrClientNotFound) {
			return err
		}
		verr.Add("client_id", "references an unknown client")
	}

	if m.OilTypeID == "" {
		verr.Add("oil_type_id", "is required")
	} else if _, err := uc.oilTypeRepo.GetByID(ctx, m.OilTypeID); err != nil {
		if !errors.Is(err, domain.ErrOilTypeNotFound) {
			return err
		}
		verr.Add("oil_type_id", "references an unknown oil type")
	}

	if m.DriverID != "" {
		driver, err := uc.driverRepo.GetByID(ctx, m.DriverID)
		switch {
		case errors.Is(err, domain.ErrDriverNotFound):
			verr.Add("driver_id", "references an unknown driver")
		case err != nil:
			return err
		case m.VehicleNumber == "":
			m.VehicleNumber = driver.VehicleNumber
		}
	}

	if err := m.Validate(); err != nil {
		var mverr *domain.ValidationError
		if !errors.As(err, &mverr) {
			return err
		}
		for _, f := range mverr.Fields {
			if !verr.HasField(f.Field) {
				verr.Add(f.Field, f.Message)
			}
		}
	}

	return verr.OrNil()
}

// Get returns a movement by id.
func (uc *MovementUseCase) Get(ctx context.Context, id string) (*domain.VehicleMovement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

// List lists movements, newest first.
func (uc *MovementUseCase) List(ctx context.Context, filter MovementFilter) ([]*domain.VehicleMovement, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.NewValidationError("type", "must be internal or external")
	}

	filter.Limit = clampLimit(filter.Limit)

	return uc.movementRepo.List(ctx, filter)
}

// EstimateFreight applies the configured per-unit freight rate.
func (uc *MovementUseCase) EstimateFreight(quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, domain.NewValidationError("quantity", "must be greater than zero")
	}

	return domain.EstimateFreight(quantity, uc.freightRate), nil
}

// FreightRate returns the configured per-unit freight rate.
func (uc *MovementUseCase) FreightRate() decimal.Decimal {
	return uc.freightRate
}
