package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
)

// DriverUseCase handles driver operations.
type DriverUseCase struct {
	txManager  TransactionManager
	driverRepo DriverRepository
	allocator  *SequenceAllocator
	ledger     *BalanceLedger
	clock      Clock
	retrier    Retrier
	logger     zerolog.Logger
}

// NewDriverUseCase creates a new DriverUseCase.
func NewDriverUseCase(
	txManager TransactionManager,
	driverRepo DriverRepository,
	allocator *SequenceAllocator,
	ledger *BalanceLedger,
	clock Clock,
	retrier Retrier,
	logger zerolog.Logger,
) *DriverUseCase {
	return &DriverUseCase{
		txManager:  txManager,
		driverRepo: driverRepo,
		allocator:  allocator,
		ledger:     ledger,
		clock:      orSystemClock(clock),
		retrier:    orNoRetry(retrier),
		logger:     logger,
	}
}

// CreateDriverInput represents input for creating a driver.
type CreateDriverInput struct {
	Name           string
	Phone          string
	VehicleNumber  string
	OpeningBalance decimal.Decimal
}

// CreateDriver allocates a DR- id and stores the driver.
func (uc *DriverUseCase) CreateDriver(ctx context.Context, input CreateDriverInput) (*domain.Driver, error) {
	var driver *domain.Driver
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now()
		driver = &domain.Driver{
			Name:          strings.TrimSpace(input.Name),
			Phone:         strings.TrimSpace(input.Phone),
			VehicleNumber: strings.TrimSpace(input.VehicleNumber),
			Balance:       decimal.Zero,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := driver.Validate(); err != nil {
			return err
		}

		id, err := uc.allocator.AllocateTx(ctx, tx, domain.PrefixDriver)
		if err != nil {
			return err
		}
		driver.ID = id

		if err := uc.driverRepo.Create(ctx, tx, driver); err != nil {
			return err
		}

		if input.OpeningBalance.IsZero() {
			return nil
		}

		change, err := uc.ledger.ApplyChangeTx(ctx, tx, ApplyChangeInput{
			Subject: domain.Subject{Type: domain.SubjectDriver, ID: id},
			Delta:   input.OpeningBalance,
			Note:    "Opening balance",
		})
		if err != nil {
			return err
		}
		driver.Balance = change.New

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("driver_id", driver.ID).Msg("driver created")

	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (uc *DriverUseCase) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	return uc.driverRepo.GetByID(ctx, id)
}

// ListDrivers lists drivers.
func (uc *DriverUseCase) ListDrivers(ctx context.Context, limit, offset int) ([]*domain.Driver, error) {
	return uc.driverRepo.List(ctx, clampLimit(limit), offset)
}

// UpdateDriverInput represents the editable profile of a driver.
type UpdateDriverInput struct {
	Name          string
	Phone         string
	VehicleNumber string
}

// UpdateDriver edits the profile fields. The balance is untouched and
// existing movements keep the vehicle they were recorded with.
func (uc *DriverUseCase) UpdateDriver(ctx context.Context, id string, input UpdateDriverInput) (*domain.Driver, error) {
	var driver *domain.Driver
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		driver, err = uc.driverRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		driver.Name = strings.TrimSpace(input.Name)
		driver.Phone = strings.TrimSpace(input.Phone)
		driver.VehicleNumber = strings.TrimSpace(input.VehicleNumber)
		driver.UpdatedAt = uc.clock.Now()

		if err := driver.Validate(); err != nil {
			return err
		}

		return uc.driverRepo.Update(ctx, tx, driver)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("driver_id", driver.ID).Msg("driver updated")

	return driver, nil
}
