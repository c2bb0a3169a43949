package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
)

// OilTypeUseCase handles oil type operations.
type OilTypeUseCase struct {
	txManager   TransactionManager
	oilTypeRepo OilTypeRepository
	allocator   *SequenceAllocator
	clock       Clock
	retrier     Retrier
}

// NewOilTypeUseCase creates a new OilTypeUseCase.
func NewOilTypeUseCase(
	txManager TransactionManager,
	oilTypeRepo OilTypeRepository,
	allocator *SequenceAllocator,
	clock Clock,
	retrier Retrier,
) *OilTypeUseCase {
	return &OilTypeUseCase{
		txManager:   txManager,
		oilTypeRepo: oilTypeRepo,
		allocator:   allocator,
		clock:       orSystemClock(clock),
		retrier:     orNoRetry(retrier),
	}
}

// CreateOilTypeInput represents input for creating an oil type.
type CreateOilTypeInput struct {
	Name            string
	PricePerLiter   decimal.Decimal
	CurrentQuantity decimal.Decimal
}

// CreateOilType allocates an OT- id and stores the oil type.
func (uc *OilTypeUseCase) CreateOilType(ctx context.Context, input CreateOilTypeInput) (*domain.OilType, error) {
	var oilType *domain.OilType
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now()
		oilType = &domain.OilType{
			Name:            strings.TrimSpace(input.Name),
			PricePerLiter:   input.PricePerLiter,
			CurrentQuantity: input.CurrentQuantity,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := oilType.Validate(); err != nil {
			return err
		}

		id, err := uc.allocator.AllocateTx(ctx, tx, domain.PrefixOilType)
		if err != nil {
			return err
		}
		oilType.ID = id

		return uc.oilTypeRepo.Create(ctx, tx, oilType)
	})
	if err != nil {
		return nil, err
	}

	return oilType, nil
}

// GetOilType retrieves an oil type by ID.
func (uc *OilTypeUseCase) GetOilType(ctx context.Context, id string) (*domain.OilType, error) {
	return uc.oilTypeRepo.GetByID(ctx, id)
}

// ListOilTypes lists oil types.
func (uc *OilTypeUseCase) ListOilTypes(ctx context.Context, limit, offset int) ([]*domain.OilType, error) {
	return uc.oilTypeRepo.List(ctx, clampLimit(limit), offset)
}

// UpdateOilTypeInput represents the editable fields of an oil type.
type UpdateOilTypeInput struct {
	Name            string
	PricePerLiter   decimal.Decimal
	CurrentQuantity decimal.Decimal
}

// UpdateOilType edits an oil type. Recorded sales and purchases keep their
// own prices.
func (uc *OilTypeUseCase) UpdateOilType(ctx context.Context, id string, input UpdateOilTypeInput) (*domain.OilType, error) {
	var oilType *domain.OilType
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		oilType, err = uc.oilTypeRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		oilType.Name = strings.TrimSpace(input.Name)
		oilType.PricePerLiter = input.PricePerLiter
		oilType.CurrentQuantity = input.CurrentQuantity
		oilType.UpdatedAt = uc.clock.Now()

		if err := oilType.Validate(); err != nil {
			return err
		}

		return uc.oilTypeRepo.Update(ctx, tx, oilType)
	})
	if err != nil {
		return nil, err
	}

	return oilType, nil
}
