package usecase

import (
	"context"

	"github.com/iho/oilledger/internal/domain"
)

// StatementUseCase builds client account statements.
type StatementUseCase struct {
	clientRepo   ClientRepository
	commerceRepo CommerceRepository
	treasuryRepo TreasuryRepository
}

// NewStatementUseCase creates a new StatementUseCase.
func NewStatementUseCase(
	clientRepo ClientRepository,
	commerceRepo CommerceRepository,
	treasuryRepo TreasuryRepository,
) *StatementUseCase {
	return &StatementUseCase{
		clientRepo:   clientRepo,
		commerceRepo: commerceRepo,
		treasuryRepo: treasuryRepo,
	}
}

// ClientStatement merges every sale, purchase and treasury movement of a client.
func (uc *StatementUseCase) ClientStatement(ctx context.Context, clientID string) (*domain.Statement, error) {
	client, err := uc.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	sales, err := uc.commerceRepo.List(ctx, CommerceFilter{Kind: domain.OperationSale, ClientID: clientID})
	if err != nil {
		return nil, err
	}

	purchases, err := uc.commerceRepo.List(ctx, CommerceFilter{Kind: domain.OperationPurchase, ClientID: clientID})
	if err != nil {
		return nil, err
	}

	treasury, err := uc.treasuryRepo.List(ctx, TreasuryFilter{ClientID: clientID})
	if err != nil {
		return nil, err
	}

	return domain.BuildStatement(client, sales, purchases, treasury), nil
}
