package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
)

// ClientUseCase handles client operations.
type ClientUseCase struct {
	txManager  TransactionManager
	clientRepo ClientRepository
	allocator  *SequenceAllocator
	ledger     *BalanceLedger
	clock      Clock
	retrier    Retrier
	logger     zerolog.Logger
}

// NewClientUseCase creates a new ClientUseCase.
func NewClientUseCase(
	txManager TransactionManager,
	clientRepo ClientRepository,
	allocator *SequenceAllocator,
	ledger *BalanceLedger,
	clock Clock,
	retrier Retrier,
	logger zerolog.Logger,
) *ClientUseCase {
	return &ClientUseCase{
		txManager:  txManager,
		clientRepo: clientRepo,
		allocator:  allocator,
		ledger:     ledger,
		clock:      orSystemClock(clock),
		retrier:    orNoRetry(retrier),
		logger:     logger,
	}
}

// CreateClientInput represents input for creating a client.
type CreateClientInput struct {
	Name           string
	Phone          string
	Address        string
	OpeningBalance decimal.Decimal
}

// CreateClient allocates a CL- id and stores the client. A non-zero opening
// balance is written through the ledger.
func (uc *ClientUseCase) CreateClient(ctx context.Context, input CreateClientInput) (*domain.Client, error) {
	var client *domain.Client
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now()
		client = &domain.Client{
			Name:      strings.TrimSpace(input.Name),
			Phone:     strings.TrimSpace(input.Phone),
			Address:   strings.TrimSpace(input.Address),
			Balance:   decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := client.Validate(); err != nil {
			return err
		}

		id, err := uc.allocator.AllocateTx(ctx, tx, domain.PrefixClient)
		if err != nil {
			return err
		}
		client.ID = id

		if err := uc.clientRepo.Create(ctx, tx, client); err != nil {
			return err
		}

		if input.OpeningBalance.IsZero() {
			return nil
		}

		change, err := uc.ledger.ApplyChangeTx(ctx, tx, ApplyChangeInput{
			Subject: domain.Subject{Type: domain.SubjectClient, ID: id},
			Delta:   input.OpeningBalance,
			Note:    "Opening balance",
		})
		if err != nil {
			return err
		}
		client.Balance = change.New

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("client_id", client.ID).Msg("client created")

	return client, nil
}

// GetClient retrieves a client by ID.
func (uc *ClientUseCase) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return uc.clientRepo.GetByID(ctx, id)
}

// ListClients lists clients.
func (uc *ClientUseCase) ListClients(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	return uc.clientRepo.List(ctx, clampLimit(limit), offset)
}

// UpdateClientInput represents the editable profile of a client.
type UpdateClientInput struct {
	Name    string
	Phone   string
	Address string
}

// UpdateClient edits the profile fields. The balance is untouched.
func (uc *ClientUseCase) UpdateClient(ctx context.Context, id string, input UpdateClientInput) (*domain.Client, error) {
	var client *domain.Client
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		client, err = uc.clientRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		client.Name = strings.TrimSpace(input.Name)
		client.Phone = strings.TrimSpace(input.Phone)
		client.Address = strings.TrimSpace(input.Address)
		client.UpdatedAt = uc.clock.Now()

		if err := client.Validate(); err != nil {
			return err
		}

		return uc.clientRepo.Update(ctx, tx, client)
	})
	if err != nil {
		return nil, err
	}

	return client, nil
}

// AdjustBalance sets a client's balance to target, logging the difference
// as a ledger entry.
func (uc *ClientUseCase) AdjustBalance(ctx context.Context, id string, target decimal.Decimal, note string) (*BalanceChange, error) {
	if err := domain.ValidateNote(note); err != nil {
		return nil, err
	}

	if note == "" {
		note = "Balance adjustment by " + domain.ActorOrSystem(ctx).Name
	}

	change, err := uc.ledger.SetBalance(ctx, domain.Subject{Type: domain.SubjectClient, ID: id}, target, note)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("client_id", id).
		Str("previous", change.Previous.String()).
		Str("new", change.New.String()).
		Msg("client balance adjusted")

	return change, nil
}
