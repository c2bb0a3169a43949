package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

// TreasuryUseCase posts cash movements against client, company, driver or
// direct accounts.
type TreasuryUseCase struct {
	txManager    TransactionManager
	treasuryRepo TreasuryRepository
	clientRepo   ClientRepository
	driverRepo   DriverRepository
	commerceRepo CommerceRepository
	ledger       *BalanceLedger
	clock        Clock
	retrier      Retrier
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewTreasuryUseCase creates a new TreasuryUseCase.
func NewTreasuryUseCase(
	txManager TransactionManager,
	treasuryRepo TreasuryRepository,
	clientRepo ClientRepository,
	driverRepo DriverRepository,
	commerceRepo CommerceRepository,
	ledger *BalanceLedger,
	clock Clock,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *TreasuryUseCase {
	return &TreasuryUseCase{
		txManager:    txManager,
		treasuryRepo: treasuryRepo,
		clientRepo:   clientRepo,
		driverRepo:   driverRepo,
		commerceRepo: commerceRepo,
		ledger:       ledger,
		clock:        orSystemClock(clock),
		retrier:      orNoRetry(retrier),
		logger:       logger,
		metrics:      metrics,
	}
}

// PostInput represents input for posting a treasury movement.
type PostInput struct {
	Source            domain.AccountSource
	TransactionType   domain.TransactionType
	SubjectID         string
	Amount            decimal.Decimal
	PaymentMethod     domain.PaymentMethod
	PaymentDetails    string
	Note              string
	Date              time.Time
	RelatedSaleID     string
	RelatedPurchaseID string
}

// Post records a treasury movement and applies the translated balance delta
// in one transaction. A client expense larger than the client's balance fails
// with an InsufficientBalanceError and writes nothing.
func (uc *TreasuryUseCase) Post(ctx context.Context, input PostInput) (*domain.TreasuryMovement, error) {
	if !input.Source.IsValid() {
		return nil, domain.NewValidationError("source", "must be client, company, driver or direct")
	}

	if input.Source != domain.SourceDirect && strings.TrimSpace(input.SubjectID) == "" {
		return nil, domain.NewValidationError("subject_id", "is required")
	}

	start := time.Now()
	actor := domain.ActorOrSystem(ctx)

	var movement *domain.TreasuryMovement
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		movement, err = uc.post(ctx, tx, actor, input)
		return err
	})
	if err != nil {
		uc.reject(err, input)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TreasuryPostings.WithLabelValues(string(input.Source), string(input.TransactionType)).Inc()
		uc.metrics.TreasuryAmount.Observe(movement.PaidAmount.InexactFloat64())
		uc.metrics.OperationDuration.WithLabelValues("treasury_post").Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Int64("movement_id", movement.ID).
		Str("source", string(input.Source)).
		Str("type", string(input.TransactionType)).
		Str("amount", movement.PaidAmount.StringFixed(domain.MoneyScale)).
		Str("actor", actor.ID).
		Msg("treasury movement posted")

	return movement, nil
}

// post runs one attempt. A panic is converted to ErrUnexpected so the caller's
// deferred rollback discards the partial writes.
func (uc *TreasuryUseCase) post(ctx context.Context, tx Transaction, actor domain.Actor, input PostInput) (movement *domain.TreasuryMovement, err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error().
				Interface("panic", r).
				Str("source", string(input.Source)).
				Str("subject_id", input.SubjectID).
				Msg("treasury posting panicked")
			movement = nil
			err = fmt.Errorf("%w: %v", domain.ErrUnexpected, r)
		}
	}()

	now := uc.clock.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	movement = &domain.TreasuryMovement{
		Date:              date,
		TransactionType:   input.TransactionType,
		MovementSource:    input.Source.MovementSource(),
		PaidAmount:        input.Amount,
		PaymentMethod:     input.PaymentMethod,
		PaymentDetails:    strings.TrimSpace(input.PaymentDetails),
		Note:              input.Note,
		RelatedSaleID:     input.RelatedSaleID,
		RelatedPurchaseID: input.RelatedPurchaseID,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
	}

	if err := movement.Validate(); err != nil {
		return nil, err
	}

	if err := uc.checkRelated(ctx, input); err != nil {
		return nil, err
	}

	subjectName, err := uc.resolveSubject(ctx, input.Source, input.SubjectID)
	if err != nil {
		return nil, err
	}

	switch input.Source {
	case domain.SourceClient, domain.SourceCompany:
		movement.RelatedClientID = input.SubjectID
	case domain.SourceDriver:
		movement.RelatedDriverID = input.SubjectID
	}
	movement.Description = domain.DescribeTreasuryMovement(input.Source, input.TransactionType, subjectName)

	if delta, ok := domain.TreasuryDelta(input.Source, input.TransactionType, input.Amount); ok {
		subjectType, _ := input.Source.SubjectType()

		note := domain.TreasuryLedgerNote(input.Source, input.TransactionType, actor.Name)
		if input.Note != "" {
			note += ": " + input.Note
		}

		_, err := uc.ledger.ApplyChangeTx(ctx, tx, ApplyChangeInput{
			Subject:     domain.Subject{Type: subjectType, ID: input.SubjectID},
			Delta:       delta,
			ActorID:     actor.ID,
			Note:        truncateNote(note),
			NoOverdraft: input.Source == domain.SourceClient && input.TransactionType == domain.TransactionExpense,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := uc.treasuryRepo.Create(ctx, tx, movement); err != nil {
		return nil, err
	}

	return movement, nil
}

func (uc *TreasuryUseCase) resolveSubject(ctx context.Context, source domain.AccountSource, id string) (string, error) {
	switch source {
	case domain.SourceClient, domain.SourceCompany:
		client, err := uc.clientRepo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrClientNotFound) {
			return "", domain.NewValidationError("subject_id", "references an unknown client")
		}
		if err != nil {
			return "", err
		}
		return client.Name, nil
	case domain.SourceDriver:
		driver, err := uc.driverRepo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrDriverNotFound) {
			return "", domain.NewValidationError("subject_id", "references an unknown driver")
		}
		if err != nil {
			return "", err
		}
		return driver.Name, nil
	}

	return "", nil
}

func (uc *TreasuryUseCase) checkRelated(ctx context.Context, input PostInput) error {
	verr := &domain.ValidationError{}

	if input.RelatedSaleID != "" {
		if _, err := uc.commerceRepo.GetByID(ctx, domain.OperationSale, input.RelatedSaleID); err != nil {
			if !errors.Is(err, domain.ErrSaleNotFound) {
				return err
			}
			verr.Add("related_sale_id", "references an unknown sale")
		}
	}

	if input.RelatedPurchaseID != "" {
		if _, err := uc.commerceRepo.GetByID(ctx, domain.OperationPurchase, input.RelatedPurchaseID); err != nil {
			if !errors.Is(err, domain.ErrPurchaseNotFound) {
				return err
			}
			verr.Add("related_purchase_id", "references an unknown purchase")
		}
	}

	return verr.OrNil()
}

func (uc *TreasuryUseCase) reject(err error, input PostInput) {
	reason := "error"
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		reason = "insufficient_balance"
	case errors.Is(err, domain.ErrValidation):
		reason = "validation"
	case errors.Is(err, domain.ErrUnexpected):
		reason = "unexpected"
	case errors.Is(err, domain.ErrStorage):
		reason = "storage"
	}

	if uc.metrics != nil {
		uc.metrics.TreasuryRejections.WithLabelValues(reason).Inc()
	}

	uc.logger.Warn().
		Err(err).
		Str("reason", reason).
		Str("source", string(input.Source)).
		Str("subject_id", input.SubjectID).
		Msg("treasury posting rejected")
}

func truncateNote(note string) string {
	if len(note) <= domain.MaxNoteLength {
		return note
	}

	return strings.ToValidUTF8(note[:domain.MaxNoteLength], "")
}

// TreasuryList is a page of movements with totals over that page.
type TreasuryList struct {
	Movements []*domain.TreasuryMovement
	Totals    domain.TreasuryTotals
}

// List lists treasury movements, newest first.
func (uc *TreasuryUseCase) List(ctx context.Context, filter TreasuryFilter) (*TreasuryList, error) {
	if filter.TransactionType != "" && !filter.TransactionType.IsValid() {
		return nil, domain.NewValidationError("transaction_type", "must be income or expense")
	}

	filter.Limit = clampLimit(filter.Limit)

	movements, err := uc.treasuryRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &TreasuryList{Movements: movements, Totals: domain.SumTreasury(movements)}, nil
}

// Get returns a treasury movement by id.
func (uc *TreasuryUseCase) Get(ctx context.Context, id int64) (*domain.TreasuryMovement, error) {
	return uc.treasuryRepo.GetByID(ctx, id)
}
