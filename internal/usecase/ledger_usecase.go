package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

// BalanceLedger is the only writer of subject balances. Every mutation
// appends a BalanceChangeLog in the same transaction.
type BalanceLedger struct {
	txManager   TransactionManager
	balanceRepo BalanceRepository
	logRepo     BalanceLogRepository
	idGen       IDGenerator
	clock       Clock
	retrier     Retrier
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewBalanceLedger creates a new BalanceLedger.
func NewBalanceLedger(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	logRepo BalanceLogRepository,
	idGen IDGenerator,
	clock Clock,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *BalanceLedger {
	return &BalanceLedger{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		logRepo:     logRepo,
		idGen:       idGen,
		clock:       orSystemClock(clock),
		retrier:     orNoRetry(retrier),
		logger:      logger,
		metrics:     metrics,
	}
}

// ApplyChangeInput represents a signed balance mutation.
type ApplyChangeInput struct {
	Subject domain.Subject
	Delta   decimal.Decimal
	// ActorID defaults to the actor in the context.
	ActorID string
	Note    string
	// NoOverdraft rejects a negative delta larger than the current balance.
	NoOverdraft bool
}

// BalanceChange is the outcome of a ledger mutation.
type BalanceChange struct {
	Previous decimal.Decimal
	New      decimal.Decimal
	Log      *domain.BalanceChangeLog
}

// ApplyChange applies a balance change in its own transaction.
func (l *BalanceLedger) ApplyChange(ctx context.Context, input ApplyChangeInput) (*BalanceChange, error) {
	var change *BalanceChange
	err := runInTx(ctx, l.txManager, l.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		change, err = l.ApplyChangeTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return change, nil
}

// ApplyChangeTx locks the subject, writes the new balance and appends the log
// entry inside tx.
func (l *BalanceLedger) ApplyChangeTx(ctx context.Context, tx Transaction, input ApplyChangeInput) (*BalanceChange, error) {
	if !input.Subject.Type.IsValid() {
		return nil, domain.NewValidationError("subject_type", "must be client, driver or company")
	}

	if input.Subject.ID == "" {
		return nil, domain.NewValidationError("subject_id", "is required")
	}

	if err := domain.ValidateDelta(input.Delta); err != nil {
		return nil, err
	}

	if err := domain.ValidateNote(input.Note); err != nil {
		return nil, err
	}

	previous, err := l.balanceRepo.GetBalanceForUpdate(ctx, tx, input.Subject)
	if err != nil {
		return nil, err
	}

	if input.NoOverdraft && input.Delta.IsNegative() && previous.Add(input.Delta).IsNegative() {
		return nil, &domain.InsufficientBalanceError{
			Subject:   input.Subject,
			Balance:   previous,
			Requested: input.Delta.Abs(),
		}
	}

	return l.write(ctx, tx, input.Subject, previous, input.Delta, l.actorID(ctx, input.ActorID), input.Note)
}

// SetBalance moves a subject's balance to target, logging the difference.
// It returns a change without a log entry when the balance already matches.
func (l *BalanceLedger) SetBalance(ctx context.Context, subject domain.Subject, target decimal.Decimal, note string) (*BalanceChange, error) {
	var change *BalanceChange
	err := runInTx(ctx, l.txManager, l.retrier, func(ctx context.Context, tx Transaction) error {
		previous, err := l.balanceRepo.GetBalanceForUpdate(ctx, tx, subject)
		if err != nil {
			return err
		}

		delta := target.Sub(previous)
		if delta.IsZero() {
			change = &BalanceChange{Previous: previous, New: previous}
			return nil
		}

		if err := domain.ValidateDelta(delta); err != nil {
			return err
		}

		change, err = l.write(ctx, tx, subject, previous, delta, l.actorID(ctx, ""), note)
		return err
	})
	if err != nil {
		return nil, err
	}

	return change, nil
}

func (l *BalanceLedger) write(
	ctx context.Context,
	tx Transaction,
	subject domain.Subject,
	previous, delta decimal.Decimal,
	actorID, note string,
) (*BalanceChange, error) {
	now := l.clock.Now()
	entry := domain.NewBalanceChangeLog(l.idGen.Generate(), subject, previous, delta, actorID, note, now)

	if err := l.balanceRepo.UpdateBalance(ctx, tx, subject, entry.NewBalance, now); err != nil {
		return nil, err
	}

	if err := l.logRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if l.metrics != nil {
		l.metrics.BalanceChanges.WithLabelValues(string(subject.Type)).Inc()
		l.metrics.BalanceChangeAmount.Observe(delta.Abs().InexactFloat64())
	}

	l.logger.Debug().
		Str("subject", subject.String()).
		Str("previous", previous.String()).
		Str("new", entry.NewBalance.String()).
		Str("actor", actorID).
		Msg("balance changed")

	return &BalanceChange{Previous: previous, New: entry.NewBalance, Log: entry}, nil
}

func (l *BalanceLedger) actorID(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}

	return domain.ActorOrSystem(ctx).ID
}

// ListLogsInput represents input for listing a subject's change log.
type ListLogsInput struct {
	Subject domain.Subject
	Limit   int
	Offset  int
}

// ListLogs lists a subject's change log, newest first.
func (l *BalanceLedger) ListLogs(ctx context.Context, input ListLogsInput) ([]*domain.BalanceChangeLog, error) {
	if !input.Subject.Type.IsValid() {
		return nil, domain.NewValidationError("subject_type", "must be client, driver or company")
	}

	return l.logRepo.ListBySubject(ctx, input.Subject, clampLimit(input.Limit), input.Offset)
}

// GetBalance returns the stored balance of a subject.
func (l *BalanceLedger) GetBalance(ctx context.Context, subject domain.Subject) (decimal.Decimal, error) {
	return l.balanceRepo.GetBalance(ctx, subject)
}
