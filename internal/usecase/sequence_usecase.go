package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

// SequenceAllocator issues gap-free identifiers per prefix series.
//
// The counter row of a prefix stays locked until the surrounding transaction
// ends, so concurrent writers on the same prefix serialize while other prefixes
// proceed independently. A rolled back transaction also rolls back its
// increment.
type SequenceAllocator struct {
	txManager TransactionManager
	seqRepo   SequenceRepository
	retrier   Retrier
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewSequenceAllocator creates a new SequenceAllocator.
func NewSequenceAllocator(
	txManager TransactionManager,
	seqRepo SequenceRepository,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *SequenceAllocator {
	return &SequenceAllocator{
		txManager: txManager,
		seqRepo:   seqRepo,
		retrier:   orNoRetry(retrier),
		logger:    logger,
		metrics:   metrics,
	}
}

// Allocate reserves the next identifier of prefix in its own transaction.
func (a *SequenceAllocator) Allocate(ctx context.Context, prefix string) (string, error) {
	if err := domain.ValidatePrefix(prefix); err != nil {
		return "", err
	}

	start := time.Now()

	var id string
	err := runInTx(ctx, a.txManager, a.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		id, err = a.AllocateTx(ctx, tx, prefix)
		return err
	})
	if err != nil {
		return "", err
	}

	if a.metrics != nil {
		a.metrics.OperationDuration.WithLabelValues("allocate").Observe(time.Since(start).Seconds())
	}

	return id, nil
}

// AllocateTx allocates the next identifier of prefix inside tx. The caller
// must write the record carrying the id in the same transaction.
func (a *SequenceAllocator) AllocateTx(ctx context.Context, tx Transaction, prefix string) (string, error) {
	if err := domain.ValidatePrefix(prefix); err != nil {
		return "", err
	}

	last, found, err := a.seqRepo.LockCounter(ctx, tx, prefix)
	if err != nil {
		return "", err
	}

	if !found {
		seed, err := a.seed(ctx, tx, prefix)
		if err != nil {
			return "", err
		}

		if err := a.seqRepo.InitCounter(ctx, tx, prefix, seed); err != nil {
			return "", err
		}

		last, found, err = a.seqRepo.LockCounter(ctx, tx, prefix)
		if err != nil {
			return "", err
		}

		if !found {
			return "", &domain.StorageError{
				Op:  "lock sequence counter",
				Err: fmt.Errorf("counter for %q missing after initialization", prefix),
			}
		}
	}

	next := last + 1
	if err := a.seqRepo.StoreCounter(ctx, tx, prefix, next); err != nil {
		return "", err
	}

	if a.metrics != nil {
		a.metrics.SequenceAllocations.WithLabelValues(prefix).Inc()
	}

	return domain.FormatSequenceID(prefix, next), nil
}

// seed derives the starting value of a new counter from the highest
// identifier with a numeric suffix. Identifiers ranked above it with an
// unparseable suffix are skipped and reported as anomalies. With no numeric
// identifier at all the series starts at 001.
func (a *SequenceAllocator) seed(ctx context.Context, tx Transaction, prefix string) (int64, error) {
	ids, err := a.seqRepo.Identifiers(ctx, tx, prefix)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		n, err := domain.ParseSequenceSuffix(prefix, id)
		if err == nil {
			return n, nil
		}

		a.logger.Warn().
			Err(err).
			Str("prefix", prefix).
			Str("id", id).
			Msg("skipping identifier with unparseable suffix")

		if a.metrics != nil {
			a.metrics.SequenceAnomalies.WithLabelValues(prefix).Inc()
		}
	}

	return 0, nil
}
