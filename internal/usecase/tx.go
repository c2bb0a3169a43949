package usecase

import (
	"context"
	"time"
)

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}

func orNoRetry(r Retrier) Retrier {
	if r == nil {
		return noRetry{}
	}

	return r
}

func orSystemClock(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}

	return c
}

// runInTx runs fn in a fresh transaction with the default timeout. The whole
// attempt, including Begin, is repeated by the retrier on transient failures,
// so no partial effect of a failed attempt survives.
func runInTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	return retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
}
