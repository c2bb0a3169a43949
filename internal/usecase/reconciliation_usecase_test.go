package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

type stubBalanceLogRepository struct {
	usecase.BalanceLogRepository
	subjects    []domain.Subject
	subjectsErr error
	chainErr    error
}

func (s *stubBalanceLogRepository) ListSubjects(context.Context) ([]domain.Subject, error) {
	return s.subjects, s.subjectsErr
}

func (s *stubBalanceLogRepository) ListChain(context.Context, domain.Subject) ([]*domain.BalanceChangeLog, error) {
	return nil, s.chainErr
}

type stubBalanceRepository struct {
	usecase.BalanceRepository
	balance decimal.Decimal
}

func (s *stubBalanceRepository) GetBalance(context.Context, domain.Subject) (decimal.Decimal, error) {
	return s.balance, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestReconciliation_CleanLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.client(t, "Acme", 30)
	d := h.driver(t, "Sami", "TRK-9")

	_, err := h.treasuryUC.Post(ctx, cashPosting(domain.SourceClient, domain.TransactionExpense, c.ID, "12.40"))
	require.NoError(t, err)
	_, err = h.ledger.ApplyChange(ctx, usecase.ApplyChangeInput{
		Subject: domain.Subject{Type: domain.SubjectDriver, ID: d.ID},
		Delta:   dec("-8"),
	})
	require.NoError(t, err)

	report, err := h.reconciliation.VerifyAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalSubjects)
	assert.Equal(t, 2, report.ReconciledSubjects)
	assert.Empty(t, report.Discrepancies)

	result, err := h.reconciliation.VerifySubject(ctx, clientSubject(c.ID))
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, 2, result.Entries)
	assert.True(t, result.StoredBalance.Equal(dec("17.60")))
}

func TestReconciliation_DetectsForgedEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", 30)
	subject := clientSubject(c.ID)

	tx, err := h.store.Begin(ctx)
	require.NoError(t, err)
	forged := domain.NewBalanceChangeLog("forged", subject, decimal.Zero, dec("5"), "intruder", "", time.Now())
	require.NoError(t, h.logs.Create(ctx, tx, forged))
	require.NoError(t, tx.Commit(ctx))

	report, err := h.reconciliation.VerifyAll(ctx)
	require.NoError(t, err)

	require.Len(t, report.Discrepancies, 1)
	result := report.Discrepancies[0]
	assert.Equal(t, subject, result.Subject)
	assert.False(t, result.IsReconciled)
	require.Len(t, result.Violations, 2)
	assert.Equal(t, "forged", result.Violations[0].LogID)

	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.LedgerViolations))
}

func TestReconciliation_DetectsBalanceWrittenOutsideLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", 30)
	subject := clientSubject(c.ID)

	tx, err := h.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, h.balances.UpdateBalance(ctx, tx, subject, dec("31"), time.Now()))
	require.NoError(t, tx.Commit(ctx))

	result, err := h.reconciliation.VerifySubject(ctx, subject)
	require.NoError(t, err)
	assert.False(t, result.IsReconciled)
	require.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0].Message, "differs from last entry")
}

func TestReconciliation_StubbedFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	subject := clientSubject("CL-001")

	t.Run("list subjects fails", func(t *testing.T) {
		t.Parallel()

		logs := &stubBalanceLogRepository{subjectsErr: errors.New("connection reset")}
		uc := usecase.NewReconciliationUseCase(&stubBalanceRepository{}, logs, fixedClock{now}, zerolog.Nop(), nil)

		_, err := uc.VerifyAll(context.Background())
		assert.EqualError(t, err, "connection reset")
	})

	t.Run("chain read fails", func(t *testing.T) {
		t.Parallel()

		logs := &stubBalanceLogRepository{subjects: []domain.Subject{subject}, chainErr: errors.New("timeout")}
		uc := usecase.NewReconciliationUseCase(&stubBalanceRepository{}, logs, fixedClock{now}, zerolog.Nop(), nil)

		_, err := uc.VerifyAll(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client:CL-001")
	})

	t.Run("balance without log", func(t *testing.T) {
		t.Parallel()

		logs := &stubBalanceLogRepository{subjects: []domain.Subject{subject}}
		balances := &stubBalanceRepository{balance: decimal.NewFromInt(9)}
		uc := usecase.NewReconciliationUseCase(balances, logs, fixedClock{now}, zerolog.Nop(), nil)

		report, err := uc.VerifyAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, now, report.CheckedAt)
		require.Len(t, report.Discrepancies, 1)
		assert.Equal(t, now, report.Discrepancies[0].LastChecked)
		assert.Equal(t, 0, report.ReconciledSubjects)
	})
}
