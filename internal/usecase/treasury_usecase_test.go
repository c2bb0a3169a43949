package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// panickingTreasuryRepo fails after the balance delta has been applied.
type panickingTreasuryRepo struct {
	usecase.TreasuryRepository
}

func (panickingTreasuryRepo) Create(context.Context, usecase.Transaction, *domain.TreasuryMovement) error {
	panic("treasury store exploded")
}

func cashPosting(source domain.AccountSource, tt domain.TransactionType, subjectID, amount string) usecase.PostInput {
	return usecase.PostInput{
		Source:          source,
		TransactionType: tt,
		SubjectID:       subjectID,
		Amount:          dec(amount),
		PaymentMethod:   domain.PaymentCash,
	}
}

func TestTreasury_ClientIncomeCreditsBalance(t *testing.T) {
	h := newHarness(t)
	ctx := domain.WithActor(context.Background(), domain.Actor{ID: "u-1", Name: "Mona", Role: domain.RoleManager})
	c := h.client(t, "Acme", 50)

	in := cashPosting(domain.SourceClient, domain.TransactionIncome, c.ID, "25.00")
	in.Note = "invoice 12"

	m, err := h.treasuryUC.Post(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, domain.MovementSourceClientAccount, m.MovementSource)
	assert.Equal(t, c.ID, m.RelatedClientID)
	assert.Equal(t, "Payment to client account Acme", m.Description)
	assert.Equal(t, "u-1", m.CreatedBy)

	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("75")))

	logs := h.chain(t, clientSubject(c.ID))
	require.Len(t, logs, 2)
	assert.Equal(t, "Treasury deposit by Mona: invoice 12", logs[1].Note)
	assert.Equal(t, "u-1", logs[1].ActorID)
}

func TestTreasury_ClientExpenseOverdraftWritesNothing(t *testing.T) {
	h := newHarness(t)
	c := h.client(t, "Acme", 50)

	_, err := h.treasuryUC.Post(context.Background(),
		cashPosting(domain.SourceClient, domain.TransactionExpense, c.ID, "100"))

	var ierr *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &ierr), "got %v", err)
	assert.True(t, ierr.Balance.Equal(dec("50")))
	assert.True(t, ierr.Requested.Equal(dec("100")))

	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("50")))
	assert.Len(t, h.chain(t, clientSubject(c.ID)), 1)

	list, err := h.treasuryUC.List(context.Background(), usecase.TreasuryFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Movements)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.TreasuryRejections.WithLabelValues("insufficient_balance")))
}

func TestTreasury_ClientExpenseWithinBalance(t *testing.T) {
	h := newHarness(t)
	c := h.client(t, "Acme", 50)

	_, err := h.treasuryUC.Post(context.Background(),
		cashPosting(domain.SourceClient, domain.TransactionExpense, c.ID, "50"))
	require.NoError(t, err)

	assert.True(t, h.balance(t, clientSubject(c.ID)).IsZero())
}

func TestTreasury_CompanyPostingsChargeClient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", 0)

	m, err := h.treasuryUC.Post(ctx, cashPosting(domain.SourceCompany, domain.TransactionIncome, c.ID, "40"))
	require.NoError(t, err)
	assert.Equal(t, domain.MovementSourceCompanyAccount, m.MovementSource)
	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("-40")), "company income is charged to the client")

	_, err = h.treasuryUC.Post(ctx, cashPosting(domain.SourceCompany, domain.TransactionExpense, c.ID, "15"))
	require.NoError(t, err)
	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("-25")))

	logs := h.chain(t, clientSubject(c.ID))
	require.Len(t, logs, 2)
	assert.Equal(t, "Treasury withdrawal by system", logs[0].Note)
	assert.Equal(t, "Treasury deposit by system", logs[1].Note)
}

func TestTreasury_DriverAndDirectTouchNoBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.driver(t, "Sami", "TRK-9")

	m, err := h.treasuryUC.Post(ctx, cashPosting(domain.SourceDriver, domain.TransactionExpense, d.ID, "30"))
	require.NoError(t, err)
	assert.Equal(t, d.ID, m.RelatedDriverID)
	assert.Equal(t, "Payment from driver account Sami", m.Description)

	m, err = h.treasuryUC.Post(ctx, cashPosting(domain.SourceDirect, domain.TransactionIncome, "", "99.99"))
	require.NoError(t, err)
	assert.Equal(t, domain.MovementSourceDirectDeposit, m.MovementSource)
	assert.Equal(t, "Direct deposit", m.Description)

	assert.True(t, h.balance(t, domain.Subject{Type: domain.SubjectDriver, ID: d.ID}).IsZero())

	subjects, err := h.logs.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestTreasury_ValidationRejections(t *testing.T) {
	h := newHarness(t)
	c := h.client(t, "Acme", 100)

	tests := []struct {
		name   string
		mutate func(*usecase.PostInput)
		field  string
	}{
		{"unknown source", func(in *usecase.PostInput) { in.Source = "bank" }, "source"},
		{"missing subject", func(in *usecase.PostInput) { in.SubjectID = " " }, "subject_id"},
		{"unknown client", func(in *usecase.PostInput) { in.SubjectID = "CL-404" }, "subject_id"},
		{"zero amount", func(in *usecase.PostInput) { in.Amount = dec("0") }, "paid_amount"},
		{"sub-cent amount", func(in *usecase.PostInput) { in.Amount = dec("1.005") }, "paid_amount"},
		{"unknown type", func(in *usecase.PostInput) { in.TransactionType = "refund" }, "transaction_type"},
		{"other without details", func(in *usecase.PostInput) { in.PaymentMethod = domain.PaymentOther }, "payment_details"},
		{"unknown sale", func(in *usecase.PostInput) { in.RelatedSaleID = "SL-404" }, "related_sale_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cashPosting(domain.SourceClient, domain.TransactionIncome, c.ID, "10")
			tt.mutate(&in)

			_, err := h.treasuryUC.Post(context.Background(), in)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.True(t, verr.HasField(tt.field), "fields: %+v", verr.Fields)
		})
	}

	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("100")))

	in := cashPosting(domain.SourceClient, domain.TransactionIncome, c.ID, "10")
	in.PaymentMethod = domain.PaymentOther
	in.PaymentDetails = "barter"
	_, err := h.treasuryUC.Post(context.Background(), in)
	require.NoError(t, err)
}

func TestTreasury_ConcurrentPostingsAllApplied(t *testing.T) {
	h := newHarness(t)
	c := h.client(t, "Acme", 10)

	const postings = 25

	g, ctx := errgroup.WithContext(context.Background())
	for range postings {
		g.Go(func() error {
			_, err := h.treasuryUC.Post(ctx, cashPosting(domain.SourceClient, domain.TransactionIncome, c.ID, "4.20"))
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("115")), "10 + 25 x 4.20")

	logs := h.chain(t, clientSubject(c.ID))
	require.Len(t, logs, postings+1)
	assert.Empty(t, domain.VerifyChain(logs, h.balance(t, clientSubject(c.ID))))
}

func TestTreasury_PanicRollsBackBalance(t *testing.T) {
	h := newHarness(t, withTreasuryRepo(func(r usecase.TreasuryRepository) usecase.TreasuryRepository {
		return panickingTreasuryRepo{TreasuryRepository: r}
	}))
	c := h.client(t, "Acme", 20)

	_, err := h.treasuryUC.Post(context.Background(),
		cashPosting(domain.SourceClient, domain.TransactionIncome, c.ID, "5"))
	require.ErrorIs(t, err, domain.ErrUnexpected)
	assert.Contains(t, err.Error(), "treasury store exploded")

	assert.True(t, h.balance(t, clientSubject(c.ID)).Equal(dec("20")))
	assert.Len(t, h.chain(t, clientSubject(c.ID)), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.TreasuryRejections.WithLabelValues("unexpected")))
}

func TestTreasury_ListTotals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", 100)
	d := h.driver(t, "Sami", "TRK-9")

	for _, in := range []usecase.PostInput{
		cashPosting(domain.SourceClient, domain.TransactionIncome, c.ID, "30"),
		cashPosting(domain.SourceClient, domain.TransactionExpense, c.ID, "12.50"),
		cashPosting(domain.SourceDriver, domain.TransactionExpense, d.ID, "7"),
	} {
		_, err := h.treasuryUC.Post(ctx, in)
		require.NoError(t, err)
	}

	all, err := h.treasuryUC.List(ctx, usecase.TreasuryFilter{})
	require.NoError(t, err)
	require.Len(t, all.Movements, 3)
	assert.Equal(t, "30.00", all.Totals.Income.StringFixed(2))
	assert.Equal(t, "19.50", all.Totals.Expense.StringFixed(2))
	assert.Equal(t, "10.50", all.Totals.Net.StringFixed(2))

	byClient, err := h.treasuryUC.List(ctx, usecase.TreasuryFilter{ClientID: c.ID})
	require.NoError(t, err)
	assert.Len(t, byClient.Movements, 2)

	_, err = h.treasuryUC.List(ctx, usecase.TreasuryFilter{TransactionType: "refund"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := h.treasuryUC.Get(ctx, all.Movements[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all.Movements[0].ID, got.ID)

	_, err = h.treasuryUC.Get(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrTreasuryMovementNotFound)
}
