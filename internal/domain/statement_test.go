package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildStatement(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	client := &Client{ID: "CL-001", Name: "Acme"}

	st := BuildStatement(client,
		[]*CommerceRecord{{ID: "SL-001", Date: day(1), Amount: decimal.NewFromInt(500)}},
		[]*CommerceRecord{{ID: "BU-001", Date: day(3), Amount: decimal.NewFromInt(200)}},
		[]*TreasuryMovement{
			{ID: 7, Date: day(2), TransactionType: TransactionExpense, PaidAmount: decimal.NewFromInt(100)},
			{ID: 8, Date: day(4), TransactionType: TransactionIncome, PaidAmount: decimal.NewFromInt(50)},
		},
	)

	wantRefs := []string{"SL-001", "TR-7", "BU-001", "TR-8"}
	wantRunning := []string{"500", "400", "200", "250"}

	if len(st.Entries) != len(wantRefs) {
		t.Fatalf("expected %d entries, got %d", len(wantRefs), len(st.Entries))
	}

	for i, e := range st.Entries {
		if e.Reference != wantRefs[i] {
			t.Errorf("entry %d: reference %s, want %s", i, e.Reference, wantRefs[i])
		}
		if !e.RunningBalance.Equal(decimal.RequireFromString(wantRunning[i])) {
			t.Errorf("entry %d: running %s, want %s", i, e.RunningBalance, wantRunning[i])
		}
	}

	if !st.FinalBalance.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected final balance 250, got %s", st.FinalBalance)
	}

	if !st.TotalExpense.Equal(decimal.NewFromInt(100)) || !st.TotalIncome.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected treasury totals: income=%s expense=%s", st.TotalIncome, st.TotalExpense)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	verr := NewValidationError("quantity", "must be greater than zero")
	if !errors.Is(verr, ErrValidation) {
		t.Fatalf("ValidationError must match ErrValidation")
	}

	ierr := &InsufficientBalanceError{Balance: decimal.NewFromInt(50), Requested: decimal.NewFromInt(100)}
	if !errors.Is(ierr, ErrInsufficientBalance) {
		t.Fatalf("InsufficientBalanceError must match ErrInsufficientBalance")
	}

	cause := errors.New("lock timeout")
	serr := &StorageError{Op: "lock", Err: cause, Transient: true}
	if !errors.Is(serr, ErrStorage) || !errors.Is(serr, cause) {
		t.Fatalf("StorageError must match ErrStorage and unwrap its cause")
	}

	if !IsTransientStorageError(serr) || IsTransientStorageError(cause) {
		t.Fatalf("unexpected transient classification")
	}

	if !IsNotFound(ErrMovementNotFound) || IsNotFound(cause) {
		t.Fatalf("unexpected not-found classification")
	}

	if (&ValidationError{}).OrNil() != nil {
		t.Fatalf("empty ValidationError must collapse to nil")
	}
}
