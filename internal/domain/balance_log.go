package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SubjectType is the kind of party owning a balance.
type SubjectType string

const (
	SubjectClient  SubjectType = "client"
	SubjectDriver  SubjectType = "driver"
	SubjectCompany SubjectType = "company"
)

// IsValid checks if the subject type is known.
func (t SubjectType) IsValid() bool {
	switch t {
	case SubjectClient, SubjectDriver, SubjectCompany:
		return true
	}

	return false
}

// NotFoundError returns the not-found sentinel of the subject type.
func (t SubjectType) NotFoundError() error {
	switch t {
	case SubjectClient:
		return ErrClientNotFound
	case SubjectDriver:
		return ErrDriverNotFound
	case SubjectCompany:
		return ErrCompanyAccountNotFound
	}

	return ErrUnknownSubjectType
}

// Subject identifies a balance holder.
type Subject struct {
	Type SubjectType
	ID   string
}

func (s Subject) String() string {
	return string(s.Type) + ":" + s.ID
}

// BalanceChangeLog is an immutable record of one balance mutation.
type BalanceChangeLog struct {
	ID              string
	Subject         Subject
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	ChangeAmount    decimal.Decimal
	ActorID         string
	Note            string
	CreatedAt       time.Time
}

// NewBalanceChangeLog builds the log entry for applying delta to previous.
func NewBalanceChangeLog(id string, subject Subject, previous, delta decimal.Decimal, actorID, note string, at time.Time) *BalanceChangeLog {
	return &BalanceChangeLog{
		ID:              id,
		Subject:         subject,
		PreviousBalance: previous,
		NewBalance:      previous.Add(delta),
		ChangeAmount:    delta,
		ActorID:         actorID,
		Note:            note,
		CreatedAt:       at,
	}
}

// ChainViolation describes a broken link in a subject's change log.
type ChainViolation struct {
	LogID   string `json:"log_id"`
	Message string `json:"message"`
}

// VerifyChain checks that every entry is arithmetically consistent, that each
// entry starts where the previous one ended, and that the stored balance equals
// the last entry's new balance. Logs must be in creation order.
func VerifyChain(logs []*BalanceChangeLog, stored decimal.Decimal) []ChainViolation {
	var violations []ChainViolation

	for i, l := range logs {
		if !l.PreviousBalance.Add(l.ChangeAmount).Equal(l.NewBalance) {
			violations = append(violations, ChainViolation{
				LogID: l.ID,
				Message: fmt.Sprintf("previous %s + change %s != new %s",
					l.PreviousBalance, l.ChangeAmount, l.NewBalance),
			})
		}

		if i > 0 && !logs[i-1].NewBalance.Equal(l.PreviousBalance) {
			violations = append(violations, ChainViolation{
				LogID: l.ID,
				Message: fmt.Sprintf("previous %s does not continue from %s",
					l.PreviousBalance, logs[i-1].NewBalance),
			})
		}
	}

	if len(logs) == 0 {
		if !stored.IsZero() {
			violations = append(violations, ChainViolation{
				Message: fmt.Sprintf("stored balance %s has no change log", stored),
			})
		}

		return violations
	}

	last := logs[len(logs)-1]
	if !last.NewBalance.Equal(stored) {
		violations = append(violations, ChainViolation{
			LogID:   last.ID,
			Message: fmt.Sprintf("stored balance %s differs from last entry %s", stored, last.NewBalance),
		})
	}

	return violations
}
