package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the cash direction of a treasury movement.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// IsValid checks if the transaction type is known.
func (t TransactionType) IsValid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// AccountSource is the account a treasury posting is charged against.
type AccountSource string

const (
	SourceClient  AccountSource = "client"
	SourceCompany AccountSource = "company"
	SourceDriver  AccountSource = "driver"
	SourceDirect  AccountSource = "direct"
)

// IsValid checks if the source is known.
func (s AccountSource) IsValid() bool {
	switch s {
	case SourceClient, SourceCompany, SourceDriver, SourceDirect:
		return true
	}

	return false
}

// MovementSource returns the recorded source of a posting.
func (s AccountSource) MovementSource() MovementSource {
	switch s {
	case SourceClient:
		return MovementSourceClientAccount
	case SourceCompany:
		return MovementSourceCompanyAccount
	case SourceDriver:
		return MovementSourceDriverAccount
	default:
		return MovementSourceDirectDeposit
	}
}

// MovementSource is the stored account kind of a treasury movement.
type MovementSource string

const (
	MovementSourceClientAccount  MovementSource = "client_account"
	MovementSourceCompanyAccount MovementSource = "company_account"
	MovementSourceDriverAccount  MovementSource = "driver_account"
	MovementSourceDirectDeposit  MovementSource = "direct_deposit"
)

// PaymentMethod is how the cash moved.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCheck    PaymentMethod = "check"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOther    PaymentMethod = "other"
)

// IsValid checks if the payment method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCheck, PaymentTransfer, PaymentOther:
		return true
	}

	return false
}

// TreasuryDelta translates a posting into the signed balance delta on its subject.
// The boolean is false when the posting does not touch any balance.
//
//	client  income  +amount
//	client  expense -amount
//	company income  -amount (charged to the client account)
//	company expense +amount
//	driver  any     none
func TreasuryDelta(source AccountSource, tt TransactionType, amount decimal.Decimal) (decimal.Decimal, bool) {
	switch source {
	case SourceClient:
		if tt == TransactionIncome {
			return amount, true
		}
		return amount.Neg(), true
	case SourceCompany:
		if tt == TransactionIncome {
			return amount.Neg(), true
		}
		return amount, true
	default:
		return decimal.Zero, false
	}
}

// SubjectType returns the balance subject a source posts against.
func (s AccountSource) SubjectType() (SubjectType, bool) {
	switch s {
	case SourceClient, SourceCompany:
		return SubjectClient, true
	case SourceDriver:
		return SubjectDriver, true
	}

	return "", false
}

// DescribeTreasuryMovement synthesizes the movement description.
func DescribeTreasuryMovement(source AccountSource, tt TransactionType, subjectName string) string {
	direction := "from"
	if tt == TransactionIncome {
		direction = "to"
	}

	switch source {
	case SourceClient:
		return fmt.Sprintf("Payment %s client account %s", direction, subjectName)
	case SourceCompany:
		return fmt.Sprintf("Payment %s company account for client %s", direction, subjectName)
	case SourceDriver:
		return fmt.Sprintf("Payment %s driver account %s", direction, subjectName)
	default:
		if tt == TransactionIncome {
			return "Direct deposit"
		}
		return "Direct withdrawal"
	}
}

// TreasuryLedgerNote is the note written on the balance change log of a posting.
func TreasuryLedgerNote(source AccountSource, tt TransactionType, actorName string) string {
	deposit := tt == TransactionIncome
	if source == SourceCompany {
		deposit = !deposit
	}

	if deposit {
		return "Treasury deposit by " + actorName
	}

	return "Treasury withdrawal by " + actorName
}

// TreasuryMovement is a cash movement in the company treasury.
type TreasuryMovement struct {
	ID                int64
	Date              time.Time
	TransactionType   TransactionType
	MovementSource    MovementSource
	PaidAmount        decimal.Decimal
	PaymentMethod     PaymentMethod
	PaymentDetails    string
	Description       string
	Note              string
	RelatedClientID   string
	RelatedDriverID   string
	RelatedSaleID     string
	RelatedPurchaseID string
	CreatedBy         string
	CreatedAt         time.Time
}

// Validate checks the movement fields.
func (t *TreasuryMovement) Validate() error {
	verr := &ValidationError{}

	if !t.TransactionType.IsValid() {
		verr.Add("transaction_type", "must be income or expense")
	}

	if !t.PaidAmount.IsPositive() {
		verr.Add("paid_amount", "must be greater than zero")
	} else if exceedsScale(t.PaidAmount, MoneyScale) {
		verr.Add("paid_amount", "must have at most 2 decimal places")
	}

	if !t.PaymentMethod.IsValid() {
		verr.Add("payment_method", "must be cash, check, transfer or other")
	}

	if t.PaymentMethod == PaymentOther && strings.TrimSpace(t.PaymentDetails) == "" {
		verr.Add("payment_details", "is required for other payment methods")
	}

	if len(t.Note) > MaxNoteLength {
		verr.Add("note", "must be at most 2000 characters")
	}

	return verr.OrNil()
}

// TreasuryTotals sums a set of movements by direction.
type TreasuryTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// SumTreasury computes income, expense and net totals.
func SumTreasury(movements []*TreasuryMovement) TreasuryTotals {
	totals := TreasuryTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, m := range movements {
		if m.TransactionType == TransactionIncome {
			totals.Income = totals.Income.Add(m.PaidAmount)
		} else {
			totals.Expense = totals.Expense.Add(m.PaidAmount)
		}
	}
	totals.Net = totals.Income.Sub(totals.Expense)

	return totals
}
