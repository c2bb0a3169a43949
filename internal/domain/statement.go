package domain

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// StatementEntryKind is the origin of a statement line.
type StatementEntryKind string

const (
	StatementSale     StatementEntryKind = "sale"
	StatementPurchase StatementEntryKind = "purchase"
	StatementTreasury StatementEntryKind = "treasury"
)

// StatementEntry is one line of a client statement.
type StatementEntry struct {
	Date           time.Time
	Kind           StatementEntryKind
	Reference      string
	Description    string
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
}

// Statement is a client's account history with a running balance.
type Statement struct {
	ClientID      string
	ClientName    string
	Entries       []StatementEntry
	TotalSales    decimal.Decimal
	TotalPurchase decimal.Decimal
	TotalIncome   decimal.Decimal
	TotalExpense  decimal.Decimal
	FinalBalance  decimal.Decimal
}

// BuildStatement merges a client's sales, purchases and treasury movements.
// Sales count positive, purchases negative, treasury income positive and expense negative.
func BuildStatement(client *Client, sales, purchases []*CommerceRecord, treasury []*TreasuryMovement) *Statement {
	st := &Statement{
		ClientID:      client.ID,
		ClientName:    client.Name,
		TotalSales:    decimal.Zero,
		TotalPurchase: decimal.Zero,
		TotalIncome:   decimal.Zero,
		TotalExpense:  decimal.Zero,
	}

	for _, s := range sales {
		st.TotalSales = st.TotalSales.Add(s.Amount)
		st.Entries = append(st.Entries, StatementEntry{
			Date: s.Date, Kind: StatementSale, Reference: s.ID, Description: s.Description, Amount: s.Amount,
		})
	}

	for _, p := range purchases {
		st.TotalPurchase = st.TotalPurchase.Add(p.Amount)
		st.Entries = append(st.Entries, StatementEntry{
			Date: p.Date, Kind: StatementPurchase, Reference: p.ID, Description: p.Description, Amount: p.Amount.Neg(),
		})
	}

	for _, t := range treasury {
		amount := t.PaidAmount
		if t.TransactionType == TransactionExpense {
			amount = amount.Neg()
			st.TotalExpense = st.TotalExpense.Add(t.PaidAmount)
		} else {
			st.TotalIncome = st.TotalIncome.Add(t.PaidAmount)
		}
		st.Entries = append(st.Entries, StatementEntry{
			Date: t.Date, Kind: StatementTreasury, Reference: treasuryRef(t.ID), Description: t.Description, Amount: amount,
		})
	}

	sort.SliceStable(st.Entries, func(i, j int) bool {
		return st.Entries[i].Date.Before(st.Entries[j].Date)
	})

	running := decimal.Zero
	for i := range st.Entries {
		running = running.Add(st.Entries[i].Amount)
		st.Entries[i].RunningBalance = running
	}
	st.FinalBalance = running

	return st
}

func treasuryRef(id int64) string {
	return "TR-" + strconv.FormatInt(id, 10)
}
