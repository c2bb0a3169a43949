package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// SequenceRepository implements usecase.SequenceRepository. The store's
// transaction serialization stands in for the counter row lock.
type SequenceRepository struct {
	store *Store
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(store *Store) *SequenceRepository {
	return &SequenceRepository{store: store}
}

// LockCounter returns the last allocated value of prefix.
func (r *SequenceRepository) LockCounter(_ context.Context, tx usecase.Transaction, prefix string) (int64, bool, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return 0, false, err
	}

	last, ok := st.counters[prefix]

	return last, ok, nil
}

// InitCounter creates the counter unless it exists.
func (r *SequenceRepository) InitCounter(_ context.Context, tx usecase.Transaction, prefix string, seed int64) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.counters[prefix]; !ok {
		st.counters[prefix] = seed
	}

	return nil
}

// StoreCounter writes the last allocated value of prefix.
func (r *SequenceRepository) StoreCounter(_ context.Context, tx usecase.Transaction, prefix string, value int64) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	st.counters[prefix] = value

	return nil
}

// Identifiers scans every id-bearing record for ids with prefix, highest first.
func (r *SequenceRepository) Identifiers(_ context.Context, tx usecase.Transaction, prefix string) ([]string, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	var ids []string
	consider := func(id string) {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}

	for id := range st.clients {
		consider(id)
	}
	for id := range st.drivers {
		consider(id)
	}
	for id := range st.oilTypes {
		consider(id)
	}
	for _, records := range st.commerce {
		for id := range records {
			consider(id)
		}
	}
	for id := range st.movements {
		consider(id)
	}

	sort.Slice(ids, func(i, j int) bool { return lessID(ids[j], ids[i]) })

	return ids, nil
}

// BalanceRepository implements usecase.BalanceRepository over clients,
// drivers and the company account.
type BalanceRepository struct {
	store *Store
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(store *Store) *BalanceRepository {
	return &BalanceRepository{store: store}
}

// GetBalance returns the committed balance of subject.
func (r *BalanceRepository) GetBalance(_ context.Context, subject domain.Subject) (decimal.Decimal, error) {
	var (
		balance decimal.Decimal
		err     error
	)
	r.store.read(func(st *state) {
		balance, err = balanceOf(st, subject)
	})

	return balance, err
}

// GetBalanceForUpdate returns the balance of subject inside tx.
func (r *BalanceRepository) GetBalanceForUpdate(_ context.Context, tx usecase.Transaction, subject domain.Subject) (decimal.Decimal, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	return balanceOf(st, subject)
}

// UpdateBalance writes the balance of subject.
func (r *BalanceRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, subject domain.Subject, balance decimal.Decimal, updatedAt time.Time) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	switch subject.Type {
	case domain.SubjectClient:
		c, ok := st.clients[subject.ID]
		if !ok {
			return domain.ErrClientNotFound
		}
		c.Balance = balance
		c.UpdatedAt = updatedAt
	case domain.SubjectDriver:
		d, ok := st.drivers[subject.ID]
		if !ok {
			return domain.ErrDriverNotFound
		}
		d.Balance = balance
		d.UpdatedAt = updatedAt
	case domain.SubjectCompany:
		a, ok := st.companies[subject.ID]
		if !ok {
			return domain.ErrCompanyAccountNotFound
		}
		a.Balance = balance
		a.UpdatedAt = updatedAt
	default:
		return domain.ErrUnknownSubjectType
	}

	return nil
}

func balanceOf(st *state, subject domain.Subject) (decimal.Decimal, error) {
	switch subject.Type {
	case domain.SubjectClient:
		if c, ok := st.clients[subject.ID]; ok {
			return c.Balance, nil
		}
	case domain.SubjectDriver:
		if d, ok := st.drivers[subject.ID]; ok {
			return d.Balance, nil
		}
	case domain.SubjectCompany:
		if a, ok := st.companies[subject.ID]; ok {
			return a.Balance, nil
		}
	default:
		return decimal.Zero, domain.ErrUnknownSubjectType
	}

	return decimal.Zero, subject.Type.NotFoundError()
}

// BalanceLogRepository implements usecase.BalanceLogRepository.
type BalanceLogRepository struct {
	store *Store
}

// NewBalanceLogRepository creates a new BalanceLogRepository.
func NewBalanceLogRepository(store *Store) *BalanceLogRepository {
	return &BalanceLogRepository{store: store}
}

// Create appends a log entry.
func (r *BalanceLogRepository) Create(_ context.Context, tx usecase.Transaction, log *domain.BalanceChangeLog) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	for _, l := range st.logs {
		if l.ID == log.ID {
			return duplicate("create balance change log", log.ID)
		}
	}

	cp := *log
	st.logs = append(st.logs, &cp)

	return nil
}

// ListBySubject returns the newest entries of subject first.
func (r *BalanceLogRepository) ListBySubject(_ context.Context, subject domain.Subject, limit, offset int) ([]*domain.BalanceChangeLog, error) {
	var logs []*domain.BalanceChangeLog
	r.store.read(func(st *state) {
		for i := len(st.logs) - 1; i >= 0; i-- {
			if st.logs[i].Subject == subject {
				cp := *st.logs[i]
				logs = append(logs, &cp)
			}
		}
	})

	return page(logs, limit, offset), nil
}

// ListChain returns every entry of subject in creation order.
func (r *BalanceLogRepository) ListChain(_ context.Context, subject domain.Subject) ([]*domain.BalanceChangeLog, error) {
	var logs []*domain.BalanceChangeLog
	r.store.read(func(st *state) {
		for _, l := range st.logs {
			if l.Subject == subject {
				cp := *l
				logs = append(logs, &cp)
			}
		}
	})

	return logs, nil
}

// ListSubjects returns every subject with at least one entry.
func (r *BalanceLogRepository) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	var subjects []domain.Subject
	r.store.read(func(st *state) {
		seen := make(map[domain.Subject]bool)
		for _, l := range st.logs {
			if !seen[l.Subject] {
				seen[l.Subject] = true
				subjects = append(subjects, l.Subject)
			}
		}
	})

	return subjects, nil
}
