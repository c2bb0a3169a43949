// Package memory is an in-process implementation of the repository ports.
//
// Transactions are serialized: Begin waits for the previous transaction to
// finish, then works on a private copy of the data that Commit publishes.
// Reads outside a transaction only ever see committed data.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

var errDuplicateKey = errors.New("duplicate key")

type state struct {
	clients     map[string]*domain.Client
	drivers     map[string]*domain.Driver
	oilTypes    map[string]*domain.OilType
	companies   map[string]*domain.CompanyAccount
	commerce    map[domain.OperationType]map[string]*domain.CommerceRecord
	movements   map[string]*domain.VehicleMovement
	treasury    map[int64]*domain.TreasuryMovement
	treasurySeq int64
	logs        []*domain.BalanceChangeLog
	counters    map[string]int64
}

func newState() *state {
	return &state{
		clients:   make(map[string]*domain.Client),
		drivers:   make(map[string]*domain.Driver),
		oilTypes:  make(map[string]*domain.OilType),
		companies: make(map[string]*domain.CompanyAccount),
		commerce: map[domain.OperationType]map[string]*domain.CommerceRecord{
			domain.OperationSale:     make(map[string]*domain.CommerceRecord),
			domain.OperationPurchase: make(map[string]*domain.CommerceRecord),
		},
		movements: make(map[string]*domain.VehicleMovement),
		treasury:  make(map[int64]*domain.TreasuryMovement),
		counters:  make(map[string]int64),
	}
}

// clone copies every record so a transaction can be discarded.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.clients {
		cp := *v
		c.clients[k] = &cp
	}
	for k, v := range s.drivers {
		cp := *v
		c.drivers[k] = &cp
	}
	for k, v := range s.oilTypes {
		cp := *v
		c.oilTypes[k] = &cp
	}
	for k, v := range s.companies {
		cp := *v
		c.companies[k] = &cp
	}
	for kind, records := range s.commerce {
		for k, v := range records {
			cp := *v
			c.commerce[kind][k] = &cp
		}
	}
	for k, v := range s.movements {
		cp := *v
		c.movements[k] = &cp
	}
	for k, v := range s.treasury {
		cp := *v
		c.treasury[k] = &cp
	}
	c.treasurySeq = s.treasurySeq
	c.logs = make([]*domain.BalanceChangeLog, len(s.logs))
	for i, v := range s.logs {
		cp := *v
		c.logs[i] = &cp
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}

	return c
}

// Store holds the committed data and hands out transactions.
type Store struct {
	sem  chan struct{}
	mu   sync.RWMutex
	data *state
}

// NewStore creates an empty store with the company account seeded.
func NewStore() *Store {
	data := newState()
	data.companies[domain.CompanyAccountID] = &domain.CompanyAccount{
		ID:        domain.CompanyAccountID,
		Name:      "Company",
		Balance:   decimal.Zero,
		UpdatedAt: time.Now().UTC(),
	}

	return &Store{
		sem:  make(chan struct{}, 1),
		data: data,
	}
}

// Tx is a memory transaction.
type Tx struct {
	store *Store
	work  *state
	mu    sync.Mutex
	done  bool
}

// Begin waits for exclusive access and starts a transaction. A context that
// ends first yields a transient StorageError.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, &domain.StorageError{Op: "begin transaction", Err: ctx.Err(), Transient: true}
	}

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	return &Tx{store: s, work: work}, nil
}

// Commit publishes the transaction's data.
func (t *Tx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return &domain.StorageError{Op: "commit", Err: errors.New("transaction already finished")}
	}

	t.store.mu.Lock()
	t.store.data = t.work
	t.store.mu.Unlock()

	t.finish()

	return nil
}

// Rollback discards the transaction's data. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}

	t.finish()

	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.work = nil
	<-t.store.sem
}

// inTx returns the working state of tx.
func (s *Store) inTx(tx usecase.Transaction) (*state, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx.store != s {
		return nil, &domain.StorageError{Op: "use transaction", Err: fmt.Errorf("foreign transaction %T", tx)}
	}

	mtx.mu.Lock()
	defer mtx.mu.Unlock()

	if mtx.done {
		return nil, &domain.StorageError{Op: "use transaction", Err: errors.New("transaction already finished")}
	}

	return mtx.work, nil
}

// read runs fn against the committed data.
func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s.data)
}

func duplicate(op, key string) error {
	return &domain.StorageError{Op: op, Err: fmt.Errorf("%w: %s", errDuplicateKey, key)}
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}

	if offset >= len(items) {
		return []T{}
	}

	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
