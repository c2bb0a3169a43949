// Package app assembles the use cases on top of one storage backend.
package app

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/adapter/repository/memory"
	"github.com/iho/oilledger/internal/adapter/repository/postgres"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
	"github.com/iho/oilledger/internal/usecase"
)

// Repositories bundles the storage ports of one backend.
type Repositories struct {
	Tx        usecase.TransactionManager
	Sequences usecase.SequenceRepository
	Balances  usecase.BalanceRepository
	Logs      usecase.BalanceLogRepository
	Clients   usecase.ClientRepository
	Drivers   usecase.DriverRepository
	OilTypes  usecase.OilTypeRepository
	Commerce  usecase.CommerceRepository
	Movements usecase.MovementRepository
	Treasury  usecase.TreasuryRepository
	Activity  usecase.ActivityRepository
}

// PostgresRepositories returns the PostgreSQL backend.
func PostgresRepositories(db postgres.DB, lockTimeout time.Duration) Repositories {
	return Repositories{
		Tx:        postgres.NewTxManager(db, lockTimeout),
		Sequences: postgres.NewSequenceRepository(db),
		Balances:  postgres.NewBalanceRepository(db),
		Logs:      postgres.NewBalanceLogRepository(db),
		Clients:   postgres.NewClientRepository(db),
		Drivers:   postgres.NewDriverRepository(db),
		OilTypes:  postgres.NewOilTypeRepository(db),
		Commerce:  postgres.NewCommerceRepository(db),
		Movements: postgres.NewMovementRepository(db),
		Treasury:  postgres.NewTreasuryRepository(db),
		Activity:  postgres.NewActivityRepository(db),
	}
}

// MemoryRepositories returns the in-process backend.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Tx:        store,
		Sequences: memory.NewSequenceRepository(store),
		Balances:  memory.NewBalanceRepository(store),
		Logs:      memory.NewBalanceLogRepository(store),
		Clients:   memory.NewClientRepository(store),
		Drivers:   memory.NewDriverRepository(store),
		OilTypes:  memory.NewOilTypeRepository(store),
		Commerce:  memory.NewCommerceRepository(store),
		Movements: memory.NewMovementRepository(store),
		Treasury:  memory.NewTreasuryRepository(store),
		Activity:  memory.NewActivityRepository(),
	}
}

// Options carries the cross-cutting dependencies of the use cases.
type Options struct {
	FreightRate decimal.Decimal
	Logger      zerolog.Logger
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Clock defaults to UTC wall time.
	Clock usecase.Clock
	// Cache collapses repeated reads in the activity log. Nil records
	// every read.
	Cache          usecase.Cache
	ActivityWindow time.Duration
}

// Services holds every use case of the ledger core.
type Services struct {
	Allocator      *usecase.SequenceAllocator
	Ledger         *usecase.BalanceLedger
	Sync           *usecase.MovementSynchronizer
	Clients        *usecase.ClientUseCase
	Drivers        *usecase.DriverUseCase
	OilTypes       *usecase.OilTypeUseCase
	Commerce       *usecase.CommerceUseCase
	Movements      *usecase.MovementUseCase
	Treasury       *usecase.TreasuryUseCase
	Reconciliation *usecase.ReconciliationUseCase
	Statements     *usecase.StatementUseCase
	Activity       *usecase.ActivityUseCase
}

// NewServices wires the use cases over repos.
func NewServices(repos Repositories, opts Options) *Services {
	logger := opts.Logger
	m := opts.Metrics
	clock := opts.Clock
	retrier := postgres.NewRetrier(logger, m)

	allocator := usecase.NewSequenceAllocator(repos.Tx, repos.Sequences, retrier, logger, m)
	ids := postgres.NewULIDGenerator()
	ledger := usecase.NewBalanceLedger(repos.Tx, repos.Balances, repos.Logs, ids, clock, retrier, logger, m)
	sync := usecase.NewMovementSynchronizer(allocator, repos.Commerce, repos.Movements, clock, logger, m)

	return &Services{
		Allocator: allocator,
		Ledger:    ledger,
		Sync:      sync,
		Clients:   usecase.NewClientUseCase(repos.Tx, repos.Clients, allocator, ledger, clock, retrier, logger),
		Drivers:   usecase.NewDriverUseCase(repos.Tx, repos.Drivers, allocator, ledger, clock, retrier, logger),
		OilTypes:  usecase.NewOilTypeUseCase(repos.Tx, repos.OilTypes, allocator, clock, retrier),
		Commerce: usecase.NewCommerceUseCase(repos.Tx, repos.Commerce, repos.Clients, repos.Drivers, repos.OilTypes,
			allocator, sync, clock, retrier, logger, m),
		Movements: usecase.NewMovementUseCase(repos.Tx, repos.Movements, repos.Commerce, repos.Clients, repos.Drivers,
			repos.OilTypes, allocator, sync, opts.FreightRate, clock, retrier, logger, m),
		Treasury: usecase.NewTreasuryUseCase(repos.Tx, repos.Treasury, repos.Clients, repos.Drivers, repos.Commerce,
			ledger, clock, retrier, logger, m),
		Reconciliation: usecase.NewReconciliationUseCase(repos.Balances, repos.Logs, clock, logger, m),
		Statements:     usecase.NewStatementUseCase(repos.Clients, repos.Commerce, repos.Treasury),
		Activity:       usecase.NewActivityUseCase(repos.Activity, opts.Cache, ids, clock, opts.ActivityWindow, logger),
	}
}
