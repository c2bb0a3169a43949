package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/oilledger/internal/adapter/repository/memory"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
	"github.com/iho/oilledger/internal/usecase"
)

type sequentialIDs struct {
	n atomic.Int64
}

func (g *sequentialIDs) Generate() string {
	return fmt.Sprintf("log-%06d", g.n.Add(1))
}

// countingCommerceRepo counts raw writes to detect runaway synchronization.
type countingCommerceRepo struct {
	usecase.CommerceRepository
	updates atomic.Int32
}

func (r *countingCommerceRepo) Update(ctx context.Context, tx usecase.Transaction, record *domain.CommerceRecord) error {
	r.updates.Add(1)
	return r.CommerceRepository.Update(ctx, tx, record)
}

type countingMovementRepo struct {
	usecase.MovementRepository
	creates atomic.Int32
	updates atomic.Int32
}

func (r *countingMovementRepo) Create(ctx context.Context, tx usecase.Transaction, movement *domain.VehicleMovement) error {
	r.creates.Add(1)
	return r.MovementRepository.Create(ctx, tx, movement)
}

func (r *countingMovementRepo) Update(ctx context.Context, tx usecase.Transaction, movement *domain.VehicleMovement) error {
	r.updates.Add(1)
	return r.MovementRepository.Update(ctx, tx, movement)
}

type harness struct {
	store     *memory.Store
	metrics   *metrics.Metrics
	clients   *memory.ClientRepository
	drivers   *memory.DriverRepository
	oilTypes  *memory.OilTypeRepository
	balances  *memory.BalanceRepository
	logs      *memory.BalanceLogRepository
	treasury  usecase.TreasuryRepository
	commerce  *countingCommerceRepo
	movements *countingMovementRepo

	allocator      *usecase.SequenceAllocator
	ledger         *usecase.BalanceLedger
	sync           *usecase.MovementSynchronizer
	clientUC       *usecase.ClientUseCase
	driverUC       *usecase.DriverUseCase
	oilTypeUC      *usecase.OilTypeUseCase
	commerceUC     *usecase.CommerceUseCase
	movementUC     *usecase.MovementUseCase
	treasuryUC     *usecase.TreasuryUseCase
	reconciliation *usecase.ReconciliationUseCase
	statements     *usecase.StatementUseCase
}

type harnessOption func(*harness)

func withTreasuryRepo(wrap func(usecase.TreasuryRepository) usecase.TreasuryRepository) harnessOption {
	return func(h *harness) { h.treasury = wrap(h.treasury) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	store := memory.NewStore()
	logger := zerolog.Nop()

	h := &harness{
		store:     store,
		metrics:   metrics.New(prometheus.NewRegistry()),
		clients:   memory.NewClientRepository(store),
		drivers:   memory.NewDriverRepository(store),
		oilTypes:  memory.NewOilTypeRepository(store),
		balances:  memory.NewBalanceRepository(store),
		logs:      memory.NewBalanceLogRepository(store),
		treasury:  memory.NewTreasuryRepository(store),
		commerce:  &countingCommerceRepo{CommerceRepository: memory.NewCommerceRepository(store)},
		movements: &countingMovementRepo{MovementRepository: memory.NewMovementRepository(store)},
	}
	for _, opt := range opts {
		opt(h)
	}

	ids := &sequentialIDs{}
	seqRepo := memory.NewSequenceRepository(store)

	h.allocator = usecase.NewSequenceAllocator(store, seqRepo, nil, logger, h.metrics)
	h.ledger = usecase.NewBalanceLedger(store, h.balances, h.logs, ids, nil, nil, logger, h.metrics)
	h.sync = usecase.NewMovementSynchronizer(h.allocator, h.commerce, h.movements, nil, logger, h.metrics)
	h.clientUC = usecase.NewClientUseCase(store, h.clients, h.allocator, h.ledger, nil, nil, logger)
	h.driverUC = usecase.NewDriverUseCase(store, h.drivers, h.allocator, h.ledger, nil, nil, logger)
	h.oilTypeUC = usecase.NewOilTypeUseCase(store, h.oilTypes, h.allocator, nil, nil)
	h.commerceUC = usecase.NewCommerceUseCase(store, h.commerce, h.clients, h.drivers, h.oilTypes,
		h.allocator, h.sync, nil, nil, logger, h.metrics)
	h.movementUC = usecase.NewMovementUseCase(store, h.movements, h.commerce, h.clients, h.drivers, h.oilTypes,
		h.allocator, h.sync, decimal.Zero, nil, nil, logger, h.metrics)
	h.treasuryUC = usecase.NewTreasuryUseCase(store, h.treasury, h.clients, h.drivers, h.commerce,
		h.ledger, nil, nil, logger, h.metrics)
	h.reconciliation = usecase.NewReconciliationUseCase(h.balances, h.logs, nil, logger, h.metrics)
	h.statements = usecase.NewStatementUseCase(h.clients, h.commerce, h.treasury)

	return h
}

func (h *harness) client(t *testing.T, name string, opening int64) *domain.Client {
	t.Helper()

	c, err := h.clientUC.CreateClient(context.Background(), usecase.CreateClientInput{
		Name:           name,
		OpeningBalance: decimal.NewFromInt(opening),
	})
	require.NoError(t, err)

	return c
}

func (h *harness) driver(t *testing.T, name, vehicle string) *domain.Driver {
	t.Helper()

	d, err := h.driverUC.CreateDriver(context.Background(), usecase.CreateDriverInput{
		Name:          name,
		VehicleNumber: vehicle,
	})
	require.NoError(t, err)

	return d
}

func (h *harness) oilType(t *testing.T) *domain.OilType {
	t.Helper()

	o, err := h.oilTypeUC.CreateOilType(context.Background(), usecase.CreateOilTypeInput{
		Name:          "Diesel",
		PricePerLiter: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)

	return o
}

func (h *harness) balance(t *testing.T, subject domain.Subject) decimal.Decimal {
	t.Helper()

	b, err := h.balances.GetBalance(context.Background(), subject)
	require.NoError(t, err)

	return b
}

func (h *harness) chain(t *testing.T, subject domain.Subject) []*domain.BalanceChangeLog {
	t.Helper()

	logs, err := h.logs.ListChain(context.Background(), subject)
	require.NoError(t, err)

	return logs
}

func clientSubject(id string) domain.Subject {
	return domain.Subject{Type: domain.SubjectClient, ID: id}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
