package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// SequenceRepository stores the per-prefix id counters.
type SequenceRepository interface {
	// LockCounter returns the last allocated value and holds a write lock on
	// the counter until tx ends. found is false when the prefix has no counter yet.
	LockCounter(ctx context.Context, tx Transaction, prefix string) (last int64, found bool, err error)
	// InitCounter creates the counter with seed unless another writer already did.
	InitCounter(ctx context.Context, tx Transaction, prefix string, seed int64) error
	StoreCounter(ctx context.Context, tx Transaction, prefix string, value int64) error
	// Identifiers returns the existing identifiers carrying prefix, highest
	// first. Longer suffixes rank above shorter ones.
	Identifiers(ctx context.Context, tx Transaction, prefix string) ([]string, error)
}

// BalanceRepository reads and writes the stored balance of any subject.
type BalanceRepository interface {
	GetBalance(ctx context.Context, subject domain.Subject) (decimal.Decimal, error)
	GetBalanceForUpdate(ctx context.Context, tx Transaction, subject domain.Subject) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx Transaction, subject domain.Subject, balance decimal.Decimal, updatedAt time.Time) error
}

// BalanceLogRepository defines data access for balance change logs.
type BalanceLogRepository interface {
	Create(ctx context.Context, tx Transaction, log *domain.BalanceChangeLog) error
	// ListBySubject returns the newest entries first.
	ListBySubject(ctx context.Context, subject domain.Subject, limit, offset int) ([]*domain.BalanceChangeLog, error)
	// ListChain returns every entry of a subject in creation order.
	ListChain(ctx context.Context, subject domain.Subject) ([]*domain.BalanceChangeLog, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
}

// ClientRepository defines data access for clients.
type ClientRepository interface {
	Create(ctx context.Context, tx Transaction, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Client, error)
	// Update writes the profile fields. The balance is only written by BalanceRepository.
	Update(ctx context.Context, tx Transaction, client *domain.Client) error
	List(ctx context.Context, limit, offset int) ([]*domain.Client, error)
}

// DriverRepository defines data access for drivers.
type DriverRepository interface {
	Create(ctx context.Context, tx Transaction, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Driver, error)
	// Update writes the profile fields. The balance is only written by BalanceRepository.
	Update(ctx context.Context, tx Transaction, driver *domain.Driver) error
	List(ctx context.Context, limit, offset int) ([]*domain.Driver, error)
}

// OilTypeRepository defines data access for oil types.
type OilTypeRepository interface {
	Create(ctx context.Context, tx Transaction, oilType *domain.OilType) error
	GetByID(ctx context.Context, id string) (*domain.OilType, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.OilType, error)
	Update(ctx context.Context, tx Transaction, oilType *domain.OilType) error
	List(ctx context.Context, limit, offset int) ([]*domain.OilType, error)
}

// CommerceFilter narrows commerce record listings. A zero Limit means no limit.
type CommerceFilter struct {
	Kind     domain.OperationType
	ClientID string
	Limit    int
	Offset   int
}

// CommerceRepository defines data access for sales and purchases.
type CommerceRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.CommerceRecord) error
	GetByID(ctx context.Context, kind domain.OperationType, id string) (*domain.CommerceRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, kind domain.OperationType, id string) (*domain.CommerceRecord, error)
	// Update is a raw write. It never triggers movement synchronization.
	Update(ctx context.Context, tx Transaction, record *domain.CommerceRecord) error
	// Delete removes a record. Treasury movements referencing it lose the reference.
	Delete(ctx context.Context, tx Transaction, kind domain.OperationType, id string) error
	List(ctx context.Context, filter CommerceFilter) ([]*domain.CommerceRecord, error)
}

// MovementFilter narrows vehicle movement listings. A zero Limit means no limit.
type MovementFilter struct {
	Type     domain.MovementType
	DriverID string
	Limit    int
	Offset   int
}

// MovementRepository defines data access for vehicle movements.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.VehicleMovement) error
	GetByID(ctx context.Context, id string) (*domain.VehicleMovement, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.VehicleMovement, error)
	// GetByOperationForUpdate returns the internal movement of a commerce record
	// or domain.ErrMovementNotFound.
	GetByOperationForUpdate(ctx context.Context, tx Transaction, kind domain.OperationType, operationID string) (*domain.VehicleMovement, error)
	// Update is a raw write. It never triggers commerce synchronization.
	Update(ctx context.Context, tx Transaction, movement *domain.VehicleMovement) error
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, filter MovementFilter) ([]*domain.VehicleMovement, error)
}

// TreasuryFilter narrows treasury listings. A zero Limit means no limit.
type TreasuryFilter struct {
	ClientID        string
	DriverID        string
	TransactionType domain.TransactionType
	Limit           int
	Offset          int
}

// TreasuryRepository defines data access for treasury movements.
type TreasuryRepository interface {
	// Create assigns the movement ID.
	Create(ctx context.Context, tx Transaction, movement *domain.TreasuryMovement) error
	GetByID(ctx context.Context, id int64) (*domain.TreasuryMovement, error)
	List(ctx context.Context, filter TreasuryFilter) ([]*domain.TreasuryMovement, error)
}

// ActivityFilter narrows activity listings. A zero Limit means no limit.
type ActivityFilter struct {
	ActorID string
	Action  string
	Limit   int
	Offset  int
}

// ActivityRepository stores the operator activity trail. Entries are written
// outside request transactions.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	// List returns the newest entries first.
	List(ctx context.Context, filter ActivityFilter) ([]*domain.ActivityLog, error)
}

// Cache is a shared key/value store with expiry.
type Cache interface {
	// SetNX stores value unless key is already set and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock is the current timestamp source.
type Clock interface {
	Now() time.Time
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a reservation whose request did not complete.
	Release(ctx context.Context, key string) error
}
