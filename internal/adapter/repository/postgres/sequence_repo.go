package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// identifierTables maps each id series to the table whose id column carries it.
var identifierTables = map[string]string{
	domain.PrefixClient:           "clients",
	domain.PrefixDriver:           "drivers",
	domain.PrefixOilType:          "oil_types",
	domain.PrefixSale:             "sales",
	domain.PrefixPurchase:         "purchases",
	domain.PrefixInternalMovement: "vehicle_movements",
	domain.PrefixExternalMovement: "vehicle_movements",
}

// SequenceRepository implements usecase.SequenceRepository on the id_sequences table.
type SequenceRepository struct {
	db DB
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(db DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// LockCounter reads the counter row with FOR UPDATE.
func (r *SequenceRepository) LockCounter(ctx context.Context, tx usecase.Transaction, prefix string) (int64, bool, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return 0, false, err
	}

	var last int64
	err = q.QueryRow(ctx,
		`SELECT last_value FROM id_sequences WHERE prefix = $1 FOR UPDATE`,
		prefix,
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageError("lock sequence counter", err)
	}

	return last, true, nil
}

// InitCounter inserts the counter row. A concurrent initializer wins and this
// call becomes a no-op once its transaction commits.
func (r *SequenceRepository) InitCounter(ctx context.Context, tx usecase.Transaction, prefix string, seed int64) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO id_sequences (prefix, last_value) VALUES ($1, $2) ON CONFLICT (prefix) DO NOTHING`,
		prefix, seed,
	)

	return storageError("init sequence counter", err)
}

// StoreCounter writes the last allocated value.
func (r *SequenceRepository) StoreCounter(ctx context.Context, tx usecase.Transaction, prefix string, value int64) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE id_sequences SET last_value = $2 WHERE prefix = $1`,
		prefix, value,
	)
	if err != nil {
		return storageError("store sequence counter", err)
	}

	if tag.RowsAffected() != 1 {
		return storageError("store sequence counter", fmt.Errorf("counter %q not found", prefix))
	}

	return nil
}

// Identifiers returns the ids of prefix, highest first. Longer suffixes sort
// first so CL-1000 ranks above CL-999.
func (r *SequenceRepository) Identifiers(ctx context.Context, tx usecase.Transaction, prefix string) ([]string, error) {
	table, ok := identifierTables[prefix]
	if !ok {
		return nil, nil
	}

	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT id FROM %s WHERE starts_with(id, $1) ORDER BY length(id) DESC, id DESC`,
		table,
	)

	rows, err := q.Query(ctx, query, prefix)
	if err != nil {
		return nil, storageError("list identifiers", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storageError("list identifiers", err)
	}

	return ids, nil
}
