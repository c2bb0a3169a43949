package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

const movementColumns = `id, movement_type, COALESCE(operation_type, ''), COALESCE(operation_id, ''), date,
	COALESCE(client_id, ''), COALESCE(oil_type_id, ''), quantity, driver_id, vehicle_number,
	loading_location, unloading_location, driver_freight, client_freight, notes,
	created_by, created_at, updated_at`

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	db DB
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(db DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create inserts a movement. The partial unique index on
// (operation_type, operation_id) rejects a second internal movement.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.VehicleMovement) error {
	if err := domain.ValidateFreight(m.DriverFreight, m.ClientFreight); err != nil {
		return err
	}

	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO vehicle_movements (
			id, movement_type, operation_type, operation_id, date,
			client_id, oil_type_id, quantity, driver_id, vehicle_number,
			loading_location, unloading_location, driver_freight, client_freight, notes,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		m.ID, string(m.Type), nullText(string(m.OperationType)), nullText(m.OperationID), timeToPgDate(m.Date),
		nullText(m.ClientID), nullText(m.OilTypeID), decimalToNumeric(m.Quantity), m.DriverID, m.VehicleNumber,
		m.LoadingLocation, m.UnloadingLocation,
		nullDecimalToNumeric(m.DriverFreight), nullDecimalToNumeric(m.ClientFreight), m.Notes,
		m.CreatedBy, timeToPgTimestamptz(m.CreatedAt), timeToPgTimestamptz(m.UpdatedAt),
	)

	return storageError("create vehicle movement", err)
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.VehicleMovement, error) {
	return r.get(ctx, r.db, `SELECT `+movementColumns+` FROM vehicle_movements WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a movement with a FOR UPDATE lock.
func (r *MovementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.VehicleMovement, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q, `SELECT `+movementColumns+` FROM vehicle_movements WHERE id = $1 FOR UPDATE`, id)
}

// GetByOperationForUpdate locks the internal movement of a commerce record.
func (r *MovementRepository) GetByOperationForUpdate(ctx context.Context, tx usecase.Transaction, kind domain.OperationType, operationID string) (*domain.VehicleMovement, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q,
		`SELECT `+movementColumns+` FROM vehicle_movements
		WHERE movement_type = 'internal' AND operation_type = $1 AND operation_id = $2
		FOR UPDATE`,
		string(kind), operationID,
	)
}

func (r *MovementRepository) get(ctx context.Context, q querier, query string, args ...any) (*domain.VehicleMovement, error) {
	m, err := scanMovement(q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMovementNotFound
	}
	if err != nil {
		return nil, storageError("get vehicle movement", err)
	}

	return m, nil
}

// Update overwrites the mutable fields. The movement type, the operation
// reference and the creation fields are never written.
func (r *MovementRepository) Update(ctx context.Context, tx usecase.Transaction, m *domain.VehicleMovement) error {
	if err := domain.ValidateFreight(m.DriverFreight, m.ClientFreight); err != nil {
		return err
	}

	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE vehicle_movements SET
			date = $2, client_id = $3, oil_type_id = $4, quantity = $5, driver_id = $6,
			vehicle_number = $7, loading_location = $8, unloading_location = $9,
			driver_freight = $10, client_freight = $11, notes = $12, updated_at = $13
		WHERE id = $1`,
		m.ID, timeToPgDate(m.Date), nullText(m.ClientID), nullText(m.OilTypeID), decimalToNumeric(m.Quantity),
		m.DriverID, m.VehicleNumber, m.LoadingLocation, m.UnloadingLocation,
		nullDecimalToNumeric(m.DriverFreight), nullDecimalToNumeric(m.ClientFreight), m.Notes,
		timeToPgTimestamptz(m.UpdatedAt),
	)
	if err != nil {
		return storageError("update vehicle movement", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}

	return nil
}

// Delete removes a movement.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM vehicle_movements WHERE id = $1`, id)
	if err != nil {
		return storageError("delete vehicle movement", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}

	return nil
}

// List lists movements, newest first.
func (r *MovementRepository) List(ctx context.Context, filter usecase.MovementFilter) ([]*domain.VehicleMovement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+movementColumns+` FROM vehicle_movements
		WHERE ($1 = '' OR movement_type = $1) AND ($2 = '' OR driver_id = $2)
		ORDER BY date DESC, created_at DESC
		LIMIT NULLIF($3, 0) OFFSET $4`,
		string(filter.Type), filter.DriverID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, storageError("list vehicle movements", err)
	}
	defer rows.Close()

	movements := make([]*domain.VehicleMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, storageError("list vehicle movements", err)
		}
		movements = append(movements, m)
	}

	return movements, storageError("list vehicle movements", rows.Err())
}

func scanMovement(row pgx.Row) (*domain.VehicleMovement, error) {
	var (
		m                            domain.VehicleMovement
		movementType, operationType  string
		quantity                     pgtype.Numeric
		driverFreight, clientFreight pgtype.Numeric
	)

	err := row.Scan(
		&m.ID, &movementType, &operationType, &m.OperationID, &m.Date,
		&m.ClientID, &m.OilTypeID, &quantity, &m.DriverID, &m.VehicleNumber,
		&m.LoadingLocation, &m.UnloadingLocation, &driverFreight, &clientFreight, &m.Notes,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Type = domain.MovementType(movementType)
	m.OperationType = domain.OperationType(operationType)
	m.Quantity = numericToDecimal(quantity)
	m.DriverFreight = numericToNullDecimal(driverFreight)
	m.ClientFreight = numericToNullDecimal(clientFreight)

	return &m, nil
}
