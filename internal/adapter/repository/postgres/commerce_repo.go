package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// commerceTable describes where one kind of commerce record lives.
type commerceTable struct {
	name        string
	partyColumn string
}

var commerceTables = map[domain.OperationType]commerceTable{
	domain.OperationSale:     {name: "sales", partyColumn: "client_id"},
	domain.OperationPurchase: {name: "purchases", partyColumn: "supplier_id"},
}

func (t commerceTable) columns() string {
	return `id, date, ` + t.partyColumn + `, oil_type_id, COALESCE(driver_id, ''), vehicle_number,
		quantity, price, amount, loading_location, unloading_location,
		driver_freight, client_freight, description, created_by, created_at, updated_at`
}

// CommerceRepository implements usecase.CommerceRepository over the sales and
// purchases tables.
type CommerceRepository struct {
	db DB
}

// NewCommerceRepository creates a new CommerceRepository.
func NewCommerceRepository(db DB) *CommerceRepository {
	return &CommerceRepository{db: db}
}

func lookupCommerceTable(kind domain.OperationType) (commerceTable, error) {
	t, ok := commerceTables[kind]
	if !ok {
		return commerceTable{}, domain.NewValidationError("kind", "must be sale or purchase")
	}

	return t, nil
}

// Create inserts a sale or purchase.
func (r *CommerceRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.CommerceRecord) error {
	if err := domain.ValidateFreight(record.DriverFreight, record.ClientFreight); err != nil {
		return err
	}

	t, err := lookupCommerceTable(record.Kind)
	if err != nil {
		return err
	}

	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		id, date, %s, oil_type_id, driver_id, vehicle_number,
		quantity, price, amount, loading_location, unloading_location,
		driver_freight, client_freight, description, created_by, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.name, t.partyColumn)

	_, err = q.Exec(ctx, query,
		record.ID, timeToPgDate(record.Date), record.ClientID, record.OilTypeID,
		nullText(record.DriverID), record.VehicleNumber,
		decimalToNumeric(record.Quantity), decimalToNumeric(record.Price), decimalToNumeric(record.Amount),
		record.LoadingLocation, record.UnloadingLocation,
		nullDecimalToNumeric(record.DriverFreight), nullDecimalToNumeric(record.ClientFreight),
		record.Description, record.CreatedBy,
		timeToPgTimestamptz(record.CreatedAt), timeToPgTimestamptz(record.UpdatedAt),
	)

	return storageError("create "+string(record.Kind), err)
}

// GetByID retrieves a record by kind and id.
func (r *CommerceRepository) GetByID(ctx context.Context, kind domain.OperationType, id string) (*domain.CommerceRecord, error) {
	t, err := lookupCommerceTable(kind)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, r.db, kind, `SELECT `+t.columns()+` FROM `+t.name+` WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a record with a FOR UPDATE lock.
func (r *CommerceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, kind domain.OperationType, id string) (*domain.CommerceRecord, error) {
	t, err := lookupCommerceTable(kind)
	if err != nil {
		return nil, err
	}

	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q, kind, `SELECT `+t.columns()+` FROM `+t.name+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *CommerceRepository) get(ctx context.Context, q querier, kind domain.OperationType, query, id string) (*domain.CommerceRecord, error) {
	record, err := scanCommerceRecord(q.QueryRow(ctx, query, id), kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kind.NotFoundError()
	}
	if err != nil {
		return nil, storageError("get "+string(kind), err)
	}

	return record, nil
}

// Update overwrites the mutable fields of a record. Creation fields are kept.
func (r *CommerceRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.CommerceRecord) error {
	if err := domain.ValidateFreight(record.DriverFreight, record.ClientFreight); err != nil {
		return err
	}

	t, err := lookupCommerceTable(record.Kind)
	if err != nil {
		return err
	}

	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET
		date = $2, %s = $3, oil_type_id = $4, driver_id = $5, vehicle_number = $6,
		quantity = $7, price = $8, amount = $9, loading_location = $10, unloading_location = $11,
		driver_freight = $12, client_freight = $13, description = $14, updated_at = $15
	WHERE id = $1`, t.name, t.partyColumn)

	tag, err := q.Exec(ctx, query,
		record.ID, timeToPgDate(record.Date), record.ClientID, record.OilTypeID,
		nullText(record.DriverID), record.VehicleNumber,
		decimalToNumeric(record.Quantity), decimalToNumeric(record.Price), decimalToNumeric(record.Amount),
		record.LoadingLocation, record.UnloadingLocation,
		nullDecimalToNumeric(record.DriverFreight), nullDecimalToNumeric(record.ClientFreight),
		record.Description, timeToPgTimestamptz(record.UpdatedAt),
	)
	if err != nil {
		return storageError("update "+string(record.Kind), err)
	}

	if tag.RowsAffected() == 0 {
		return record.Kind.NotFoundError()
	}

	return nil
}

// Delete removes a record. Treasury movements that referenced it keep their
// amounts and lose the reference.
func (r *CommerceRepository) Delete(ctx context.Context, tx usecase.Transaction, kind domain.OperationType, id string) error {
	t, err := lookupCommerceTable(kind)
	if err != nil {
		return err
	}

	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM `+t.name+` WHERE id = $1`, id)
	if err != nil {
		return storageError("delete "+string(kind), err)
	}

	if tag.RowsAffected() == 0 {
		return kind.NotFoundError()
	}

	return nil
}

// List lists records of one kind, newest first.
func (r *CommerceRepository) List(ctx context.Context, filter usecase.CommerceFilter) ([]*domain.CommerceRecord, error) {
	t, err := lookupCommerceTable(filter.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE ($1 = '' OR %s = $1)
		ORDER BY date DESC, length(id) DESC, id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`,
		t.columns(), t.name, t.partyColumn)

	rows, err := r.db.Query(ctx, query, filter.ClientID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, storageError("list "+string(filter.Kind), err)
	}
	defer rows.Close()

	records := make([]*domain.CommerceRecord, 0)
	for rows.Next() {
		record, err := scanCommerceRecord(rows, filter.Kind)
		if err != nil {
			return nil, storageError("list "+string(filter.Kind), err)
		}
		records = append(records, record)
	}

	return records, storageError("list "+string(filter.Kind), rows.Err())
}

func scanCommerceRecord(row pgx.Row, kind domain.OperationType) (*domain.CommerceRecord, error) {
	var (
		rec                          domain.CommerceRecord
		quantity, price, amount      pgtype.Numeric
		driverFreight, clientFreight pgtype.Numeric
	)

	err := row.Scan(
		&rec.ID, &rec.Date, &rec.ClientID, &rec.OilTypeID, &rec.DriverID, &rec.VehicleNumber,
		&quantity, &price, &amount, &rec.LoadingLocation, &rec.UnloadingLocation,
		&driverFreight, &clientFreight, &rec.Description, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Kind = kind
	rec.Quantity = numericToDecimal(quantity)
	rec.Price = numericToDecimal(price)
	rec.Amount = numericToDecimal(amount)
	rec.DriverFreight = numericToNullDecimal(driverFreight)
	rec.ClientFreight = numericToNullDecimal(clientFreight)

	return &rec, nil
}
