package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

const clientColumns = `id, name, phone, address, balance, created_at, updated_at`

// ClientRepository implements usecase.ClientRepository.
type ClientRepository struct {
	db DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create inserts a client.
func (r *ClientRepository) Create(ctx context.Context, tx usecase.Transaction, client *domain.Client) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		client.ID, client.Name, client.Phone, client.Address,
		decimalToNumeric(client.Balance),
		timeToPgTimestamptz(client.CreatedAt), timeToPgTimestamptz(client.UpdatedAt),
	)

	return storageError("create client", err)
}

// GetByID retrieves a client by ID.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.get(ctx, r.db, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a client with a FOR UPDATE lock.
func (r *ClientRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Client, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id)
}

func (r *ClientRepository) get(ctx context.Context, q querier, query, id string) (*domain.Client, error) {
	client, err := scanClient(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, storageError("get client", err)
	}

	return client, nil
}

// Update writes the profile fields.
func (r *ClientRepository) Update(ctx context.Context, tx usecase.Transaction, client *domain.Client) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE clients SET name = $2, phone = $3, address = $4, updated_at = $5 WHERE id = $1`,
		client.ID, client.Name, client.Phone, client.Address, timeToPgTimestamptz(client.UpdatedAt),
	)
	if err != nil {
		return storageError("update client", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}

	return nil
}

// List lists clients ordered by id.
func (r *ClientRepository) List(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY length(id), id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, storageError("list clients", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, storageError("list clients", err)
		}
		clients = append(clients, c)
	}

	return clients, storageError("list clients", rows.Err())
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var (
		c       domain.Client
		balance pgtype.Numeric
	)

	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Balance = numericToDecimal(balance)

	return &c, nil
}

const driverColumns = `id, name, phone, vehicle_number, balance, created_at, updated_at`

// DriverRepository implements usecase.DriverRepository.
type DriverRepository struct {
	db DB
}

// NewDriverRepository creates a new DriverRepository.
func NewDriverRepository(db DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// Create inserts a driver.
func (r *DriverRepository) Create(ctx context.Context, tx usecase.Transaction, driver *domain.Driver) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO drivers (`+driverColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		driver.ID, driver.Name, driver.Phone, driver.VehicleNumber,
		decimalToNumeric(driver.Balance),
		timeToPgTimestamptz(driver.CreatedAt), timeToPgTimestamptz(driver.UpdatedAt),
	)

	return storageError("create driver", err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	return r.get(ctx, r.db, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a driver with a FOR UPDATE lock.
func (r *DriverRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Driver, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q, `SELECT `+driverColumns+` FROM drivers WHERE id = $1 FOR UPDATE`, id)
}

func (r *DriverRepository) get(ctx context.Context, q querier, query, id string) (*domain.Driver, error) {
	d, err := scanDriver(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDriverNotFound
	}
	if err != nil {
		return nil, storageError("get driver", err)
	}

	return d, nil
}

// Update writes the profile fields.
func (r *DriverRepository) Update(ctx context.Context, tx usecase.Transaction, driver *domain.Driver) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE drivers SET name = $2, phone = $3, vehicle_number = $4, updated_at = $5 WHERE id = $1`,
		driver.ID, driver.Name, driver.Phone, driver.VehicleNumber, timeToPgTimestamptz(driver.UpdatedAt),
	)
	if err != nil {
		return storageError("update driver", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDriverNotFound
	}

	return nil
}

// List lists drivers ordered by id.
func (r *DriverRepository) List(ctx context.Context, limit, offset int) ([]*domain.Driver, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+driverColumns+` FROM drivers ORDER BY length(id), id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, storageError("list drivers", err)
	}
	defer rows.Close()

	drivers := make([]*domain.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, storageError("list drivers", err)
		}
		drivers = append(drivers, d)
	}

	return drivers, storageError("list drivers", rows.Err())
}

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var (
		d       domain.Driver
		balance pgtype.Numeric
	)

	if err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.VehicleNumber, &balance, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Balance = numericToDecimal(balance)

	return &d, nil
}

const oilTypeColumns = `id, name, price_per_liter, current_quantity, created_at, updated_at`

// OilTypeRepository implements usecase.OilTypeRepository.
type OilTypeRepository struct {
	db DB
}

// NewOilTypeRepository creates a new OilTypeRepository.
func NewOilTypeRepository(db DB) *OilTypeRepository {
	return &OilTypeRepository{db: db}
}

// Create inserts an oil type.
func (r *OilTypeRepository) Create(ctx context.Context, tx usecase.Transaction, o *domain.OilType) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO oil_types (`+oilTypeColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Name, decimalToNumeric(o.PricePerLiter), decimalToNumeric(o.CurrentQuantity),
		timeToPgTimestamptz(o.CreatedAt), timeToPgTimestamptz(o.UpdatedAt),
	)

	return storageError("create oil type", err)
}

// GetByID retrieves an oil type by ID.
func (r *OilTypeRepository) GetByID(ctx context.Context, id string) (*domain.OilType, error) {
	return r.get(ctx, r.db, `SELECT `+oilTypeColumns+` FROM oil_types WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an oil type with a FOR UPDATE lock.
func (r *OilTypeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.OilType, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q, `SELECT `+oilTypeColumns+` FROM oil_types WHERE id = $1 FOR UPDATE`, id)
}

func (r *OilTypeRepository) get(ctx context.Context, q querier, query, id string) (*domain.OilType, error) {
	o, err := scanOilType(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOilTypeNotFound
	}
	if err != nil {
		return nil, storageError("get oil type", err)
	}

	return o, nil
}

// Update writes name, price and stock.
func (r *OilTypeRepository) Update(ctx context.Context, tx usecase.Transaction, o *domain.OilType) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE oil_types SET name = $2, price_per_liter = $3, current_quantity = $4, updated_at = $5 WHERE id = $1`,
		o.ID, o.Name, decimalToNumeric(o.PricePerLiter), decimalToNumeric(o.CurrentQuantity),
		timeToPgTimestamptz(o.UpdatedAt),
	)
	if err != nil {
		return storageError("update oil type", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOilTypeNotFound
	}

	return nil
}

// List lists oil types ordered by id.
func (r *OilTypeRepository) List(ctx context.Context, limit, offset int) ([]*domain.OilType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+oilTypeColumns+` FROM oil_types ORDER BY length(id), id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, storageError("list oil types", err)
	}
	defer rows.Close()

	oilTypes := make([]*domain.OilType, 0)
	for rows.Next() {
		o, err := scanOilType(rows)
		if err != nil {
			return nil, storageError("list oil types", err)
		}
		oilTypes = append(oilTypes, o)
	}

	return oilTypes, storageError("list oil types", rows.Err())
}

func scanOilType(row pgx.Row) (*domain.OilType, error) {
	var (
		o        domain.OilType
		price    pgtype.Numeric
		quantity pgtype.Numeric
	)

	if err := row.Scan(&o.ID, &o.Name, &price, &quantity, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.PricePerLiter = numericToDecimal(price)
	o.CurrentQuantity = numericToDecimal(quantity)

	return &o, nil
}
