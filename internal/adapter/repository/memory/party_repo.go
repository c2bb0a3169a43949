package memory

import (
	"context"
	"sort"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// ClientRepository implements usecase.ClientRepository.
type ClientRepository struct {
	store *Store
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(store *Store) *ClientRepository {
	return &ClientRepository{store: store}
}

// Create inserts a new client.
func (r *ClientRepository) Create(_ context.Context, tx usecase.Transaction, client *domain.Client) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.clients[client.ID]; ok {
		return duplicate("create client", client.ID)
	}

	cp := *client
	st.clients[client.ID] = &cp

	return nil
}

// GetByID retrieves a client by ID.
func (r *ClientRepository) GetByID(_ context.Context, id string) (*domain.Client, error) {
	var client *domain.Client
	r.store.read(func(st *state) {
		if c, ok := st.clients[id]; ok {
			cp := *c
			client = &cp
		}
	})

	if client == nil {
		return nil, domain.ErrClientNotFound
	}

	return client, nil
}

// GetByIDForUpdate retrieves a client inside tx.
func (r *ClientRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Client, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	c, ok := st.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}

	cp := *c

	return &cp, nil
}

// Update writes the profile fields and keeps the stored balance.
func (r *ClientRepository) Update(_ context.Context, tx usecase.Transaction, client *domain.Client) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	current, ok := st.clients[client.ID]
	if !ok {
		return domain.ErrClientNotFound
	}

	current.Name = client.Name
	current.Phone = client.Phone
	current.Address = client.Address
	current.UpdatedAt = client.UpdatedAt

	return nil
}

// List lists clients ordered by id.
func (r *ClientRepository) List(_ context.Context, limit, offset int) ([]*domain.Client, error) {
	var clients []*domain.Client
	r.store.read(func(st *state) {
		for _, c := range st.clients {
			cp := *c
			clients = append(clients, &cp)
		}
	})

	sort.Slice(clients, func(i, j int) bool { return lessID(clients[i].ID, clients[j].ID) })

	return page(clients, limit, offset), nil
}

// DriverRepository implements usecase.DriverRepository.
type DriverRepository struct {
	store *Store
}

// NewDriverRepository creates a new DriverRepository.
func NewDriverRepository(store *Store) *DriverRepository {
	return &DriverRepository{store: store}
}

// Create inserts a new driver.
func (r *DriverRepository) Create(_ context.Context, tx usecase.Transaction, driver *domain.Driver) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.drivers[driver.ID]; ok {
		return duplicate("create driver", driver.ID)
	}

	cp := *driver
	st.drivers[driver.ID] = &cp

	return nil
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	var driver *domain.Driver
	r.store.read(func(st *state) {
		if d, ok := st.drivers[id]; ok {
			cp := *d
			driver = &cp
		}
	})

	if driver == nil {
		return nil, domain.ErrDriverNotFound
	}

	return driver, nil
}

// GetByIDForUpdate retrieves a driver inside tx.
func (r *DriverRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Driver, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	d, ok := st.drivers[id]
	if !ok {
		return nil, domain.ErrDriverNotFound
	}

	cp := *d

	return &cp, nil
}

// Update writes the profile fields and keeps the stored balance.
func (r *DriverRepository) Update(_ context.Context, tx usecase.Transaction, driver *domain.Driver) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	current, ok := st.drivers[driver.ID]
	if !ok {
		return domain.ErrDriverNotFound
	}

	current.Name = driver.Name
	current.Phone = driver.Phone
	current.VehicleNumber = driver.VehicleNumber
	current.UpdatedAt = driver.UpdatedAt

	return nil
}

// List lists drivers ordered by id.
func (r *DriverRepository) List(_ context.Context, limit, offset int) ([]*domain.Driver, error) {
	var drivers []*domain.Driver
	r.store.read(func(st *state) {
		for _, d := range st.drivers {
			cp := *d
			drivers = append(drivers, &cp)
		}
	})

	sort.Slice(drivers, func(i, j int) bool { return lessID(drivers[i].ID, drivers[j].ID) })

	return page(drivers, limit, offset), nil
}

// OilTypeRepository implements usecase.OilTypeRepository.
type OilTypeRepository struct {
	store *Store
}

// NewOilTypeRepository creates a new OilTypeRepository.
func NewOilTypeRepository(store *Store) *OilTypeRepository {
	return &OilTypeRepository{store: store}
}

// Create inserts a new oil type.
func (r *OilTypeRepository) Create(_ context.Context, tx usecase.Transaction, oilType *domain.OilType) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.oilTypes[oilType.ID]; ok {
		return duplicate("create oil type", oilType.ID)
	}

	cp := *oilType
	st.oilTypes[oilType.ID] = &cp

	return nil
}

// GetByID retrieves an oil type by ID.
func (r *OilTypeRepository) GetByID(_ context.Context, id string) (*domain.OilType, error) {
	var oilType *domain.OilType
	r.store.read(func(st *state) {
		if o, ok := st.oilTypes[id]; ok {
			cp := *o
			oilType = &cp
		}
	})

	if oilType == nil {
		return nil, domain.ErrOilTypeNotFound
	}

	return oilType, nil
}

// GetByIDForUpdate retrieves an oil type inside tx.
func (r *OilTypeRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.OilType, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	o, ok := st.oilTypes[id]
	if !ok {
		return nil, domain.ErrOilTypeNotFound
	}

	cp := *o

	return &cp, nil
}

// Update writes name, price and stock.
func (r *OilTypeRepository) Update(_ context.Context, tx usecase.Transaction, oilType *domain.OilType) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	current, ok := st.oilTypes[oilType.ID]
	if !ok {
		return domain.ErrOilTypeNotFound
	}

	current.Name = oilType.Name
	current.PricePerLiter = oilType.PricePerLiter
	current.CurrentQuantity = oilType.CurrentQuantity
	current.UpdatedAt = oilType.UpdatedAt

	return nil
}

// List lists oil types ordered by id.
func (r *OilTypeRepository) List(_ context.Context, limit, offset int) ([]*domain.OilType, error) {
	var oilTypes []*domain.OilType
	r.store.read(func(st *state) {
		for _, o := range st.oilTypes {
			cp := *o
			oilTypes = append(oilTypes, &cp)
		}
	})

	sort.Slice(oilTypes, func(i, j int) bool { return lessID(oilTypes[i].ID, oilTypes[j].ID) })

	return page(oilTypes, limit, offset), nil
}

// lessID orders sequence ids numerically within a prefix: shorter ids first,
// then lexically.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}

	return a < b
}
