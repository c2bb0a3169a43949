package memory

import (
	"context"
	"sort"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	store *Store
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(store *Store) *MovementRepository {
	return &MovementRepository{store: store}
}

// Create inserts a movement. At most one internal movement may reference an
// operation, and freight ordering is re-checked.
func (r *MovementRepository) Create(_ context.Context, tx usecase.Transaction, movement *domain.VehicleMovement) error {
	if err := domain.ValidateFreight(movement.DriverFreight, movement.ClientFreight); err != nil {
		return err
	}

	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.movements[movement.ID]; ok {
		return duplicate("create vehicle movement", movement.ID)
	}

	if movement.IsInternal() {
		if existing := findInternal(st, movement.OperationType, movement.OperationID); existing != nil {
			return duplicate("create vehicle movement", string(movement.OperationType)+":"+movement.OperationID)
		}
	}

	cp := *movement
	st.movements[movement.ID] = &cp

	return nil
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(_ context.Context, id string) (*domain.VehicleMovement, error) {
	var movement *domain.VehicleMovement
	r.store.read(func(st *state) {
		if m, ok := st.movements[id]; ok {
			cp := *m
			movement = &cp
		}
	})

	if movement == nil {
		return nil, domain.ErrMovementNotFound
	}

	return movement, nil
}

// GetByIDForUpdate retrieves a movement inside tx.
func (r *MovementRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.VehicleMovement, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	m, ok := st.movements[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}

	cp := *m

	return &cp, nil
}

// GetByOperationForUpdate retrieves the internal movement of an operation inside tx.
func (r *MovementRepository) GetByOperationForUpdate(_ context.Context, tx usecase.Transaction, kind domain.OperationType, operationID string) (*domain.VehicleMovement, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	m := findInternal(st, kind, operationID)
	if m == nil {
		return nil, domain.ErrMovementNotFound
	}

	cp := *m

	return &cp, nil
}

// Update overwrites a movement. Freight ordering is re-checked.
func (r *MovementRepository) Update(_ context.Context, tx usecase.Transaction, movement *domain.VehicleMovement) error {
	if err := domain.ValidateFreight(movement.DriverFreight, movement.ClientFreight); err != nil {
		return err
	}

	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	current, ok := st.movements[movement.ID]
	if !ok {
		return domain.ErrMovementNotFound
	}

	cp := *movement
	cp.Type = current.Type
	cp.OperationType = current.OperationType
	cp.OperationID = current.OperationID
	cp.CreatedAt = current.CreatedAt
	cp.CreatedBy = current.CreatedBy
	st.movements[movement.ID] = &cp

	return nil
}

// Delete removes a movement.
func (r *MovementRepository) Delete(_ context.Context, tx usecase.Transaction, id string) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.movements[id]; !ok {
		return domain.ErrMovementNotFound
	}

	delete(st.movements, id)

	return nil
}

// List lists movements, newest first.
func (r *MovementRepository) List(_ context.Context, filter usecase.MovementFilter) ([]*domain.VehicleMovement, error) {
	var movements []*domain.VehicleMovement
	r.store.read(func(st *state) {
		for _, m := range st.movements {
			if filter.Type != "" && m.Type != filter.Type {
				continue
			}
			if filter.DriverID != "" && m.DriverID != filter.DriverID {
				continue
			}
			cp := *m
			movements = append(movements, &cp)
		}
	})

	sort.Slice(movements, func(i, j int) bool {
		if !movements[i].Date.Equal(movements[j].Date) {
			return movements[i].Date.After(movements[j].Date)
		}
		return movements[i].CreatedAt.After(movements[j].CreatedAt)
	})

	return page(movements, filter.Limit, filter.Offset), nil
}

func findInternal(st *state, kind domain.OperationType, operationID string) *domain.VehicleMovement {
	for _, m := range st.movements {
		if m.IsInternal() && m.OperationType == kind && m.OperationID == operationID {
			return m
		}
	}

	return nil
}
