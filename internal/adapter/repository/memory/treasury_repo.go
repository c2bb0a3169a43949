package memory

import (
	"context"
	"sort"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// TreasuryRepository implements usecase.TreasuryRepository.
type TreasuryRepository struct {
	store *Store
}

// NewTreasuryRepository creates a new TreasuryRepository.
func NewTreasuryRepository(store *Store) *TreasuryRepository {
	return &TreasuryRepository{store: store}
}

// Create assigns the next movement id and inserts the movement.
func (r *TreasuryRepository) Create(_ context.Context, tx usecase.Transaction, movement *domain.TreasuryMovement) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	st.treasurySeq++
	movement.ID = st.treasurySeq

	cp := *movement
	st.treasury[movement.ID] = &cp

	return nil
}

// GetByID retrieves a treasury movement by ID.
func (r *TreasuryRepository) GetByID(_ context.Context, id int64) (*domain.TreasuryMovement, error) {
	var movement *domain.TreasuryMovement
	r.store.read(func(st *state) {
		if m, ok := st.treasury[id]; ok {
			cp := *m
			movement = &cp
		}
	})

	if movement == nil {
		return nil, domain.ErrTreasuryMovementNotFound
	}

	return movement, nil
}

// List lists treasury movements, newest first.
func (r *TreasuryRepository) List(_ context.Context, filter usecase.TreasuryFilter) ([]*domain.TreasuryMovement, error) {
	var movements []*domain.TreasuryMovement
	r.store.read(func(st *state) {
		for _, m := range st.treasury {
			if filter.ClientID != "" && m.RelatedClientID != filter.ClientID {
				continue
			}
			if filter.DriverID != "" && m.RelatedDriverID != filter.DriverID {
				continue
			}
			if filter.TransactionType != "" && m.TransactionType != filter.TransactionType {
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
		return movements[i].ID > movements[j].ID
	})

	return page(movements, filter.Limit, filter.Offset), nil
}
