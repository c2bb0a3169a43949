package memory

import (
	"context"
	"sort"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// CommerceRepository implements usecase.CommerceRepository.
type CommerceRepository struct {
	store *Store
}

// NewCommerceRepository creates a new CommerceRepository.
func NewCommerceRepository(store *Store) *CommerceRepository {
	return &CommerceRepository{store: store}
}

// Create inserts a sale or purchase. Freight ordering is re-checked.
func (r *CommerceRepository) Create(_ context.Context, tx usecase.Transaction, record *domain.CommerceRecord) error {
	if err := domain.ValidateFreight(record.DriverFreight, record.ClientFreight); err != nil {
		return err
	}

	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	records, ok := st.commerce[record.Kind]
	if !ok {
		return domain.NewValidationError("kind", "must be sale or purchase")
	}

	if _, exists := records[record.ID]; exists {
		return duplicate("create "+string(record.Kind), record.ID)
	}

	cp := *record
	records[record.ID] = &cp

	return nil
}

// GetByID retrieves a record by kind and id.
func (r *CommerceRepository) GetByID(_ context.Context, kind domain.OperationType, id string) (*domain.CommerceRecord, error) {
	var record *domain.CommerceRecord
	r.store.read(func(st *state) {
		if rec, ok := st.commerce[kind][id]; ok {
			cp := *rec
			record = &cp
		}
	})

	if record == nil {
		return nil, kind.NotFoundError()
	}

	return record, nil
}

// GetByIDForUpdate retrieves a record inside tx.
func (r *CommerceRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, kind domain.OperationType, id string) (*domain.CommerceRecord, error) {
	st, err := r.store.inTx(tx)
	if err != nil {
		return nil, err
	}

	rec, ok := st.commerce[kind][id]
	if !ok {
		return nil, kind.NotFoundError()
	}

	cp := *rec

	return &cp, nil
}

// Update overwrites a record. Freight ordering is re-checked.
func (r *CommerceRepository) Update(_ context.Context, tx usecase.Transaction, record *domain.CommerceRecord) error {
	if err := domain.ValidateFreight(record.DriverFreight, record.ClientFreight); err != nil {
		return err
	}

	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	current, ok := st.commerce[record.Kind][record.ID]
	if !ok {
		return record.Kind.NotFoundError()
	}

	cp := *record
	cp.CreatedAt = current.CreatedAt
	cp.CreatedBy = current.CreatedBy
	st.commerce[record.Kind][record.ID] = &cp

	return nil
}

// Delete removes a record and clears treasury references to it.
func (r *CommerceRepository) Delete(_ context.Context, tx usecase.Transaction, kind domain.OperationType, id string) error {
	st, err := r.store.inTx(tx)
	if err != nil {
		return err
	}

	if _, ok := st.commerce[kind][id]; !ok {
		return kind.NotFoundError()
	}

	delete(st.commerce[kind], id)

	for _, t := range st.treasury {
		switch {
		case kind == domain.OperationSale && t.RelatedSaleID == id:
			t.RelatedSaleID = ""
		case kind == domain.OperationPurchase && t.RelatedPurchaseID == id:
			t.RelatedPurchaseID = ""
		}
	}

	return nil
}

// List lists records of one kind, newest first.
func (r *CommerceRepository) List(_ context.Context, filter usecase.CommerceFilter) ([]*domain.CommerceRecord, error) {
	var records []*domain.CommerceRecord
	r.store.read(func(st *state) {
		for _, rec := range st.commerce[filter.Kind] {
			if filter.ClientID != "" && rec.ClientID != filter.ClientID {
				continue
			}
			cp := *rec
			records = append(records, &cp)
		}
	})

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return lessID(records[j].ID, records[i].ID)
	})

	return page(records, filter.Limit, filter.Offset), nil
}
