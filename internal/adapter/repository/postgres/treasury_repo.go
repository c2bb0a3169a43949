package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

const treasuryColumns = `id, date, transaction_type, movement_source, paid_amount, payment_method,
	payment_details, description, note, COALESCE(related_client_id, ''), COALESCE(related_driver_id, ''),
	COALESCE(related_sale_id, ''), COALESCE(related_purchase_id, ''), created_by, created_at`

// TreasuryRepository implements usecase.TreasuryRepository.
type TreasuryRepository struct {
	db DB
}

// NewTreasuryRepository creates a new TreasuryRepository.
func NewTreasuryRepository(db DB) *TreasuryRepository {
	return &TreasuryRepository{db: db}
}

// Create inserts the movement and stores the generated id on it.
func (r *TreasuryRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.TreasuryMovement) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx,
		`INSERT INTO treasury_movements (
			date, transaction_type, movement_source, paid_amount, payment_method,
			payment_details, description, note, related_client_id, related_driver_id,
			related_sale_id, related_purchase_id, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		timeToPgDate(m.Date), string(m.TransactionType), string(m.MovementSource),
		decimalToNumeric(m.PaidAmount), string(m.PaymentMethod),
		m.PaymentDetails, m.Description, m.Note,
		nullText(m.RelatedClientID), nullText(m.RelatedDriverID),
		nullText(m.RelatedSaleID), nullText(m.RelatedPurchaseID),
		m.CreatedBy, timeToPgTimestamptz(m.CreatedAt),
	).Scan(&m.ID)

	return storageError("create treasury movement", err)
}

// GetByID retrieves a treasury movement by ID.
func (r *TreasuryRepository) GetByID(ctx context.Context, id int64) (*domain.TreasuryMovement, error) {
	m, err := scanTreasuryMovement(r.db.QueryRow(ctx,
		`SELECT `+treasuryColumns+` FROM treasury_movements WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTreasuryMovementNotFound
	}
	if err != nil {
		return nil, storageError("get treasury movement", err)
	}

	return m, nil
}

// List lists treasury movements, newest first.
func (r *TreasuryRepository) List(ctx context.Context, filter usecase.TreasuryFilter) ([]*domain.TreasuryMovement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+treasuryColumns+` FROM treasury_movements
		WHERE ($1 = '' OR related_client_id = $1)
		AND ($2 = '' OR related_driver_id = $2)
		AND ($3 = '' OR transaction_type = $3)
		ORDER BY date DESC, id DESC
		LIMIT NULLIF($4, 0) OFFSET $5`,
		filter.ClientID, filter.DriverID, string(filter.TransactionType), filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, storageError("list treasury movements", err)
	}
	defer rows.Close()

	movements := make([]*domain.TreasuryMovement, 0)
	for rows.Next() {
		m, err := scanTreasuryMovement(rows)
		if err != nil {
			return nil, storageError("list treasury movements", err)
		}
		movements = append(movements, m)
	}

	return movements, storageError("list treasury movements", rows.Err())
}

func scanTreasuryMovement(row pgx.Row) (*domain.TreasuryMovement, error) {
	var (
		m                       domain.TreasuryMovement
		transactionType, source string
		paymentMethod           string
		paid                    pgtype.Numeric
	)

	err := row.Scan(
		&m.ID, &m.Date, &transactionType, &source, &paid, &paymentMethod,
		&m.PaymentDetails, &m.Description, &m.Note, &m.RelatedClientID, &m.RelatedDriverID,
		&m.RelatedSaleID, &m.RelatedPurchaseID, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.TransactionType = domain.TransactionType(transactionType)
	m.MovementSource = domain.MovementSource(source)
	m.PaymentMethod = domain.PaymentMethod(paymentMethod)
	m.PaidAmount = numericToDecimal(paid)

	return &m, nil
}
