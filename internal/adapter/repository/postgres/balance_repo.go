package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

var balanceTables = map[domain.SubjectType]string{
	domain.SubjectClient:  "clients",
	domain.SubjectDriver:  "drivers",
	domain.SubjectCompany: "company_accounts",
}

// BalanceRepository implements usecase.BalanceRepository over the balance
// columns of clients, drivers and company_accounts.
type BalanceRepository struct {
	db DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetBalance reads the committed balance of subject.
func (r *BalanceRepository) GetBalance(ctx context.Context, subject domain.Subject) (decimal.Decimal, error) {
	table, ok := balanceTables[subject.Type]
	if !ok {
		return decimal.Zero, domain.ErrUnknownSubjectType
	}

	return r.read(ctx, r.db, subject, `SELECT balance FROM `+table+` WHERE id = $1`)
}

// GetBalanceForUpdate reads the balance and locks the subject row until tx ends.
func (r *BalanceRepository) GetBalanceForUpdate(ctx context.Context, tx usecase.Transaction, subject domain.Subject) (decimal.Decimal, error) {
	table, ok := balanceTables[subject.Type]
	if !ok {
		return decimal.Zero, domain.ErrUnknownSubjectType
	}

	q, err := pgxTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	return r.read(ctx, q, subject, `SELECT balance FROM `+table+` WHERE id = $1 FOR UPDATE`)
}

func (r *BalanceRepository) read(ctx context.Context, q querier, subject domain.Subject, query string) (decimal.Decimal, error) {
	var balance pgtype.Numeric

	err := q.QueryRow(ctx, query, subject.ID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, subject.Type.NotFoundError()
	}
	if err != nil {
		return decimal.Zero, storageError("read balance", err)
	}

	return numericToDecimal(balance), nil
}

// UpdateBalance writes the new balance of subject.
func (r *BalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, subject domain.Subject, balance decimal.Decimal, updatedAt time.Time) error {
	table, ok := balanceTables[subject.Type]
	if !ok {
		return domain.ErrUnknownSubjectType
	}

	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE `+table+` SET balance = $2, updated_at = $3 WHERE id = $1`,
		subject.ID, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return storageError("update balance", err)
	}

	if tag.RowsAffected() == 0 {
		return subject.Type.NotFoundError()
	}

	return nil
}

const balanceLogColumns = `id, subject_type, subject_id, previous_balance, new_balance, change_amount, actor_id, note, created_at`

// BalanceLogRepository implements usecase.BalanceLogRepository. Entries are
// append-only and ordered by their insertion sequence.
type BalanceLogRepository struct {
	db DB
}

// NewBalanceLogRepository creates a new BalanceLogRepository.
func NewBalanceLogRepository(db DB) *BalanceLogRepository {
	return &BalanceLogRepository{db: db}
}

// Create appends a log entry.
func (r *BalanceLogRepository) Create(ctx context.Context, tx usecase.Transaction, log *domain.BalanceChangeLog) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO balance_change_logs (`+balanceLogColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID, string(log.Subject.Type), log.Subject.ID,
		decimalToNumeric(log.PreviousBalance), decimalToNumeric(log.NewBalance), decimalToNumeric(log.ChangeAmount),
		log.ActorID, log.Note, timeToPgTimestamptz(log.CreatedAt),
	)

	return storageError("create balance log", err)
}

// ListBySubject returns the newest entries first.
func (r *BalanceLogRepository) ListBySubject(ctx context.Context, subject domain.Subject, limit, offset int) ([]*domain.BalanceChangeLog, error) {
	return r.list(ctx,
		`SELECT `+balanceLogColumns+` FROM balance_change_logs
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY seq DESC LIMIT NULLIF($3, 0) OFFSET $4`,
		string(subject.Type), subject.ID, limit, offset,
	)
}

// ListChain returns every entry of subject in creation order.
func (r *BalanceLogRepository) ListChain(ctx context.Context, subject domain.Subject) ([]*domain.BalanceChangeLog, error) {
	return r.list(ctx,
		`SELECT `+balanceLogColumns+` FROM balance_change_logs
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY seq`,
		string(subject.Type), subject.ID,
	)
}

// ListSubjects returns every subject with at least one entry.
func (r *BalanceLogRepository) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := r.db.Query(ctx,
		`SELECT subject_type, subject_id FROM balance_change_logs
		GROUP BY subject_type, subject_id
		ORDER BY min(seq)`,
	)
	if err != nil {
		return nil, storageError("list balance subjects", err)
	}
	defer rows.Close()

	subjects := make([]domain.Subject, 0)
	for rows.Next() {
		var subjectType, id string
		if err := rows.Scan(&subjectType, &id); err != nil {
			return nil, storageError("list balance subjects", err)
		}
		subjects = append(subjects, domain.Subject{Type: domain.SubjectType(subjectType), ID: id})
	}

	return subjects, storageError("list balance subjects", rows.Err())
}

func (r *BalanceLogRepository) list(ctx context.Context, query string, args ...any) ([]*domain.BalanceChangeLog, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError("list balance logs", err)
	}
	defer rows.Close()

	logs := make([]*domain.BalanceChangeLog, 0)
	for rows.Next() {
		var (
			l                      domain.BalanceChangeLog
			subjectType            string
			previous, next, change pgtype.Numeric
		)

		if err := rows.Scan(&l.ID, &subjectType, &l.Subject.ID, &previous, &next, &change,
			&l.ActorID, &l.Note, &l.CreatedAt); err != nil {
			return nil, storageError("list balance logs", err)
		}

		l.Subject.Type = domain.SubjectType(subjectType)
		l.PreviousBalance = numericToDecimal(previous)
		l.NewBalance = numericToDecimal(next)
		l.ChangeAmount = numericToDecimal(change)
		logs = append(logs, &l)
	}

	return logs, storageError("list balance logs", rows.Err())
}
