package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

const activityColumns = `id, actor_id, actor_name, action, method, route, path, resource_id,
	request_id, ip_address, user_agent, status, status_code, created_at`

// ActivityRepository implements usecase.ActivityRepository on the activity_logs table.
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity entry.
func (r *ActivityRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO activity_logs (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, entry.ActorID, entry.ActorName, entry.Action, entry.Method, entry.Route, entry.Path,
		entry.ResourceID, entry.RequestID, entry.IPAddress, entry.UserAgent, string(entry.Status),
		entry.StatusCode, entry.CreatedAt,
	)

	return storageError("create activity entry", err)
}

// List retrieves activity entries with filtering, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter usecase.ActivityFilter) ([]*domain.ActivityLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+activityColumns+` FROM activity_logs
		WHERE ($1 = '' OR actor_id = $1)
		AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($3, 0) OFFSET $4`,
		filter.ActorID, filter.Action, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, storageError("list activity", err)
	}
	defer rows.Close()

	entries := make([]*domain.ActivityLog, 0)
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, storageError("list activity", err)
		}
		entries = append(entries, e)
	}

	return entries, storageError("list activity", rows.Err())
}

func scanActivity(row pgx.Row) (*domain.ActivityLog, error) {
	var (
		e      domain.ActivityLog
		status string
	)

	err := row.Scan(
		&e.ID, &e.ActorID, &e.ActorName, &e.Action, &e.Method, &e.Route, &e.Path, &e.ResourceID,
		&e.RequestID, &e.IPAddress, &e.UserAgent, &status, &e.StatusCode, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = domain.ActivityStatus(status)

	return &e, nil
}
