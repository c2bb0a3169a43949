package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/oilledger/internal/domain"
)

const (
	internalMovementIndex = "vehicle_movements_operation_uidx"
	freightCheckSuffix    = "_freight_check"
)

// storageError maps a driver error to the domain taxonomy. Deadlocks,
// serialization failures, lock timeouts and cancelled statements are
// transient; constraint violations that mirror domain rules become
// ValidationErrors.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		se   *domain.StorageError
		verr *domain.ValidationError
	)
	if errors.As(err, &se) || errors.As(err, &verr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected,
			pgerrcode.SerializationFailure,
			pgerrcode.LockNotAvailable,
			pgerrcode.QueryCanceled:
			return &domain.StorageError{Op: op, Err: err, Transient: true}
		case pgerrcode.UniqueViolation:
			if pgErr.ConstraintName == internalMovementIndex {
				return domain.NewValidationError("operation_id", domain.ErrInternalMovementExists.Error())
			}
		case pgerrcode.CheckViolation:
			if strings.HasSuffix(pgErr.ConstraintName, freightCheckSuffix) {
				verr := &domain.ValidationError{}
				verr.Add("driver_freight", "must not exceed client freight")
				verr.Add("client_freight", "must not be less than driver freight")
				return verr
			}
		}

		return &domain.StorageError{Op: op, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.StorageError{Op: op, Err: err, Transient: true}
	}

	return &domain.StorageError{Op: op, Err: err}
}
