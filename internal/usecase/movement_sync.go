package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

// SyncOutcome reports what a synchronization run wrote.
type SyncOutcome string

const (
	SyncCreated   SyncOutcome = "created"
	SyncUpdated   SyncOutcome = "updated"
	SyncUnchanged SyncOutcome = "unchanged"
	SyncSkipped   SyncOutcome = "skipped"
	SyncDeleted   SyncOutcome = "deleted"
)

const (
	syncToMovement = "commerce_to_movement"
	syncToCommerce = "movement_to_commerce"
)

// MovementSynchronizer keeps a commerce record and its internal vehicle
// movement identical on the shared fields.
//
// Each direction applies the canonical fields with a raw repository update,
// which never calls back into the synchronizer, and writes nothing when the
// target already matches. Both directions run inside the caller's transaction.
// Callers lock the commerce record before the movement.
type MovementSynchronizer struct {
	allocator    *SequenceAllocator
	commerceRepo CommerceRepository
	movementRepo MovementRepository
	clock        Clock
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewMovementSynchronizer creates a new MovementSynchronizer.
func NewMovementSynchronizer(
	allocator *SequenceAllocator,
	commerceRepo CommerceRepository,
	movementRepo MovementRepository,
	clock Clock,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *MovementSynchronizer {
	return &MovementSynchronizer{
		allocator:    allocator,
		commerceRepo: commerceRepo,
		movementRepo: movementRepo,
		clock:        orSystemClock(clock),
		logger:       logger,
		metrics:      metrics,
	}
}

// SyncMovementFromCommerce ensures exactly one internal movement mirrors a
// record that has both a driver and a vehicle number. A record without them is
// skipped and an existing movement is left as it is.
func (s *MovementSynchronizer) SyncMovementFromCommerce(ctx context.Context, tx Transaction, record *domain.CommerceRecord) (SyncOutcome, error) {
	if !record.NeedsMovement() {
		return s.observe(syncToMovement, SyncSkipped), nil
	}

	movement, err := s.movementRepo.GetByOperationForUpdate(ctx, tx, record.Kind, record.ID)
	if errors.Is(err, domain.ErrMovementNotFound) {
		return s.createInternal(ctx, tx, record)
	}
	if err != nil {
		return "", err
	}

	fields := record.SyncFields()
	if movement.SyncFields().Equal(fields) {
		s.logger.Debug().
			Str("movement_id", movement.ID).
			Str("operation_id", record.ID).
			Msg("movement already in sync")
		return s.observe(syncToMovement, SyncUnchanged), nil
	}

	movement.ApplySyncFields(fields)
	movement.UpdatedAt = s.clock.Now()

	if err := movement.Validate(); err != nil {
		return "", err
	}

	if err := s.movementRepo.Update(ctx, tx, movement); err != nil {
		return "", err
	}

	return s.observe(syncToMovement, SyncUpdated), nil
}

func (s *MovementSynchronizer) createInternal(ctx context.Context, tx Transaction, record *domain.CommerceRecord) (SyncOutcome, error) {
	id, err := s.allocator.AllocateTx(ctx, tx, domain.PrefixInternalMovement)
	if err != nil {
		return "", err
	}

	movement := domain.NewInternalMovement(id, record, s.clock.Now())
	if err := movement.Validate(); err != nil {
		return "", err
	}

	if err := s.movementRepo.Create(ctx, tx, movement); err != nil {
		return "", err
	}

	if s.metrics != nil {
		s.metrics.MovementsCreated.WithLabelValues(string(domain.MovementTypeInternal)).Inc()
	}

	s.logger.Info().
		Str("movement_id", id).
		Str("operation_type", string(record.Kind)).
		Str("operation_id", record.ID).
		Msg("internal vehicle movement created")

	return s.observe(syncToMovement, SyncCreated), nil
}

// RemoveMovementOfCommerce deletes the internal movement of a record that is
// itself being deleted and returns the movement id, or "" when it had none.
// The caller holds the record lock.
func (s *MovementSynchronizer) RemoveMovementOfCommerce(ctx context.Context, tx Transaction, kind domain.OperationType, operationID string) (string, error) {
	movement, err := s.movementRepo.GetByOperationForUpdate(ctx, tx, kind, operationID)
	if errors.Is(err, domain.ErrMovementNotFound) {
		s.observe(syncToMovement, SyncSkipped)
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if err := s.movementRepo.Delete(ctx, tx, movement.ID); err != nil {
		return "", err
	}

	s.observe(syncToMovement, SyncDeleted)

	return movement.ID, nil
}

// SyncCommerceFromMovement propagates an internal movement's shared fields
// back onto the record it references. External movements are skipped.
func (s *MovementSynchronizer) SyncCommerceFromMovement(ctx context.Context, tx Transaction, movement *domain.VehicleMovement) (SyncOutcome, error) {
	if !movement.IsInternal() {
		return s.observe(syncToCommerce, SyncSkipped), nil
	}

	if !movement.OperationType.IsValid() || movement.OperationID == "" {
		return "", domain.NewValidationError("operation_id", domain.ErrMovementOperationRequired.Error())
	}

	record, err := s.commerceRepo.GetByIDForUpdate(ctx, tx, movement.OperationType, movement.OperationID)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", domain.NewValidationError("operation_id", "references a missing "+string(movement.OperationType))
		}
		return "", err
	}

	fields := movement.SyncFields()
	if record.SyncFields().Equal(fields) {
		s.logger.Debug().
			Str("movement_id", movement.ID).
			Str("operation_id", record.ID).
			Msg("commerce record already in sync")
		return s.observe(syncToCommerce, SyncUnchanged), nil
	}

	record.ApplySyncFields(fields)
	record.UpdatedAt = s.clock.Now()

	if err := record.Validate(); err != nil {
		return "", err
	}

	if err := s.commerceRepo.Update(ctx, tx, record); err != nil {
		return "", err
	}

	return s.observe(syncToCommerce, SyncUpdated), nil
}

func (s *MovementSynchronizer) observe(direction string, outcome SyncOutcome) SyncOutcome {
	if s.metrics != nil {
		s.metrics.MovementSyncs.WithLabelValues(direction, string(outcome)).Inc()
	}

	return outcome
}
