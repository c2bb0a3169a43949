package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/oilledger/internal/domain"
)

// DefaultActivityReadWindow is how long repeated reads of one path by one
// actor collapse into a single activity entry.
const DefaultActivityReadWindow = 5 * time.Minute

const activityKeyPrefix = "activity:"

// ActivityUseCase records and lists the operator activity trail.
type ActivityUseCase struct {
	repo   ActivityRepository
	cache  Cache
	idGen  IDGenerator
	clock  Clock
	window time.Duration
	logger zerolog.Logger
}

// NewActivityUseCase creates a new ActivityUseCase. A nil cache or a
// non-positive window records every read.
func NewActivityUseCase(
	repo ActivityRepository,
	cache Cache,
	idGen IDGenerator,
	clock Clock,
	window time.Duration,
	logger zerolog.Logger,
) *ActivityUseCase {
	return &ActivityUseCase{
		repo:   repo,
		cache:  cache,
		idGen:  idGen,
		clock:  orSystemClock(clock),
		window: window,
		logger: logger,
	}
}

// Record stores entry and reports whether it was stored. Reads are kept once
// per actor and path within the read window; mutations are always stored.
func (uc *ActivityUseCase) Record(ctx context.Context, entry *domain.ActivityLog) (bool, error) {
	dedupKey := ""
	if entry.IsRead() && uc.cache != nil && uc.window > 0 {
		key := activityKeyPrefix + entry.ActorID + ":" + entry.Path
		fresh, err := uc.cache.SetNX(ctx, key, entry.RequestID, uc.window)
		switch {
		case err != nil:
			uc.logger.Warn().Err(err).Str("actor_id", entry.ActorID).Msg("activity dedup unavailable")
		case !fresh:
			return false, nil
		default:
			dedupKey = key
		}
	}

	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = uc.clock.Now()

	if err := uc.repo.Create(ctx, entry); err != nil {
		if dedupKey != "" {
			if delErr := uc.cache.Delete(ctx, dedupKey); delErr != nil {
				uc.logger.Warn().Err(delErr).Str("key", dedupKey).Msg("failed to clear activity dedup key")
			}
		}
		return false, fmt.Errorf("failed to record activity: %w", err)
	}

	return true, nil
}

// List returns activity entries, newest first.
func (uc *ActivityUseCase) List(ctx context.Context, filter ActivityFilter) ([]*domain.ActivityLog, error) {
	filter.Limit = clampLimit(filter.Limit)
	return uc.repo.List(ctx, filter)
}
