package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// ActivityRepository implements usecase.ActivityRepository in process memory.
type ActivityRepository struct {
	mu      sync.RWMutex
	entries []*domain.ActivityLog
}

// NewActivityRepository creates an empty ActivityRepository.
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

// Create appends a copy of entry.
func (r *ActivityRepository) Create(_ context.Context, entry *domain.ActivityLog) error {
	cp := *entry

	r.mu.Lock()
	r.entries = append(r.entries, &cp)
	r.mu.Unlock()

	return nil
}

// List returns matching entries, newest first.
func (r *ActivityRepository) List(_ context.Context, filter usecase.ActivityFilter) ([]*domain.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.ActivityLog, 0)
	skipped := 0
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		cp := *e
		result = append(result, &cp)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}

	return result, nil
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Cache implements usecase.Cache in process memory. It is used when Redis is
// disabled.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// SetNX stores value unless a live entry exists for key.
func (c *Cache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: now.Add(ttl)}

	return true, nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}
