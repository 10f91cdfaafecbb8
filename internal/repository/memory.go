package repository

import (
	"context"
	"sync"
	"time"

	"github.com/aliceryden/portalen/internal/models"
)

type cacheEntry struct {
	snapshot  *models.DayAvailability
	expiresAt time.Time
}

// MemoryAvailabilityCache keeps availability snapshots in process memory.
// Used standalone in tests and as the fallback store behind redis.
type MemoryAvailabilityCache struct {
	entries sync.Map
	ttl     time.Duration
}

func NewMemoryAvailabilityCache(ttl time.Duration) *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{ttl: ttl}
}

func (m *MemoryAvailabilityCache) GetDay(_ context.Context, farrierID int64, date string) (*models.DayAvailability, error) {
	key := dayKey(farrierID, date)
	val, ok := m.entries.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(cacheEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(key)
		return nil, nil
	}
	return entry.snapshot, nil
}

func (m *MemoryAvailabilityCache) SetDay(_ context.Context, snapshot *models.DayAvailability) error {
	m.entries.Store(dayKey(snapshot.FarrierID, snapshot.Date), cacheEntry{
		snapshot:  snapshot,
		expiresAt: time.Now().Add(m.ttl),
	})
	return nil
}

func (m *MemoryAvailabilityCache) InvalidateDay(_ context.Context, farrierID int64, date string) error {
	m.entries.Delete(dayKey(farrierID, date))
	return nil
}
