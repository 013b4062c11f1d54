package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval bounds how often expired buckets are purged.
const DefaultSweepInterval = time.Minute

// MemoryStore keeps buckets in a map guarded by a mutex.
type MemoryStore struct {
	SweepInterval time.Duration

	mu        sync.Mutex
	buckets   map[string]Bucket
	lastSweep time.Time
}

// NewMemoryStore returns an empty store with the default sweep interval.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		SweepInterval: DefaultSweepInterval,
		buckets:       make(map[string]Bucket),
	}
}

// Increment resets an absent or expired bucket, then counts one call. The
// whole step runs under the lock.
func (m *MemoryStore) Increment(_ context.Context, key string, window time.Duration, now time.Time) (Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets == nil {
		m.buckets = make(map[string]Bucket)
	}
	m.sweepLocked(now)

	bucket, ok := m.buckets[key]
	if !ok || !bucket.ResetAt.After(now) {
		bucket = Bucket{ResetAt: now.Add(window)}
	}
	bucket.Count++
	m.buckets[key] = bucket

	return bucket, nil
}

// Len reports the number of tracked buckets, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	interval := m.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if !m.lastSweep.IsZero() && now.Sub(m.lastSweep) < interval {
		return
	}
	m.lastSweep = now

	for key, bucket := range m.buckets {
		if !bucket.ResetAt.After(now) {
			delete(m.buckets, key)
		}
	}
}
