package stripe

import (
	"context"
	"sync"
	"time"
)

// EventStore records which webhook deliveries have been processed, so that
// provider redeliveries cannot credit a user twice. Keys are event ids and
// payment-scoped keys, since one payment surfaces in several events. Claim
// reserves a key before processing starts; Release returns it when
// processing fails so the next redelivery can retry.
type EventStore interface {
	// Claim marks the key as taken. It returns false when the key was
	// already claimed by an earlier (or concurrent) delivery.
	Claim(ctx context.Context, key string) (bool, error)
	// Release frees a claimed key after a failed application.
	Release(ctx context.Context, key string) error
}

// MemoryEventStore is a simple in-memory implementation of EventStore.
// Claims are lost on restart; production deployments use RedisEventStore.
type MemoryEventStore struct {
	events    map[string]time.Time
	mutex     sync.Mutex
	ttl       time.Duration
	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryEventStore creates a new in-memory event store
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl == 0 {
		ttl = 24 * time.Hour // Stripe retries deliveries for up to three days
	}

	store := &MemoryEventStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}

	// Start cleanup goroutine
	go store.cleanup()

	return store
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (m *MemoryEventStore) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
}

// Claim marks an event id as taken, check and insert under one lock.
func (m *MemoryEventStore) Claim(_ context.Context, eventID string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.events[eventID]; exists {
		return false, nil
	}
	m.events[eventID] = time.Now()
	return true, nil
}

// Release frees a claimed event id.
func (m *MemoryEventStore) Release(_ context.Context, eventID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.events, eventID)
	return nil
}

// cleanup removes expired claims periodically
func (m *MemoryEventStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mutex.Lock()
			now := time.Now()
			for eventID, timestamp := range m.events {
				if now.Sub(timestamp) > m.ttl {
					delete(m.events, eventID)
				}
			}
			m.mutex.Unlock()
		}
	}
}

// Size returns the number of claimed events (for monitoring/debugging)
func (m *MemoryEventStore) Size() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.events)
}
