package trial

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local cache with a janitor that evicts expired
// entries.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Status
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]*Status),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.janitor(sweepEvery)
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Load(_ context.Context, fingerprint string) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entries[fingerprint]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Status) error {
	m.mu.Lock()
	m.entries[s.Fingerprint] = s.clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for fp, s := range m.entries {
		if !now.Before(s.ExpiresAt) {
			delete(m.entries, fp)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) janitor(every time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// Close stops the janitor.
func (m *MemoryStore) Close() {
	m.once.Do(func() { close(m.stop) })
	<-m.done
}
