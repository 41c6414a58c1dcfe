package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data    string
	expires time.Time
}

// MemoryBackend keeps sessions in process memory. Expired entries are hidden
// on read and removed by Purge.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryBackend) Load(_ context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok || !m.now().Before(entry.expires) {
		return "", ErrNotFound
	}
	return entry.data, nil
}

func (m *MemoryBackend) Store(_ context.Context, id, data string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = memoryEntry{data: data, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// Purge removes expired sessions and returns how many were dropped
func (m *MemoryBackend) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet purged
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
