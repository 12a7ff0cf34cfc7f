package repository

import (
	"context"
	"sync"

	"gate-access-service/internal/domain/access"
)

// MemoryStore is an in-process Store. The single mutex serializes appends,
// so ids are assigned strictly in append order with no gaps. Used by tests
// and by the memory storage driver.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	events    []access.AccessEvent
	whitelist map[string]access.WhitelistEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		whitelist: make(map[string]access.WhitelistEntry),
	}
}

func (s *MemoryStore) Append(_ context.Context, event *access.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = s.nextID
	s.nextID++
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit, offset int) ([]access.AccessEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]access.AccessEvent, 0, max(limit, 0))
	for i := len(s.events) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *MemoryStore) UpsertWhitelist(_ context.Context, entry access.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.whitelist[entry.Plate] = entry
	return nil
}

func (s *MemoryStore) DeleteWhitelist(_ context.Context, plate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.whitelist[plate]; !ok {
		return ErrNotFound
	}
	delete(s.whitelist, plate)
	return nil
}

func (s *MemoryStore) ListWhitelist(_ context.Context) ([]access.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]access.WhitelistEntry, 0, len(s.whitelist))
	for _, entry := range s.whitelist {
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *MemoryStore) GetWhitelistEntry(_ context.Context, plate string) (*access.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.whitelist[plate]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}
