package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// snapshotStoreInMemory - in-memory реализация SnapshotStore (аналог localStorage).
type snapshotStoreInMemory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewSnapshotStore возвращает in-memory хранилище снапшотов для тестов и встраивания.
func NewSnapshotStore() domain.SnapshotStore {
	return &snapshotStoreInMemory{
		slots: make(map[string][]byte),
	}
}

// Get возвращает копию содержимого слота или ErrSnapshotNotFound.
func (s *snapshotStoreInMemory) Get(_ context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.slots[slot]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put перезаписывает слот копией data.
func (s *snapshotStoreInMemory) Put(_ context.Context, slot string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.slots[slot] = stored
	return nil
}

// Delete удаляет слот целиком.
func (s *snapshotStoreInMemory) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, slot)
	return nil
}

var _ domain.SnapshotStore = (*snapshotStoreInMemory)(nil)
