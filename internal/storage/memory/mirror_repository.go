package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// mirrorRepositoryInMemory - простая in-memory реализация MirrorRepository.
type mirrorRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.CartMirror
}

// NewMirrorRepository возвращает in-memory репозиторий зеркал для локальной разработки и тестов.
func NewMirrorRepository() domain.MirrorRepository {
	return &mirrorRepositoryInMemory{
		items: make(map[string]domain.CartMirror),
	}
}

// Save перезаписывает зеркало сессии (last writer wins).
func (r *mirrorRepositoryInMemory) Save(_ context.Context, mirror domain.CartMirror) error {
	if mirror.SessionID == "" {
		return domain.ErrSessionRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if mirror.UpdatedAt.IsZero() {
		mirror.UpdatedAt = time.Now().UTC()
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	mirror.Lines = mirror.Cart().Lines
	r.items[mirror.SessionID] = mirror
	return nil
}

// Get возвращает зеркало или ErrMirrorNotFound, если его нет.
func (r *mirrorRepositoryInMemory) Get(_ context.Context, sessionID string) (domain.CartMirror, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mirror, ok := r.items[sessionID]
	if !ok {
		return domain.CartMirror{}, domain.ErrMirrorNotFound
	}
	mirror.Lines = mirror.Cart().Lines
	return mirror, nil
}

// Delete удаляет зеркало сессии.
func (r *mirrorRepositoryInMemory) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, sessionID)
	return nil
}

var _ domain.MirrorRepository = (*mirrorRepositoryInMemory)(nil)
