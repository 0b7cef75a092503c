package cart

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// SyncTask - handle асинхронной синхронизации, запущенной мутацией.
// nil-задача означает, что мутация ничего не изменила и синхронизация не запускалась.
type SyncTask struct {
	done   chan struct{}
	lines  int
	result domain.SyncResult
	err    error
}

func newSyncTask(lines int) *SyncTask {
	return &SyncTask{done: make(chan struct{}), lines: lines}
}

func (t *SyncTask) complete(result domain.SyncResult, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done закрывается по завершении синхронизации.
func (t *SyncTask) Done() <-chan struct{} {
	if t == nil {
		return closedCh
	}
	return t.done
}

// Lines - количество позиций, отправленных на сервер.
func (t *SyncTask) Lines() int {
	if t == nil {
		return 0
	}
	return t.lines
}

// Wait дожидается завершения синхронизации или отмены ctx.
// Ошибка синхронизации возвращается только здесь: мутация её не видит.
func (t *SyncTask) Wait(ctx context.Context) (domain.SyncResult, error) {
	if t == nil {
		return domain.SyncResult{}, nil
	}
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return domain.SyncResult{}, ctx.Err()
	}
}

var closedIdle = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// inflightSyncs считает незавершённые синхронизации. Допускает add во время ожидания idle,
// поэтому SyncNow от планировщика и Flush могут выполняться одновременно.
type inflightSyncs struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (f *inflightSyncs) add() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
}

func (f *inflightSyncs) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

// idleCh закрывается, когда счётчик опускается до нуля.
func (f *inflightSyncs) idleCh() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return closedIdle
	}
	return f.idle
}
