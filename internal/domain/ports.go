package domain

import (
	"context"
	"time"
)

// SnapshotStore - клиентское хранилище именованных слотов со снапшотами корзины.
type SnapshotStore interface {
	// Get возвращает содержимое слота или ErrSnapshotNotFound.
	Get(ctx context.Context, slot string) ([]byte, error)
	// Put перезаписывает слот целиком.
	Put(ctx context.Context, slot string, data []byte) error
	// Delete удаляет слот. Отсутствие слота не считается ошибкой.
	Delete(ctx context.Context, slot string) error
}

// CartSyncer отправляет состояние корзины на сервер.
type CartSyncer interface {
	// Push передаёт полный список позиций; ответ с success=false возвращается как ErrSyncRejected.
	Push(ctx context.Context, lines []CartLine) (SyncResult, error)
}

// SyncResult описывает ответ сервера на синхронизацию.
type SyncResult struct {
	Success    bool
	Message    string
	StatusCode int
	RequestID  string
}

// Renderer отображает состояние корзины (страница корзины и счётчик-бейдж).
type Renderer interface {
	RenderCart(view CartView)
	RenderBadge(badge BadgeView)
}

// NotificationLevel - уровень пользовательского уведомления.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationDanger  NotificationLevel = "danger"
)

// Notifier показывает кратковременные уведомления пользователю.
type Notifier interface {
	Notify(level NotificationLevel, message string)
}

// CartView - данные для отрисовки страницы корзины.
type CartView struct {
	Lines       []CartViewLine
	TotalAmount float64
	Empty       bool
}

// CartViewLine - позиция с посчитанной суммой.
type CartViewLine struct {
	CartLine
	LineTotal float64
}

// BadgeView - состояние счётчика позиций в навигации.
type BadgeView struct {
	Count   int
	Visible bool
}

// NewCartView строит представление корзины для Renderer.
func NewCartView(c Cart) CartView {
	view := CartView{
		Lines:       make([]CartViewLine, 0, len(c.Lines)),
		TotalAmount: c.TotalAmount(),
		Empty:       c.IsEmpty(),
	}
	for _, line := range c.Lines {
		view.Lines = append(view.Lines, CartViewLine{CartLine: line, LineTotal: line.LineTotal()})
	}
	return view
}

// NewBadgeView строит бейдж: скрыт, когда позиций нет.
func NewBadgeView(c Cart) BadgeView {
	count := c.TotalItemCount()
	return BadgeView{Count: count, Visible: count > 0}
}

// CartMirror - серверная копия корзины, привязанная к сессии браузера.
type CartMirror struct {
	SessionID string
	Lines     []CartLine
	UpdatedAt time.Time
}

// Cart возвращает зеркало как доменную корзину.
func (m CartMirror) Cart() Cart {
	return Cart{Lines: m.Lines}.Clone()
}

// MirrorRepository хранит серверные копии корзин. Последняя запись побеждает.
type MirrorRepository interface {
	Save(ctx context.Context, mirror CartMirror) error
	Get(ctx context.Context, sessionID string) (CartMirror, error)
	Delete(ctx context.Context, sessionID string) error
}

// CartEventPublisher публикует события изменения зеркала во внешний брокер.
type CartEventPublisher interface {
	PublishCartEvent(ctx context.Context, mirror CartMirror) error
}
