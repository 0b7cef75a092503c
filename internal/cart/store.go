package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	"github.com/vladislavdragonenkov/cafecart/internal/metrics"
)

const defaultSyncTimeout = 10 * time.Second

// Названия операций для логов и метрик.
const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update"
	opClear  = "clear"
	opSave   = "save"
)

// Options задаёт параметры Store.
type Options struct {
	Logger      *log.Entry
	Slot        string
	Renderer    domain.Renderer
	Notifier    domain.Notifier
	Metrics     *metrics.CartMetrics
	SyncTimeout time.Duration
}

// Option настраивает Store.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithSlot задаёт имя слота снапшота.
func WithSlot(slot string) Option {
	return func(opts *Options) {
		opts.Slot = slot
	}
}

// WithRenderer задаёт отрисовку корзины и бейджа.
func WithRenderer(renderer domain.Renderer) Option {
	return func(opts *Options) {
		opts.Renderer = renderer
	}
}

// WithNotifier задаёт показ уведомлений.
func WithNotifier(notifier domain.Notifier) Option {
	return func(opts *Options) {
		opts.Notifier = notifier
	}
}

// WithMetrics задаёт prometheus-метрики.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithSyncTimeout ограничивает длительность одной синхронизации.
func WithSyncTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.SyncTimeout = timeout
	}
}

// Store - локальная корзина со снапшотом в SnapshotStore и зеркалированием на сервер.
//
// Каждая мутация: читает снапшот, меняет его, синхронно пишет обратно и
// запускает синхронизацию в отдельной горутине. Синхронизации не отменяются
// последующими мутациями и могут завершиться в любом порядке.
type Store struct {
	snapshots   domain.SnapshotStore
	syncer      domain.CartSyncer
	renderer    domain.Renderer
	notifier    domain.Notifier
	metrics     *metrics.CartMetrics
	logger      *log.Entry
	slot        string
	syncTimeout time.Duration

	mu       sync.Mutex
	inflight inflightSyncs
}

// NewStore создаёт Store поверх хранилища снапшотов и синхронизатора.
func NewStore(snapshots domain.SnapshotStore, syncer domain.CartSyncer, options ...Option) *Store {
	opts := Options{
		Slot:        domain.DefaultSnapshotSlot,
		SyncTimeout: defaultSyncTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-store")
	}
	if opts.Slot == "" {
		opts.Slot = domain.DefaultSnapshotSlot
	}
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = defaultSyncTimeout
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	return &Store{
		snapshots:   snapshots,
		syncer:      syncer,
		renderer:    opts.Renderer,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		logger:      logger.WithField("slot", opts.Slot),
		slot:        opts.Slot,
		syncTimeout: opts.SyncTimeout,
	}
}

// Load читает снапшот. Отсутствующий или повреждённый снапшот - пустая корзина.
func (s *Store) Load(ctx context.Context) domain.Cart {
	data, err := s.snapshots.Get(ctx, s.slot)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.WithError(err).Warn("failed to read cart snapshot, treating cart as empty")
		}
		return domain.NewCart()
	}

	cart, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		s.logger.WithError(err).Warn("malformed cart snapshot, treating cart as empty")
		return domain.NewCart()
	}
	return cart
}

// Save сохраняет корзину и запускает синхронизацию.
func (s *Store) Save(ctx context.Context, cart domain.Cart) (*SyncTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.persist(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordMutation(opSave, cart.TotalItemCount())
	return task, nil
}

// Clear удаляет снапшот целиком, обновляет отображение и синхронизирует пустую корзину.
func (s *Store) Clear(ctx context.Context) (*SyncTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.snapshots.Delete(ctx, s.slot); err != nil {
		return nil, fmt.Errorf("clear cart snapshot: %w", err)
	}

	empty := domain.NewCart()
	s.renderBadge(empty)
	s.renderCart(empty)
	s.metrics.RecordMutation(opClear, 0)
	s.logger.Info("cart cleared")

	return s.dispatchSync(ctx, empty.Lines), nil
}

// AddItem увеличивает количество позиции id на 1 или добавляет её с количеством 1.
func (s *Store) AddItem(ctx context.Context, id, name string, price float64) (*SyncTask, error) {
	if err := domain.ValidateLineArgs(id, name, price); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"id":    id,
			"name":  name,
			"price": price,
		}).Error("invalid parameters for add to cart")
		return nil, fmt.Errorf("add item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.Load(ctx)
	cart.Add(id, name, price)

	task, err := s.persist(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.renderBadge(cart)
	s.notifier.Notify(domain.NotificationSuccess, fmt.Sprintf("Added to Cart! %s has been added to your cart.", name))
	s.metrics.RecordMutation(opAdd, cart.TotalItemCount())

	return task, nil
}

// RemoveItem удаляет позицию id. Отсутствующая позиция не меняет корзину,
// но снапшот всё равно перезаписывается и синхронизируется.
func (s *Store) RemoveItem(ctx context.Context, id string) (*SyncTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(ctx, id)
}

// UpdateQuantity добавляет delta к количеству позиции id.
// Количество <= 0 удаляет позицию; отсутствующая позиция - no-op с nil-задачей.
func (s *Store) UpdateQuantity(ctx context.Context, id string, delta int) (*SyncTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.Load(ctx)
	qty, ok := cart.AdjustQuantity(id, delta)
	if !ok {
		return nil, nil
	}
	if qty <= 0 {
		return s.removeLocked(ctx, id)
	}

	task, err := s.persist(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.renderBadge(cart)
	s.renderCart(cart)
	s.metrics.RecordMutation(opUpdate, cart.TotalItemCount())

	return task, nil
}

// TotalItemCount - сумма количеств всех позиций.
func (s *Store) TotalItemCount(ctx context.Context) int {
	return s.Load(ctx).TotalItemCount()
}

// TotalAmount - сумма price * quantity всех позиций.
func (s *Store) TotalAmount(ctx context.Context) float64 {
	return s.Load(ctx).TotalAmount()
}

// Refresh перерисовывает корзину и бейдж по текущему снапшоту.
func (s *Store) Refresh(ctx context.Context) {
	cart := s.Load(ctx)
	s.renderCart(cart)
	s.renderBadge(cart)
}

// SyncNow синхронно отправляет текущий снапшот на сервер.
// Используется периодическим планировщиком и ручным сохранением.
func (s *Store) SyncNow(ctx context.Context) (domain.SyncResult, error) {
	cart := s.Load(ctx)

	s.inflight.add()
	defer s.inflight.done()
	return s.push(ctx, cart.Lines)
}

// Flush дожидается завершения всех запущенных синхронизаций,
// включая начатые во время ожидания.
func (s *Store) Flush(ctx context.Context) error {
	select {
	case <-s.inflight.idleCh():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) removeLocked(ctx context.Context, id string) (*SyncTask, error) {
	cart := s.Load(ctx)
	cart.Remove(id)

	task, err := s.persist(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.renderBadge(cart)
	s.renderCart(cart)
	s.metrics.RecordMutation(opRemove, cart.TotalItemCount())

	return task, nil
}

// persist пишет снапшот и запускает синхронизацию. Вызывается под s.mu.
func (s *Store) persist(ctx context.Context, cart domain.Cart) (*SyncTask, error) {
	data, err := domain.MarshalSnapshot(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := s.snapshots.Put(ctx, s.slot, data); err != nil {
		return nil, fmt.Errorf("write cart snapshot: %w", err)
	}
	return s.dispatchSync(ctx, cart.Lines), nil
}

func (s *Store) dispatchSync(ctx context.Context, lines []domain.CartLine) *SyncTask {
	payload := make([]domain.CartLine, len(lines))
	copy(payload, lines)

	task := newSyncTask(len(payload))
	// Мутация не должна отменять синхронизацию: берём значения ctx, но не его отмену.
	syncCtx := context.WithoutCancel(ctx)

	s.inflight.add()
	go func() {
		defer s.inflight.done()

		ctx, cancel := context.WithTimeout(syncCtx, s.syncTimeout)
		defer cancel()
		task.complete(s.push(ctx, payload))
	}()

	return task
}

func (s *Store) push(ctx context.Context, lines []domain.CartLine) (domain.SyncResult, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}

	s.metrics.RecordSyncStarted()
	start := time.Now()
	result, err := s.syncer.Push(ctx, lines)
	s.metrics.RecordSyncFinished(err, time.Since(start))

	entry := s.logger.WithFields(log.Fields{
		"lines":      len(lines),
		"status":     result.StatusCode,
		"request_id": result.RequestID,
	})
	if err != nil {
		if result.Message != "" {
			entry = entry.WithField("message", result.Message)
		}
		entry.WithError(err).Error("failed to sync cart with backend")
		return result, err
	}

	entry.Debug("cart synced with backend")
	return result, nil
}

func (s *Store) renderCart(cart domain.Cart) {
	s.renderer.RenderCart(domain.NewCartView(cart))
}

func (s *Store) renderBadge(cart domain.Cart) {
	s.renderer.RenderBadge(domain.NewBadgeView(cart))
}

type nopRenderer struct{}

func (nopRenderer) RenderCart(domain.CartView)   {}
func (nopRenderer) RenderBadge(domain.BadgeView) {}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.NotificationLevel, string) {}
