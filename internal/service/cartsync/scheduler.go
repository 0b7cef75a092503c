package cartsync

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// DefaultInterval - период фоновой синхронизации корзины.
const DefaultInterval = 30 * time.Second

// Pusher отправляет текущее состояние корзины на сервер.
type Pusher interface {
	SyncNow(ctx context.Context) (domain.SyncResult, error)
}

// SchedulerOptions задаёт параметры Scheduler.
type SchedulerOptions struct {
	Logger   *log.Entry
	Clock    clockwork.Clock
	Interval time.Duration
}

// SchedulerOption настраивает Scheduler.
type SchedulerOption func(*SchedulerOptions)

// WithSchedulerLogger задаёт logger планировщика.
func WithSchedulerLogger(logger *log.Entry) SchedulerOption {
	return func(opts *SchedulerOptions) {
		opts.Logger = logger
	}
}

// WithClock задаёт источник времени; в тестах - clockwork.NewFakeClock().
func WithClock(clock clockwork.Clock) SchedulerOption {
	return func(opts *SchedulerOptions) {
		opts.Clock = clock
	}
}

// WithInterval задаёт период синхронизации.
func WithInterval(interval time.Duration) SchedulerOption {
	return func(opts *SchedulerOptions) {
		opts.Interval = interval
	}
}

// Scheduler периодически отправляет корзину на сервер независимо от того, менялась ли она.
type Scheduler struct {
	pusher   Pusher
	clock    clockwork.Clock
	interval time.Duration
	logger   *log.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler создаёт планировщик поверх pusher.
func NewScheduler(pusher Pusher, options ...SchedulerOption) *Scheduler {
	opts := SchedulerOptions{Interval: DefaultInterval}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-sync-scheduler")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	return &Scheduler{
		pusher:   pusher,
		clock:    opts.Clock,
		interval: opts.Interval,
		logger:   logger,
	}
}

// Interval возвращает период синхронизации.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run синхронизирует корзину каждые interval до отмены ctx.
// Первая синхронизация происходит через interval после старта.
func (s *Scheduler) Run(ctx context.Context) {
	if s.pusher == nil {
		s.logger.Warn("cart sync scheduler is disabled: pusher is nil")
		return
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

// Start запускает Run в отдельной горутине. Повторный Start без Stop - no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.Run(runCtx)
	}()
}

// Stop останавливает планировщик и дожидается завершения текущей синхронизации.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.pusher.SyncNow(ctx)
	if err != nil {
		// Ошибка уже залогирована Store; здесь фиксируем только факт пропуска цикла.
		s.logger.WithError(err).WithField("request_id", result.RequestID).Debug("periodic cart sync failed")
		return
	}
	s.logger.WithField("request_id", result.RequestID).Debug("periodic cart sync completed")
}
