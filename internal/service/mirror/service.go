package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	"github.com/vladislavdragonenkov/cafecart/internal/metrics"
)

// Результаты сохранения для метрик.
const (
	resultSaved   = "saved"
	resultInvalid = "invalid"
	resultFailed  = "failed"
)

// Options задаёт параметры Service.
type Options struct {
	Logger    *log.Entry
	Publisher domain.CartEventPublisher
	Metrics   *metrics.MirrorMetrics
	Clock     clockwork.Clock
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithPublisher включает публикацию событий корзины.
func WithPublisher(publisher domain.CartEventPublisher) Option {
	return func(opts *Options) {
		opts.Publisher = publisher
	}
}

// WithMetrics задаёт метрики зеркала.
func WithMetrics(m *metrics.MirrorMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithClock задаёт источник времени для UpdatedAt.
func WithClock(clock clockwork.Clock) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// Service хранит серверные копии корзин по идентификатору сессии.
// Каждое сохранение полностью заменяет предыдущее: побеждает последний пришедший запрос.
type Service struct {
	repo      domain.MirrorRepository
	publisher domain.CartEventPublisher
	metrics   *metrics.MirrorMetrics
	clock     clockwork.Clock
	logger    *log.Entry
}

// NewService создаёт сервис зеркал поверх репозитория.
func NewService(repo domain.MirrorRepository, options ...Option) *Service {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-mirror")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Service{
		repo:      repo,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		clock:     opts.Clock,
		logger:    logger,
	}
}

// Save заменяет зеркало сессии переданными позициями.
// Ошибка публикации события логируется и не влияет на результат.
func (s *Service) Save(ctx context.Context, sessionID string, lines []domain.CartLine) (domain.CartMirror, error) {
	if sessionID == "" {
		s.metrics.RecordSave(resultInvalid, 0)
		return domain.CartMirror{}, domain.ErrSessionRequired
	}

	cart := domain.Cart{Lines: lines}.Clone()
	mirror := domain.CartMirror{
		SessionID: sessionID,
		Lines:     cart.Lines,
		UpdatedAt: s.clock.Now().UTC(),
	}

	if err := s.repo.Save(ctx, mirror); err != nil {
		s.metrics.RecordSave(resultFailed, cart.TotalItemCount())
		s.logger.WithError(err).WithField("session_id", sessionID).Error("failed to save cart mirror")
		return domain.CartMirror{}, fmt.Errorf("save cart mirror: %w", err)
	}
	s.metrics.RecordSave(resultSaved, cart.TotalItemCount())

	entry := s.logger.WithFields(log.Fields{
		"session_id":  sessionID,
		"lines":       len(cart.Lines),
		"total_items": cart.TotalItemCount(),
	})
	entry.Debug("cart mirror saved")

	if s.publisher != nil {
		err := s.publisher.PublishCartEvent(ctx, mirror)
		s.metrics.RecordEvent(err)
		if err != nil {
			entry.WithError(err).Warn("failed to publish cart event")
		}
	}

	return mirror, nil
}

// Get возвращает зеркало сессии. Отсутствующее зеркало - пустая корзина.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.CartMirror, error) {
	if sessionID == "" {
		return domain.CartMirror{}, domain.ErrSessionRequired
	}

	mirror, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrMirrorNotFound) {
		return domain.CartMirror{SessionID: sessionID, Lines: []domain.CartLine{}}, nil
	}
	if err != nil {
		return domain.CartMirror{}, fmt.Errorf("get cart mirror: %w", err)
	}
	return mirror, nil
}

// Delete удаляет зеркало сессии.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete cart mirror: %w", err)
	}
	return nil
}
