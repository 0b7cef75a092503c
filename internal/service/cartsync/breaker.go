package cartsync

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// BreakerSettings задаёт параметры circuit breaker вокруг синхронизатора.
type BreakerSettings struct {
	// ConsecutiveFailures - число подряд неудачных синхронизаций до размыкания.
	ConsecutiveFailures uint32
	// OpenTimeout - время в open-состоянии до пробного запроса.
	OpenTimeout time.Duration
	Logger      *log.Entry
}

// BreakerSyncer пропускает синхронизации, пока сервер стабильно недоступен.
type BreakerSyncer struct {
	next domain.CartSyncer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSyncer оборачивает next в circuit breaker.
// Отказ сервера (success=false) не считается сбоем транспорта и не размыкает цепь.
func NewBreakerSyncer(next domain.CartSyncer, settings BreakerSettings) *BreakerSyncer {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = defaultBreakerFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = defaultBreakerTimeout
	}
	logger := settings.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-sync-breaker")
	}
	threshold := settings.ConsecutiveFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cart-sync",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrSyncRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("cart sync circuit breaker state changed")
		},
	})

	return &BreakerSyncer{next: next, cb: cb}
}

// State возвращает текущее состояние breaker.
func (b *BreakerSyncer) State() gobreaker.State {
	return b.cb.State()
}

// Push вызывает next, если цепь не разомкнута.
func (b *BreakerSyncer) Push(ctx context.Context, lines []domain.CartLine) (domain.SyncResult, error) {
	var result domain.SyncResult
	_, err := b.cb.Execute(func() (interface{}, error) {
		var pushErr error
		result, pushErr = b.next.Push(ctx, lines)
		return nil, pushErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return result, domain.ErrSyncCircuitOpen
	}
	return result, err
}

var _ domain.CartSyncer = (*BreakerSyncer)(nil)
