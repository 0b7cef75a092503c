package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// Значения label result для синхронизаций.
const (
	SyncResultOK          = "ok"
	SyncResultRejected    = "rejected"
	SyncResultHTTPStatus  = "http_status"
	SyncResultTransport   = "transport"
	SyncResultMalformed   = "malformed"
	SyncResultCircuitOpen = "circuit_open"
	SyncResultError       = "error"
)

// CartMetrics содержит метрики клиентского CartStore.
type CartMetrics struct {
	syncTotal    *prometheus.CounterVec
	syncDuration prometheus.Histogram
	syncInFlight prometheus.Gauge
	mutations    *prometheus.CounterVec
	cartItems    prometheus.Gauge
}

// NewCartMetrics создаёт метрики в DefaultRegisterer.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer создаёт метрики в переданном registerer (в тестах - изолированный registry).
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	return &CartMetrics{
		syncTotal: register(registerer, "cafecart_sync_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafecart_sync_total",
			Help: "Total number of cart sync attempts grouped by result.",
		}, []string{"result"})),
		syncDuration: register(registerer, "cafecart_sync_duration_seconds", prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafecart_sync_duration_seconds",
			Help:    "Duration of cart sync requests in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})),
		syncInFlight: register(registerer, "cafecart_sync_in_flight", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cafecart_sync_in_flight",
			Help: "Number of cart syncs currently in flight.",
		})),
		mutations: register(registerer, "cafecart_cart_mutations_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafecart_cart_mutations_total",
			Help: "Total number of cart mutations grouped by operation.",
		}, []string{"op"})),
		cartItems: register(registerer, "cafecart_cart_items", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cafecart_cart_items",
			Help: "Total item count in the local cart after the last mutation.",
		})),
	}
}

// SyncResultLabel переводит ошибку синхронизации в значение label result.
func SyncResultLabel(err error) string {
	switch {
	case err == nil:
		return SyncResultOK
	case errors.Is(err, domain.ErrSyncRejected):
		return SyncResultRejected
	case errors.Is(err, domain.ErrSyncHTTPStatus):
		return SyncResultHTTPStatus
	case errors.Is(err, domain.ErrSyncTransport):
		return SyncResultTransport
	case errors.Is(err, domain.ErrSyncMalformedResponse):
		return SyncResultMalformed
	case errors.Is(err, domain.ErrSyncCircuitOpen):
		return SyncResultCircuitOpen
	default:
		return SyncResultError
	}
}

// RecordSyncStarted увеличивает количество синхронизаций в полёте.
func (m *CartMetrics) RecordSyncStarted() {
	if m == nil {
		return
	}
	m.syncInFlight.Inc()
}

// RecordSyncFinished фиксирует результат и длительность синхронизации.
func (m *CartMetrics) RecordSyncFinished(err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.syncInFlight.Dec()
	m.syncTotal.WithLabelValues(SyncResultLabel(err)).Inc()
	m.syncDuration.Observe(duration.Seconds())
}

// RecordMutation фиксирует мутацию корзины и текущее количество единиц.
func (m *CartMetrics) RecordMutation(op string, totalItems int) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
	m.cartItems.Set(float64(totalItems))
}
