package metrics

import "github.com/prometheus/client_golang/prometheus"

// MirrorMetrics содержит метрики серверной части (зеркало корзин).
type MirrorMetrics struct {
	saves       *prometheus.CounterVec
	events      *prometheus.CounterVec
	rateLimited prometheus.Counter
	mirrorItems prometheus.Histogram
}

// NewMirrorMetrics создаёт метрики в DefaultRegisterer.
func NewMirrorMetrics() *MirrorMetrics {
	return NewMirrorMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMirrorMetricsWithRegisterer создаёт метрики в переданном registerer.
func NewMirrorMetricsWithRegisterer(registerer prometheus.Registerer) *MirrorMetrics {
	return &MirrorMetrics{
		saves: register(registerer, "cafecart_mirror_saves_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafecart_mirror_saves_total",
			Help: "Total number of save-cart requests grouped by result.",
		}, []string{"result"})),
		events: register(registerer, "cafecart_mirror_events_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafecart_mirror_events_total",
			Help: "Total number of cart events published to the broker grouped by result.",
		}, []string{"result"})),
		rateLimited: register(registerer, "cafecart_api_rate_limited_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafecart_api_rate_limited_total",
			Help: "Total number of API requests rejected by the rate limiter.",
		})),
		mirrorItems: register(registerer, "cafecart_mirror_items", prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafecart_mirror_items",
			Help:    "Item count of mirrored carts at save time.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		})),
	}
}

// RecordSave фиксирует результат сохранения зеркала ("ok", "invalid", "error").
func (m *MirrorMetrics) RecordSave(result string, totalItems int) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
	if result == "ok" {
		m.mirrorItems.Observe(float64(totalItems))
	}
}

// RecordEvent фиксирует публикацию события в брокер.
func (m *MirrorMetrics) RecordEvent(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.events.WithLabelValues(result).Inc()
}

// RecordRateLimited увеличивает счётчик отклонённых лимитером запросов.
func (m *MirrorMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
