// Package metrics собирает счетчики запросов к движку выборки инцидентов
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shenikar/incident_dashboard/internal/models"
)

// Metrics - счетчики и гистограммы, зарегистрированные в одном реестре
type Metrics struct {
	registry *prometheus.Registry

	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	fallbackTotal *prometheus.CounterVec
}

// New создает собственный реестр, чтобы тесты не конфликтовали с глобальным
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		queryTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "incident_queries_total",
			Help: "Total incident queries by operation and serving backend",
		}, []string{"operation", "backend", "fallback"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "incident_query_duration_seconds",
			Help:    "Incident query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"operation"}),
		fallbackTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "incident_fallbacks_total",
			Help: "Requests served by the in-memory store, by reason",
		}, []string{"operation", "reason"}),
	}
}

// ObserveQuery учитывает один обслуженный запрос
func (m *Metrics) ObserveQuery(operation string, served models.Served, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queryTotal.WithLabelValues(operation, string(served.Backend), strconv.FormatBool(served.Fallback)).Inc()
	m.queryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if served.Fallback {
		m.fallbackTotal.WithLabelValues(operation, string(served.Backend)).Inc()
	}
}

// Registry возвращает реестр для проверок в тестах
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдает метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
