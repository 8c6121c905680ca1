// Package metrics описывает метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics - набор метрик сервиса.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	rateLimited   *prometheus.CounterVec
	ordersCreated prometheus.Counter
	transitions   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New регистрирует метрики в отдельном реестре вместе со стандартными
// коллекторами процесса и рантайма Go.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newWith(reg, reg)
}

func newWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by the rate limiter.",
		}, []string{"endpoint"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders successfully placed.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status transitions.",
		}, []string{"from", "to"}),
		gatherer: g,
	}
	reg.MustRegister(m.requests, m.duration, m.rateLimited, m.ordersCreated, m.transitions)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest учитывает завершённый HTTP‑запрос.
func (m *Metrics) ObserveRequest(route, method string, status int, seconds float64) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(seconds)
}

// RateLimited учитывает отклонённый лимитером запрос.
func (m *Metrics) RateLimited(endpoint string) {
	m.rateLimited.WithLabelValues(endpoint).Inc()
}

// OrderCreated учитывает оформленный заказ.
func (m *Metrics) OrderCreated() {
	m.ordersCreated.Inc()
}

// StatusChanged учитывает смену статуса заказа.
func (m *Metrics) StatusChanged(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}
