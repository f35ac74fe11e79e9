package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the backend's Prometheus collectors.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	AuthTotal     *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fnbdev_http_requests_total",
				Help: "Total number of HTTP requests handled by the development backend",
			},
			[]string{"method", "route", "status"},
		),
		AuthTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fnbdev_auth_events_total",
				Help: "Logins, refreshes and logouts by result",
			},
			[]string{"event", "result"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.RequestsTotal, m.AuthTotal)
	}
	return m
}

func (m *Metrics) observeRequest(method, route string, status int) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeAuth(event string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.AuthTotal.WithLabelValues(event, result).Inc()
}
