package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Recovery outcomes recorded by Metrics.
const (
	OutcomeRecovered = "recovered"
	OutcomeRejected  = "rejected"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RecoveriesTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them when registry is not nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fnbconsole_client_requests_total",
				Help: "Total number of API requests sent, including replays",
			},
			[]string{"method", "status"},
		),
		RecoveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fnbconsole_client_token_recoveries_total",
				Help: "Requests rejected for an expired token, by recovery outcome",
			},
			[]string{"outcome"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.RequestsTotal, m.RecoveriesTotal)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, label).Inc()
}

func (m *Metrics) observeRecovery(outcome string) {
	if m == nil {
		return
	}
	m.RecoveriesTotal.WithLabelValues(outcome).Inc()
}
