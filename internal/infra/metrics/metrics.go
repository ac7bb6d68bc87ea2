// Package metrics exposes provisioning counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

type Metrics struct {
	registry       *prometheus.Registry
	provisions     *prometheus.CounterVec
	recordsCreated *prometheus.CounterVec
	degraded       *prometheus.CounterVec
	verifications  *prometheus.CounterVec
}

// New registers all counters on a private registry, so several instances can
// coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		provisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_provisions_total",
			Help:      "Provisioning runs by path and result.",
		}, []string{"path", "result"}),
		recordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_records_created_total",
			Help:      "DNS records created at the registrar.",
		}, []string{"registrar", "type"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_degraded_steps_total",
			Help:      "Optional provisioning steps that failed and were skipped.",
		}, []string{"step"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_verification_checks_total",
			Help:      "Verification checks by resulting domain status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.provisions,
		m.recordsCreated,
		m.degraded,
		m.verifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Provision(path, result string) {
	m.provisions.WithLabelValues(path, result).Inc()
}

func (m *Metrics) RecordCreated(registrar, recordType string) {
	m.recordsCreated.WithLabelValues(registrar, recordType).Inc()
}

func (m *Metrics) Degraded(step string) {
	m.degraded.WithLabelValues(step).Inc()
}

func (m *Metrics) VerificationChecked(status string) {
	m.verifications.WithLabelValues(status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
