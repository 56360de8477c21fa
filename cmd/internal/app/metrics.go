package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resumegate/cmd/internal/request"
)

// Metrics owns the Prometheus registry and implements request.Observer.
type Metrics struct {
	reg *prometheus.Registry

	submitted    *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	mailSent     *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ request.Observer = (*Metrics)(nil)

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumegate",
			Name:      "requests_submitted_total",
			Help:      "Resume requests received at intake, by result.",
		}, []string{"result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumegate",
			Name:      "decisions_total",
			Help:      "Decision links handled, by outcome.",
		}, []string{"outcome"}),
		mailSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumegate",
			Name:      "mail_sent_total",
			Help:      "Outbound emails, by kind and result.",
		}, []string{"kind", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumegate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_class"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submitted,
		m.decisions,
		m.mailSent,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Submitted(result string) {
	m.submitted.WithLabelValues(result).Inc()
}

func (m *Metrics) Decided(outcome request.Outcome) {
	m.decisions.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) MailSent(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mailSent.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) observeHTTP(method, route, class string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, class).Observe(seconds)
}
