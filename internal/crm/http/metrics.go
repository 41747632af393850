package http

import (
	"net/http"
	"strconv"

	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	loginFailures prometheus.Counter
	loginLockouts prometheus.Counter
	contactEmails *prometheus.CounterVec
}

// NewMetrics registers the counters on a dedicated registry, alongside the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crm_login_failures_total",
			Help: "Rejected login attempts.",
		}),
		loginLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crm_login_lockouts_total",
			Help: "Login attempts refused because the address is locked out.",
		}),
		contactEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_contact_emails_total",
			Help: "Contact form submissions by outcome.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.loginFailures,
		m.loginLockouts,
		m.contactEmails,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by the pattern the mux matched. It must wrap
// the mux directly, since the mux records the pattern on the request it
// receives.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := httpx.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.Status)).Inc()
	})
}

func (m *Metrics) loginFailure(string) {
	if m != nil {
		m.loginFailures.Inc()
	}
}

func (m *Metrics) loginLockout(string) {
	if m != nil {
		m.loginLockouts.Inc()
	}
}

func (m *Metrics) contactResult(err error) {
	if m != nil {
		m.contactEmails.WithLabelValues(contactResultLabel(err)).Inc()
	}
}
