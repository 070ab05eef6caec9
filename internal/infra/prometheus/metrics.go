package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shortlink"

// Redirect results.
const (
	RedirectHit  = "hit"
	RedirectMiss = "miss"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	LinksCreated      prometheus.Counter
	LinksReused       prometheus.Counter
	CodeCollisions    prometheus.Counter
	Redirects         *prometheus.CounterVec
	IncrementFailures prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Short links created.",
		}),
		LinksReused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_reused_total",
			Help:      "Submissions answered with an existing short link.",
		}),
		CodeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Generated short codes that were already taken.",
		}),
		Redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect lookups by result.",
		}, []string{"result"}),
		IncrementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_increment_failures_total",
			Help:      "Click counter updates that failed during a redirect.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.LinksCreated,
		m.LinksReused,
		m.CodeCollisions,
		m.Redirects,
		m.IncrementFailures,
		m.RequestDuration,
	)
	return m
}

func (m *Metrics) LinkCreated() {
	if m != nil {
		m.LinksCreated.Inc()
	}
}

func (m *Metrics) LinkReused() {
	if m != nil {
		m.LinksReused.Inc()
	}
}

func (m *Metrics) CodeCollision() {
	if m != nil {
		m.CodeCollisions.Inc()
	}
}

func (m *Metrics) Redirect(result string) {
	if m != nil {
		m.Redirects.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementFailed() {
	if m != nil {
		m.IncrementFailures.Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}
