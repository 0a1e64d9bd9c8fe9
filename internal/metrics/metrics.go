// ABOUTME: Prometheus metrics for guard decisions, confirmations, and logins
// ABOUTME: Uses a private registry so tests can create as many as they like

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/shop-admin/internal/guard"
)

// Registry holds the dashboard's metrics.
type Registry struct {
	reg *prometheus.Registry

	GuardDecisions *prometheus.CounterVec
	Confirmations  *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
}

// NewRegistry creates and registers all metrics.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop_admin",
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by outcome.",
		}, []string{"decision"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop_admin",
			Name:      "confirmations_total",
			Help:      "Confirmation dialog outcomes.",
		}, []string{"outcome"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop_admin",
			Name:      "login_attempts_total",
			Help:      "Login attempts by surface and result.",
		}, []string{"surface", "result"}),
	}

	r.reg.MustRegister(
		r.GuardDecisions,
		r.Confirmations,
		r.LoginAttempts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// GuardDecision implements guard.Observer.
func (r *Registry) GuardDecision(d guard.Decision) {
	r.GuardDecisions.WithLabelValues(d.String()).Inc()
}

// ConfirmationResolved implements confirm.Observer.
func (r *Registry) ConfirmationResolved(confirmed bool) {
	outcome := "cancelled"
	if confirmed {
		outcome = "confirmed"
	}
	r.Confirmations.WithLabelValues(outcome).Inc()
}

// ConfirmationAbandoned implements confirm.Observer.
func (r *Registry) ConfirmationAbandoned() {
	r.Confirmations.WithLabelValues("abandoned").Inc()
}

// Login records a login attempt. surface is "api" or "web".
func (r *Registry) Login(surface string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	r.LoginAttempts.WithLabelValues(surface, result).Inc()
}
