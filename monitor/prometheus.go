package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Monitor that counts dispatch failures by service,
// action and error category. Expose the registry through promhttp on
// the serving side.
type Prometheus struct {
	errors *prometheus.CounterVec
}

var _ Monitor = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus monitor and registers its
// collectors with reg. Pass prometheus.DefaultRegisterer for the
// default registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "dispatch_errors_total",
			Help:      "Backend dispatch failures by service, action and category.",
		}, []string{"service", "action", "category"}),
	}
	reg.MustRegister(m.errors)
	return m
}

// ReportError implements Monitor.
func (m *Prometheus) ReportError(ev Event) {
	m.errors.WithLabelValues(ev.Service, ev.Action, ev.Category).Inc()
}
