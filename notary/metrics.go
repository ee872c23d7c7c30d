package notary

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the decisions of a notary.
type Metrics struct {
	Certified prometheus.Counter
	Rejected  *prometheus.CounterVec
}

// NewMetrics registers the notary counters with given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Certified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tokenflow",
			Subsystem: "notary",
			Name:      "certified_total",
			Help:      "Number of certified transactions.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenflow",
			Subsystem: "notary",
			Name:      "rejections_total",
			Help:      "Number of rejected notarisation requests.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.Certified, m.Rejected)
	return m
}

func (m *Metrics) certified() {
	if m != nil {
		m.Certified.Inc()
	}
}

func (m *Metrics) rejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}
