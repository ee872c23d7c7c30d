package node

import (
	"github.com/iov-one/tokenflow/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the flows run by a node.
type Metrics struct {
	Flows *prometheus.CounterVec
}

// NewMetrics registers the flow counters with given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenflow",
			Name:      "flows_total",
			Help:      "Number of flows run, by flow and result.",
		}, []string{"flow", "result"}),
	}
	reg.MustRegister(m.Flows)
	return m
}

func (m *Metrics) observe(flow string, err error) {
	if m == nil {
		return
	}
	m.Flows.WithLabelValues(flow, result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.IsValidation(err):
		return "validation"
	case errors.ErrDoubleSpend.Is(err):
		return "double_spend"
	case errors.ErrTimeout.Is(err):
		return "timeout"
	case errors.ErrSession.Is(err):
		return "session"
	case errors.ErrNotFound.Is(err):
		return "not_found"
	default:
		return "failure"
	}
}
