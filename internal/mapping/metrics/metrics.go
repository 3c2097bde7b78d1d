package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the configuration surface.
type Metrics struct {
	ConfigLoads        prometheus.Counter
	ConfigLoadFailures prometheus.Counter
	TogglesApplied     *prometheus.CounterVec
	CascadeFanout      prometheus.Histogram
}

// New creates and registers configuration metrics.
func New() *Metrics {
	return &Metrics{
		ConfigLoads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_config_loads_total",
			Help: "Configuration tree loads",
		}),
		ConfigLoadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_config_load_failures_total",
			Help: "Configuration tree loads that failed",
		}),
		TogglesApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearcheck_config_toggles_total",
			Help: "Operator flag toggles applied, by flag kind",
		}, []string{"flag"}),
		CascadeFanout: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clearcheck_cascade_fanout_nodes",
			Help:    "Nodes changed per cascade application",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

func (m *Metrics) IncConfigLoad() {
	if m != nil {
		m.ConfigLoads.Inc()
	}
}

func (m *Metrics) IncConfigLoadFailure() {
	if m != nil {
		m.ConfigLoadFailures.Inc()
	}
}

func (m *Metrics) ObserveToggle(flag string, fanout int) {
	if m != nil {
		m.TogglesApplied.WithLabelValues(flag).Inc()
		m.CascadeFanout.Observe(float64(fanout))
	}
}
