// Package metrics exposes Prometheus collectors for the order intake path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions        prometheus.Counter
	ResolutionFailures prometheus.Counter
	StaleResolutions   prometheus.Counter
	Submissions        *prometheus.CounterVec
	DraftFallbacks     prometheus.Counter
	ServerOverrides    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_order_resolutions_total",
			Help: "Requirement resolutions completed.",
		}),
		ResolutionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_order_resolution_failures_total",
			Help: "Requirement resolutions that failed to fetch inputs.",
		}),
		StaleResolutions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_order_stale_resolutions_total",
			Help: "Resolution results discarded because a newer selection superseded them.",
		}),
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearcheck_order_submissions_total",
			Help: "Order submissions by final status.",
		}, []string{"status"}),
		DraftFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_order_draft_fallbacks_total",
			Help: "Submissions saved as draft because requirements were missing.",
		}),
		ServerOverrides: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearcheck_order_server_overrides_total",
			Help: "Submissions downgraded to draft by the order store.",
		}),
	}
}

func (m *Metrics) IncResolution() {
	if m != nil {
		m.Resolutions.Inc()
	}
}

func (m *Metrics) IncResolutionFailure() {
	if m != nil {
		m.ResolutionFailures.Inc()
	}
}

func (m *Metrics) IncStaleResolution() {
	if m != nil {
		m.StaleResolutions.Inc()
	}
}

func (m *Metrics) IncSubmission(status string) {
	if m != nil {
		m.Submissions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncDraftFallback() {
	if m != nil {
		m.DraftFallbacks.Inc()
	}
}

func (m *Metrics) IncServerOverride() {
	if m != nil {
		m.ServerOverrides.Inc()
	}
}
