package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records clip review and wallet aggregation activity.
type Metrics struct {
	walletRecomputes   *prometheus.CounterVec
	walletRecomputeDur prometheus.Histogram
	walletDrift        prometheus.Counter
	clipTransitions    *prometheus.CounterVec
	clipViewUpdates    *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Passing a fresh registry keeps
// tests independent of the global default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		walletRecomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clypzy",
			Subsystem: "wallet",
			Name:      "recomputes_total",
			Help:      "Wallet balance recomputations segmented by outcome.",
		}, []string{"outcome"}),
		walletRecomputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clypzy",
			Subsystem: "wallet",
			Name:      "recompute_duration_seconds",
			Help:      "Latency of full wallet recomputations.",
			Buckets:   prometheus.DefBuckets,
		}),
		walletDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clypzy",
			Subsystem: "wallet",
			Name:      "drift_corrections_total",
			Help:      "Wallets whose stored balance differed from the recomputed sum.",
		}),
		clipTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clypzy",
			Subsystem: "clip",
			Name:      "status_transitions_total",
			Help:      "Accepted clip status transitions.",
		}, []string{"from", "to"}),
		clipViewUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clypzy",
			Subsystem: "clip",
			Name:      "view_updates_total",
			Help:      "Clip view updates segmented by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.walletRecomputes,
			m.walletRecomputeDur,
			m.walletDrift,
			m.clipTransitions,
			m.clipViewUpdates,
		)
	}
	return m
}

func (m *Metrics) ObserveRecompute(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.walletRecomputes.WithLabelValues(outcome).Inc()
	m.walletRecomputeDur.Observe(duration.Seconds())
}

func (m *Metrics) RecordDrift() {
	if m == nil {
		return
	}
	m.walletDrift.Inc()
}

func (m *Metrics) RecordTransition(from string, to string) {
	if m == nil {
		return
	}
	m.clipTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordViewUpdate(outcome string) {
	if m == nil {
		return
	}
	m.clipViewUpdates.WithLabelValues(outcome).Inc()
}
