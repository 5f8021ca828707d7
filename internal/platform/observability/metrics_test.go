package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountersIncrement(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRecompute("ok", 5*time.Millisecond)
	m.ObserveRecompute("ok", 5*time.Millisecond)
	m.RecordDrift()
	m.RecordTransition("pending", "approved")
	m.RecordViewUpdate("rejected_state")

	if got := testutil.ToFloat64(m.walletRecomputes.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 recomputes, got %v", got)
	}
	if got := testutil.ToFloat64(m.walletDrift); got != 1 {
		t.Fatalf("expected 1 drift correction, got %v", got)
	}
	if got := testutil.ToFloat64(m.clipTransitions.WithLabelValues("pending", "approved")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.clipViewUpdates.WithLabelValues("rejected_state")); got != 1 {
		t.Fatalf("expected 1 view update, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveRecompute("ok", time.Millisecond)
	m.RecordDrift()
	m.RecordTransition("a", "b")
	m.RecordViewUpdate("ok")
}
