package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.SessionFinished("initiator", "completed")
	m.SessionFinished("initiator", "completed")
	m.RPCFinished("directory.List", "success", 10*time.Millisecond)
	m.PollFinished(3, 600*time.Millisecond, "timeout")

	if got := testutil.ToFloat64(m.sessions.WithLabelValues("initiator", "completed")); got != 2 {
		t.Fatalf("sessions_total = %v", got)
	}
	if got := testutil.ToFloat64(m.rpcCalls.WithLabelValues("directory.List", "success")); got != 1 {
		t.Fatalf("directory_rpc_total = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "rdv_poll_attempts"); err != nil || n != 1 {
		t.Fatalf("poll_attempts series = %d, %v", n, err)
	}
}

func TestMetricsReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m1, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m2, err := New(reg)
	if err != nil {
		t.Fatalf("New again: %v", err)
	}
	m1.SessionFinished("contributor", "timeout")
	if got := testutil.ToFloat64(m2.sessions.WithLabelValues("contributor", "timeout")); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.SessionFinished("initiator", "completed")
	m.PollFinished(1, time.Second, "found")
	m.RPCFinished("directory.Add", "error", time.Second)
}
