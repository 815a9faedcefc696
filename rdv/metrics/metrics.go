// Package metrics exposes Prometheus collectors for rendezvous sessions,
// directory polling and directory RPC calls.
//
// A nil *Metrics is valid and records nothing, so library code can call it
// unconditionally.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rdv"

type Metrics struct {
	sessions     *prometheus.CounterVec
	pollAttempts *prometheus.HistogramVec
	pollWait     *prometheus.HistogramVec
	rpcCalls     *prometheus.CounterVec
	rpcLatency   *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration. Collectors already registered by an earlier call are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Rendezvous sessions by role and outcome.",
		}, []string{"role", "result"}),
		pollAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_attempts",
			Help:      "List calls issued per wait on a directory name.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}, []string{"result"}),
		pollWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_wait_seconds",
			Help:      "Time spent waiting for an entry to appear.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"result"}),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_rpc_total",
			Help:      "Directory RPC calls by method and outcome.",
		}, []string{"method", "result"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "directory_rpc_seconds",
			Help:      "Directory RPC round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.sessions, err = register(reg, m.sessions); err != nil {
		return nil, err
	}
	if m.pollAttempts, err = register(reg, m.pollAttempts); err != nil {
		return nil, err
	}
	if m.pollWait, err = register(reg, m.pollWait); err != nil {
		return nil, err
	}
	if m.rpcCalls, err = register(reg, m.rpcCalls); err != nil {
		return nil, err
	}
	if m.rpcLatency, err = register(reg, m.rpcLatency); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// SessionFinished records the outcome of a session ("completed" or the
// failure kind).
func (m *Metrics) SessionFinished(role, result string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(role, result).Inc()
}

// PollFinished records one WaitAndRemove call.
func (m *Metrics) PollFinished(attempts int, wait time.Duration, result string) {
	if m == nil {
		return
	}
	m.pollAttempts.WithLabelValues(result).Observe(float64(attempts))
	m.pollWait.WithLabelValues(result).Observe(wait.Seconds())
}

// RPCFinished records one directory call.
func (m *Metrics) RPCFinished(method, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcCalls.WithLabelValues(method, result).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(d.Seconds())
}
