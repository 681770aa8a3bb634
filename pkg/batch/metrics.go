package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts host outcomes and per-host latency.
type Metrics struct {
	hostsTotal   *prometheus.CounterVec
	hostDuration *prometheus.HistogramVec
}

// NewMetrics registers the batch collectors with registerer. Registering
// twice on the same registerer reuses the existing collectors; any other
// registration failure is returned.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		hostsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "regremote",
				Subsystem: "batch",
				Name:      "hosts_total",
				Help:      "Hosts processed by operation and terminal state",
			},
			[]string{"operation", "state"},
		),
		hostDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "regremote",
				Subsystem: "batch",
				Name:      "host_duration_seconds",
				Help:      "Time from resolve to release for one host",
				Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
			},
			[]string{"operation"},
		),
	}
	var err error
	if m.hostsTotal, err = register(registerer, m.hostsTotal); err != nil {
		return nil, err
	}
	if m.hostDuration, err = register(registerer, m.hostDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	err := registerer.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register batch metrics: %w", err)
}

func (m *Metrics) observe(op string, state State, d time.Duration) {
	if m == nil {
		return
	}
	m.hostsTotal.WithLabelValues(op, state.String()).Inc()
	m.hostDuration.WithLabelValues(op).Observe(d.Seconds())
}
