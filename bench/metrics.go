package bench

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "loadtest"

// Metrics mirrors the harness counters into Prometheus collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
	lag     prometheus.Histogram
	trials  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Workload operations completed, by scenario and outcome.",
		}, []string{"scenario", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Workload operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"scenario"}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "replication_lag_seconds",
			Help:      "Observed primary to replica visibility lag.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replication_trials_total",
			Help:      "Replication probe trials, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.ops, m.latency, m.lag, m.trials)
	return m
}

type scenarioObserver struct {
	success  prometheus.Counter
	failure  prometheus.Counter
	duration prometheus.Observer
}

// forScenario resolves the label values once so workers avoid the vec lookup.
func (m *Metrics) forScenario(name string) *scenarioObserver {
	if m == nil {
		return nil
	}
	return &scenarioObserver{
		success:  m.ops.WithLabelValues(name, "success"),
		failure:  m.ops.WithLabelValues(name, "failure"),
		duration: m.latency.WithLabelValues(name),
	}
}

func (o *scenarioObserver) observe(d time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.Observe(d.Seconds())
	if err != nil {
		o.failure.Inc()
	} else {
		o.success.Inc()
	}
}

func (m *Metrics) observeTrial(outcome string, lag time.Duration) {
	if m == nil {
		return
	}
	m.trials.WithLabelValues(outcome).Inc()
	if outcome == trialReplicated {
		m.lag.Observe(lag.Seconds())
	}
}
