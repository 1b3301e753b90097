package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunnerRecordsMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	r := &Runner{Metrics: m}

	n := 0
	r.Run(context.Background(), Scenario{
		Name:         "writes",
		Concurrency:  1,
		OpsPerWorker: 4,
		MaxDuration:  time.Second,
		Op: func(context.Context) error {
			n++
			if n == 4 {
				return errors.New("duplicate key")
			}
			return nil
		},
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ops.WithLabelValues("writes", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("writes", "failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestProberRecordsMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	cluster := newLagCluster(0)
	cluster.writeErr = func(n int) error {
		if n == 1 {
			return errors.New("boom")
		}
		return nil
	}
	p := &Prober{Primary: cluster, Replica: cluster, Metrics: m}
	p.Probe(context.Background(), 3, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.trials.WithLabelValues(trialReplicated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trials.WithLabelValues(trialWriteFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.lag))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.forScenario("x").observe(time.Millisecond, nil)
	m.observeTrial(trialTimedOut, 0)
}
