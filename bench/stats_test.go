package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func samplesOf(lags ...time.Duration) []ReplicationLagSample {
	out := make([]ReplicationLagSample, len(lags))
	for i, l := range lags {
		out[i] = ReplicationLagSample{TrialID: "t", Lag: l}
	}
	return out
}

func TestPercentileFloorIndex(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = ms(i + 1)
	}
	assert.Equal(t, ms(51), Percentile(sorted, 50))
	assert.Equal(t, ms(96), Percentile(sorted, 95))
	assert.Equal(t, ms(100), Percentile(sorted, 99))
	assert.Equal(t, ms(1), Percentile(sorted, 0))
	assert.Equal(t, ms(100), Percentile(sorted, 100))

	assert.Equal(t, ms(7), Percentile([]time.Duration{ms(7)}, 99))
	assert.Zero(t, Percentile(nil, 50))
}

func TestComputeReplicationNoSamples(t *testing.T) {
	r := ComputeReplication(10, 3, 7, nil)
	assert.Equal(t, 10, r.Attempted)
	assert.Equal(t, 0, r.Succeeded)
	assert.Equal(t, 10, r.Failed())
	assert.Zero(t, r.LagAvg)
	assert.Zero(t, r.LagP99)
	assert.Zero(t, r.SuccessRate())
}

func TestComputeReplication(t *testing.T) {
	r := ComputeReplication(5, 1, 0, samplesOf(ms(4), ms(2), ms(8), ms(6)))

	assert.Equal(t, 4, r.Succeeded)
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, ms(5), r.LagAvg)
	assert.Equal(t, ms(2), r.LagMin)
	assert.Equal(t, ms(8), r.LagMax)
	assert.Equal(t, ms(6), r.LagP50)
	assert.Equal(t, ms(8), r.LagP95)
	assert.Equal(t, ms(8), r.LagP99)
	assert.Equal(t, 80.0, r.SuccessRate())
	assert.Zero(t, r.Anomalies)
}

func TestComputeReplicationKeepsNegativeLag(t *testing.T) {
	r := ComputeReplication(2, 0, 0, samplesOf(-ms(3), ms(5)))

	assert.Equal(t, 1, r.Anomalies)
	assert.Equal(t, -ms(3), r.LagMin, "negative lag must not be clamped")
	assert.Equal(t, ms(1), r.LagAvg)
}

func TestComputeReplicationOrderingRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Int64Range(0, int64(10*time.Second)), 1, 500).Draw(t, "lags")
		lags := make([]time.Duration, len(raw))
		for i, v := range raw {
			lags[i] = time.Duration(v)
		}

		r := ComputeReplication(len(lags), 0, 0, samplesOf(lags...))

		if !(r.LagP50 <= r.LagP95 && r.LagP95 <= r.LagP99 && r.LagP99 <= r.LagMax) {
			t.Fatalf("percentiles out of order: p50=%v p95=%v p99=%v max=%v", r.LagP50, r.LagP95, r.LagP99, r.LagMax)
		}
		if !(r.LagMin <= r.LagAvg && r.LagAvg <= r.LagMax) {
			t.Fatalf("min %v avg %v max %v out of order", r.LagMin, r.LagAvg, r.LagMax)
		}
		if r.Anomalies != 0 {
			t.Fatalf("unexpected anomalies: %d", r.Anomalies)
		}
	})
}

func TestMedianResult(t *testing.T) {
	runs := []ScenarioResult{
		{Name: "a", OpsPerSecond: 300},
		{Name: "b", OpsPerSecond: 100},
		{Name: "c", OpsPerSecond: 200},
	}
	assert.Equal(t, "c", MedianResult(runs).Name)
	assert.Equal(t, "a", runs[0].Name, "input order must be preserved")
}

func TestSteadyState(t *testing.T) {
	steady, dev := SteadyState([]ScenarioResult{{OpsPerSecond: 100}, {OpsPerSecond: 102}, {OpsPerSecond: 98}}, 0.05)
	assert.True(t, steady)
	assert.InDelta(t, 0.02, dev, 1e-9)

	steady, _ = SteadyState([]ScenarioResult{{OpsPerSecond: 100}, {OpsPerSecond: 200}}, 0.05)
	assert.False(t, steady)

	steady, _ = SteadyState([]ScenarioResult{{OpsPerSecond: 0}, {OpsPerSecond: 0}}, 0.05)
	assert.False(t, steady)
}
