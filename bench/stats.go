package bench

import (
	"math"
	"sort"
	"time"
)

// ComputeReplication aggregates the successful samples of a probe run.
// Failed trials only show up in the counts.
func ComputeReplication(attempted, writeFailed, timedOut int, samples []ReplicationLagSample) ReplicationResult {
	r := ReplicationResult{
		Attempted:   attempted,
		Succeeded:   len(samples),
		WriteFailed: writeFailed,
		TimedOut:    timedOut,
		Samples:     samples,
	}
	if len(samples) == 0 {
		return r
	}

	lags := make([]time.Duration, len(samples))
	var sum time.Duration
	for i, s := range samples {
		lags[i] = s.Lag
		sum += s.Lag
		if s.Anomalous() {
			r.Anomalies++
		}
	}
	sort.Slice(lags, func(i, j int) bool { return lags[i] < lags[j] })

	r.LagAvg = sum / time.Duration(len(lags))
	r.LagMin = lags[0]
	r.LagMax = lags[len(lags)-1]
	r.LagP50 = Percentile(lags, 50)
	r.LagP95 = Percentile(lags, 95)
	r.LagP99 = Percentile(lags, 99)
	return r
}

// Percentile picks sorted[floor(len*p/100)] without interpolation.
func Percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MedianResult picks the median run by throughput from multiple runs.
func MedianResult(runs []ScenarioResult) ScenarioResult {
	if len(runs) == 1 {
		return runs[0]
	}
	sorted := make([]ScenarioResult, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OpsPerSecond < sorted[j].OpsPerSecond })
	return sorted[len(sorted)/2]
}

// SteadyState checks if throughput variance across runs is within tolerance.
func SteadyState(runs []ScenarioResult, tolerance float64) (bool, float64) {
	if len(runs) < 2 {
		return true, 0
	}
	var sum float64
	for _, r := range runs {
		sum += r.OpsPerSecond
	}
	mean := sum / float64(len(runs))
	if mean == 0 {
		return false, 0
	}

	var maxDev float64
	for _, r := range runs {
		dev := math.Abs(r.OpsPerSecond-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= tolerance, maxDev
}
