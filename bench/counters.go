package bench

import (
	"math"
	"sync/atomic"
	"time"
)

// Counters aggregates operation outcomes from many workers without locks.
type Counters struct {
	success  atomic.Uint64
	failed   atomic.Uint64
	sumNanos atomic.Int64
	minNanos atomic.Int64
	maxNanos atomic.Int64
}

func NewCounters() *Counters {
	c := &Counters{}
	c.minNanos.Store(math.MaxInt64)
	return c
}

// Record accounts one completed operation. Latency counts regardless of outcome.
func (c *Counters) Record(latency time.Duration, err error) {
	ns := int64(latency)

	c.sumNanos.Add(ns)
	if err != nil {
		c.failed.Add(1)
	} else {
		c.success.Add(1)
	}

	for {
		old := c.minNanos.Load()
		if ns >= old || c.minNanos.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := c.maxNanos.Load()
		if ns <= old || c.maxNanos.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Progress is a best-effort read for the live ticker.
func (c *Counters) Progress() (success, failed uint64) {
	return c.success.Load(), c.failed.Load()
}

// Result freezes the counters into a ScenarioResult. Call it only after all
// workers have returned.
func (c *Counters) Result(name string, elapsed time.Duration) ScenarioResult {
	r := ScenarioResult{
		Name:     name,
		Duration: elapsed,
		Success:  c.success.Load(),
		Failed:   c.failed.Load(),
	}
	r.Total = r.Success + r.Failed
	if r.Total == 0 {
		return r
	}

	r.LatencyAvg = time.Duration(c.sumNanos.Load() / int64(r.Total))
	r.LatencyMin = time.Duration(c.minNanos.Load())
	r.LatencyMax = time.Duration(c.maxNanos.Load())
	if secs := elapsed.Seconds(); secs > 0 {
		r.OpsPerSecond = float64(r.Success) / secs
	}
	return r
}
