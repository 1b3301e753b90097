package bench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer written by the progress goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunCountsEveryOperation(t *testing.T) {
	var calls atomic.Int64
	r := &Runner{}
	res := r.Run(context.Background(), Scenario{
		Name:         "reads",
		Concurrency:  5,
		OpsPerWorker: 10,
		MaxDuration:  5 * time.Second,
		Op: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})

	assert.Equal(t, "reads", res.Name)
	assert.Equal(t, uint64(50), res.Total)
	assert.Equal(t, uint64(50), res.Success)
	assert.Zero(t, res.Failed)
	assert.Equal(t, int64(50), calls.Load())
	assert.Positive(t, res.OpsPerSecond)
}

func TestRunFailuresDoNotStopWorkers(t *testing.T) {
	var n atomic.Int64
	r := &Runner{}
	res := r.Run(context.Background(), Scenario{
		Name:         "flaky",
		Concurrency:  4,
		OpsPerWorker: 25,
		MaxDuration:  5 * time.Second,
		Op: func(context.Context) error {
			if n.Add(1)%2 == 0 {
				return errors.New("row not found")
			}
			return nil
		},
	})

	assert.Equal(t, uint64(100), res.Total)
	assert.Equal(t, uint64(50), res.Failed)
	assert.Equal(t, uint64(50), res.Success)
	assert.Equal(t, 50.0, res.SuccessRate())
}

func TestRunZeroWork(t *testing.T) {
	op := func(context.Context) error {
		t.Error("operation must not run")
		return nil
	}
	r := &Runner{Progress: &syncBuffer{}, ProgressInterval: time.Millisecond}

	for _, s := range []Scenario{
		{Name: "no workers", Concurrency: 0, OpsPerWorker: 10, MaxDuration: time.Second, Op: op},
		{Name: "no ops", Concurrency: 10, OpsPerWorker: 0, MaxDuration: time.Second, Op: op},
	} {
		done := make(chan ScenarioResult)
		go func() { done <- r.Run(context.Background(), s) }()

		select {
		case res := <-done:
			assert.Zero(t, res.Total, s.Name)
			assert.Zero(t, res.OpsPerSecond, s.Name)
			assert.Zero(t, res.LatencyAvg, s.Name)
		case <-time.After(2 * time.Second):
			t.Fatalf("%s: Run did not return", s.Name)
		}
	}
}

func TestRunDeadlineStopsAtIterationBoundary(t *testing.T) {
	var started, finished atomic.Int64
	r := &Runner{}
	begin := time.Now()
	res := r.Run(context.Background(), Scenario{
		Name:         "bounded",
		Concurrency:  3,
		OpsPerWorker: 1000,
		MaxDuration:  60 * time.Millisecond,
		Op: func(ctx context.Context) error {
			started.Add(1)
			time.Sleep(20 * time.Millisecond)
			finished.Add(1)
			return ctx.Err()
		},
	})
	took := time.Since(begin)

	assert.Less(t, res.Total, uint64(3000))
	assert.Positive(t, res.Total)
	assert.Equal(t, started.Load(), finished.Load(), "operations in flight must complete")
	assert.Equal(t, uint64(finished.Load()), res.Total)
	assert.Zero(t, res.Failed, "the deadline must not cancel the operation context")
	assert.Less(t, took, time.Second)
}

func TestRunProgressStopsAfterWorkers(t *testing.T) {
	out := &syncBuffer{}
	r := &Runner{Progress: out, ProgressInterval: 5 * time.Millisecond}
	r.Run(context.Background(), Scenario{
		Name:         "slow",
		Concurrency:  2,
		OpsPerWorker: 5,
		MaxDuration:  time.Second,
		Op: func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			return nil
		},
	})

	text := out.String()
	assert.Contains(t, text, "Running... Success:")
	require.True(t, strings.HasSuffix(text, "\r"), "the progress line is cleared last")
	after := len(text)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, len(out.String()), "ticker kept writing after Run returned")
}

func TestRunMultiplePicksMedian(t *testing.T) {
	ops := []float64{10, 30, 20}
	median, all := RunMultiple(3, 0, func(run int) ScenarioResult {
		return ScenarioResult{Name: "s", OpsPerSecond: ops[run]}
	})

	assert.Len(t, all, 3)
	assert.Equal(t, 20.0, median.OpsPerSecond)

	single, all := RunMultiple(1, time.Hour, func(int) ScenarioResult {
		return ScenarioResult{OpsPerSecond: 5}
	})
	assert.Equal(t, 5.0, single.OpsPerSecond)
	assert.Len(t, all, 1)
}
