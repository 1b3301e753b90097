package bench

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const DefaultProgressInterval = 500 * time.Millisecond

// Runner executes scenarios one at a time.
type Runner struct {
	// Progress receives the live single-line indicator. Nil disables it.
	Progress         io.Writer
	ProgressInterval time.Duration
	Metrics          *Metrics
}

// Run launches s.Concurrency workers that each perform up to s.OpsPerWorker
// operations. Workers check the deadline before every iteration; operations
// run on ctx, not on the deadline context, so a query in flight is never cut
// short when the deadline fires.
func (r *Runner) Run(ctx context.Context, s Scenario) ScenarioResult {
	counters := NewCounters()
	obs := r.Metrics.forScenario(s.Name)

	deadline, cancel := ctx, context.CancelFunc(func() {})
	if s.MaxDuration > 0 {
		deadline, cancel = context.WithTimeout(ctx, s.MaxDuration)
	}
	defer cancel()

	start := time.Now()

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.showProgress(counters, start, stop, done)

	var wg sync.WaitGroup
	for w := 0; w < s.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < s.OpsPerWorker; i++ {
				if deadline.Err() != nil {
					return
				}
				opStart := time.Now()
				err := s.Op(ctx)
				latency := time.Since(opStart)

				counters.Record(latency, err)
				obs.observe(latency, err)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	close(stop)
	<-done

	return counters.Result(s.Name, elapsed)
}

func (r *Runner) showProgress(c *Counters, start time.Time, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if r.Progress == nil {
		<-stop
		return
	}

	interval := r.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	spinChars := []string{"|", "/", "-", "\\"}
	spinIdx := 0

	for {
		select {
		case <-stop:
			fmt.Fprint(r.Progress, "\r                                                                    \r")
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			s, f := c.Progress()
			ops := float64(s) / elapsed.Seconds()
			spin := spinChars[spinIdx%len(spinChars)]
			spinIdx++

			fmt.Fprintf(r.Progress, "\r   %s Running... Success: %d | Failed: %d | %.1f ops/s | %v elapsed   ",
				spin, s, f, ops, elapsed.Round(time.Millisecond))
		}
	}
}

// RunMultiple executes runFn runs times, checks steady state and returns the
// median run by throughput along with every individual run.
func RunMultiple(runs int, cooldown time.Duration, runFn func(run int) ScenarioResult) (ScenarioResult, []ScenarioResult) {
	if runs <= 1 {
		r := runFn(0)
		return r, []ScenarioResult{r}
	}

	all := make([]ScenarioResult, runs)
	for i := 0; i < runs; i++ {
		all[i] = runFn(i)
		if i < runs-1 && cooldown > 0 {
			time.Sleep(cooldown)
		}
	}
	return MedianResult(all), all
}
