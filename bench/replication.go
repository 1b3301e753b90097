package bench

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// DefaultPollInterval is how long the prober sleeps between replica reads.
const DefaultPollInterval = time.Millisecond

const (
	trialReplicated  = "replicated"
	trialWriteFailed = "write_failed"
	trialTimedOut    = "timed_out"
)

// ProbeWriter inserts probe rows on the primary.
type ProbeWriter interface {
	WriteProbe(ctx context.Context, id string, writeTime time.Time, payload string) error
}

// ProbeReader checks whether a probe row is visible on the replica.
type ProbeReader interface {
	ProbeVisible(ctx context.Context, id string) (bool, error)
}

// Prober measures replication lag one trial at a time. Overlapping trials
// would make it impossible to attribute a visible row to its write.
type Prober struct {
	Primary      ProbeWriter
	Replica      ProbeReader
	PollInterval time.Duration
	RunID        string
	Metrics      *Metrics
	// Out receives per-trial progress lines. Nil discards them.
	Out io.Writer

	now func() time.Time
}

// Probe runs trials sequential write-then-poll round trips. Each trial waits
// at most maxWait for the row to show up on the replica.
func (p *Prober) Probe(ctx context.Context, trials int, maxWait time.Duration) ReplicationResult {
	now := p.now
	if now == nil {
		now = time.Now
	}
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	samples := make([]ReplicationLagSample, 0, trials)
	var writeFailed, timedOut int

	for i := 0; i < trials; i++ {
		if ctx.Err() != nil {
			timedOut += trials - i
			fmt.Fprintf(out, "   [%d/%d] Aborted: %v\n", i+1, trials, ctx.Err())
			break
		}

		id := trialID(now(), i)
		writeTime := now()
		payload := fmt.Sprintf("probe_%s_%d", p.RunID, i)

		if err := p.Primary.WriteProbe(ctx, id, writeTime, payload); err != nil {
			writeFailed++
			p.Metrics.observeTrial(trialWriteFailed, 0)
			fmt.Fprintf(out, "   [%d/%d] Write failed: %v\n", i+1, trials, err)
			continue
		}

		readTime, found := p.poll(ctx, id, now, interval, maxWait)
		if !found {
			timedOut++
			p.Metrics.observeTrial(trialTimedOut, 0)
			fmt.Fprintf(out, "   [%d/%d] Timeout - data not replicated within %v\n", i+1, trials, maxWait)
			continue
		}

		s := ReplicationLagSample{
			TrialID:   id,
			WriteTime: writeTime,
			ReadTime:  readTime,
			Lag:       readTime.Sub(writeTime),
		}
		samples = append(samples, s)
		p.Metrics.observeTrial(trialReplicated, s.Lag)

		if s.Anomalous() {
			fmt.Fprintf(out, "   [%d/%d] Negative replication lag %v (clock skew?)\n", i+1, trials, s.Lag)
		} else if (i+1)%10 == 0 || i == 0 {
			fmt.Fprintf(out, "   [%d/%d] Replication lag: %v\n", i+1, trials, s.Lag.Round(time.Microsecond))
		}
	}

	return ComputeReplication(trials, writeFailed, timedOut, samples)
}

// poll reads the replica until the row is visible or maxWait has passed
// since the poll started. Read errors count as "not yet visible".
func (p *Prober) poll(ctx context.Context, id string, now func() time.Time, interval, maxWait time.Duration) (time.Time, bool) {
	pollStart := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for time.Since(pollStart) < maxWait {
		visible, err := p.Replica.ProbeVisible(pollCtx, id)
		if err == nil && visible {
			return now(), true
		}

		timer.Reset(interval)
		select {
		case <-pollCtx.Done():
			return time.Time{}, false
		case <-timer.C:
		}
	}
	return time.Time{}, false
}

// trialID combines a nanosecond timestamp, a random number and the trial
// index so ids never collide across trials or runs.
func trialID(at time.Time, trial int) string {
	return fmt.Sprintf("%d-%d-%d", at.UnixNano(), rand.Int63(), trial)
}
