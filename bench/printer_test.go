package bench

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loadtest-db/logging"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Printer{W: &buf, C: logging.NewPalette(false)}, &buf
}

func TestScenarioResultZeroOps(t *testing.T) {
	p, buf := newTestPrinter()
	p.ScenarioResult(ScenarioResult{Name: "nothing"})

	out := buf.String()
	assert.Contains(t, out, "[FAIL] Result: 0.0% success rate")
	assert.Contains(t, out, "0.00 ops/sec")
	assert.NotContains(t, out, "NaN")
	assert.NotContains(t, out, "Inf")
}

func TestScenarioResultHealth(t *testing.T) {
	p, buf := newTestPrinter()
	p.ScenarioResult(ScenarioResult{Total: 1000, Success: 1000, Failed: 0, OpsPerSecond: 12345.678, LatencyAvg: 1500 * time.Microsecond})

	out := buf.String()
	assert.Contains(t, out, "[OK] Result: 100.0% success rate")
	assert.Contains(t, out, "1,000 ops")
	assert.Contains(t, out, "12345.68 ops/sec")
	assert.Contains(t, out, "1.50ms")
}

func TestSummarize(t *testing.T) {
	s := Summarize([]ScenarioResult{
		{Name: "fast", Total: 100, Success: 100, OpsPerSecond: 500},
		{Name: "idle", Total: 0},
		{Name: "slow", Total: 100, Success: 80, Failed: 20, OpsPerSecond: 50},
	})

	assert.True(t, s.HasThroughput)
	assert.Equal(t, "fast", s.BestName)
	assert.Equal(t, "slow", s.SlowestName)
	assert.Equal(t, uint64(200), s.TotalOps)
	assert.Equal(t, uint64(180), s.TotalSuccess)
	assert.Equal(t, 90.0, s.OverallRate)
}

func TestSummaryAllIdle(t *testing.T) {
	p, buf := newTestPrinter()
	p.Summary([]ScenarioResult{{Name: "a"}, {Name: "b"}})

	out := buf.String()
	assert.Contains(t, out, "n/a (no successful operations)")
	assert.Contains(t, out, "Overall Success: 0.0% (0/0 ops)")
	assert.NotContains(t, out, "NaN")
}

func TestReplicationReportGrades(t *testing.T) {
	p, buf := newTestPrinter()
	p.Replication(ComputeReplication(2, 0, 0, samplesOf(3*time.Millisecond, 5*time.Millisecond)))
	assert.Contains(t, buf.String(), "[EXCELLENT]")

	p, buf = newTestPrinter()
	p.Replication(ComputeReplication(1, 0, 0, samplesOf(2*time.Second)))
	assert.Contains(t, buf.String(), "[CRITICAL] Replication lag is high!")

	p, buf = newTestPrinter()
	p.Replication(ComputeReplication(5, 0, 5, nil))
	out := buf.String()
	assert.Contains(t, out, "No probe row became visible")
	assert.NotContains(t, out, "[EXCELLENT]")
}

func TestReplicationReportAnomaly(t *testing.T) {
	p, buf := newTestPrinter()
	p.Replication(ComputeReplication(1, 0, 0, samplesOf(-time.Millisecond)))
	assert.Contains(t, buf.String(), "[ANOMALY] 1 sample(s)")
}

func TestRunsMarksMedian(t *testing.T) {
	p, buf := newTestPrinter()
	all := []ScenarioResult{{OpsPerSecond: 100}, {OpsPerSecond: 101}, {OpsPerSecond: 99}}
	p.Runs(all, MedianResult(all))

	out := buf.String()
	assert.Contains(t, out, "│→1")
	assert.Contains(t, out, "Steady state: PASSED")
}

func TestFmtDur(t *testing.T) {
	assert.Equal(t, "750µs", FmtDur(750*time.Microsecond))
	assert.Equal(t, "2.50ms", FmtDur(2500*time.Microsecond))
	assert.Equal(t, "0µs", FmtDur(0))
	assert.Equal(t, "-3.00ms", FmtDur(-3*time.Millisecond))
}
