package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"loadtest-db/logging"
)

// Printer renders results as boxed text. It never mutates what it prints.
type Printer struct {
	W io.Writer
	C logging.Palette
}

func (p *Printer) Banner(version, runID string) {
	c := p.C
	fmt.Fprintln(p.W)
	fmt.Fprintln(p.W, c.Cyan+c.Bold+`
  ╔══════════════════════════════════════════════════════════════════════╗
  ║                                                                      ║
  ║              DB LOAD TEST - PostgreSQL / TimescaleDB                 ║
  ║                 Load & Replication Lag Harness                       ║
  ║                                                                      ║
  ╚══════════════════════════════════════════════════════════════════════╝`+c.Reset)
	fmt.Fprintf(p.W, "   %sVersion %s | Run %s%s\n", c.Dim, version, runID, c.Reset)
}

func (p *Printer) Footer() {
	c := p.C
	fmt.Fprintln(p.W)
	fmt.Fprintln(p.W, c.Cyan+c.Bold+`
  ╔══════════════════════════════════════════════════════════════════════╗
  ║                         Load Test Complete!                          ║
  ╚══════════════════════════════════════════════════════════════════════╝`+c.Reset)
}

func (p *Printer) Section(title string) {
	c := p.C
	fmt.Fprintln(p.W)
	fmt.Fprintf(p.W, "%s%s══════════════════════════════════════════════════════════════════════%s\n", c.Blue, c.Bold, c.Reset)
	fmt.Fprintf(p.W, "%s%s  %s%s\n", c.Blue, c.Bold, title, c.Reset)
	fmt.Fprintf(p.W, "%s%s══════════════════════════════════════════════════════════════════════%s\n", c.Blue, c.Bold, c.Reset)
}

func (p *Printer) ScenarioHeader(s Scenario) {
	c := p.C
	fmt.Fprintln(p.W)
	fmt.Fprintf(p.W, "%s┌──────────────────────────────────────────────────────────────────────┐%s\n", c.Magenta, c.Reset)
	fmt.Fprintf(p.W, "%s│%s %-68s %s│%s\n", c.Magenta, c.White+c.Bold, "[TEST] "+s.Name, c.Magenta, c.Reset)
	fmt.Fprintf(p.W, "%s└──────────────────────────────────────────────────────────────────────┘%s\n", c.Magenta, c.Reset)
	fmt.Fprintf(p.W, "   Concurrency: %d workers | Ops/Worker: %d | Duration: %v\n\n", s.Concurrency, s.OpsPerWorker, s.MaxDuration)
}

func (p *Printer) ScenarioResult(r ScenarioResult) {
	rate := r.SuccessRate()
	health := ClassifySuccessRate(rate)

	fmt.Fprintln(p.W)
	fmt.Fprintf(p.W, "   %s[%s]%s Result: %.1f%% success rate\n", p.healthColor(health), health, p.C.Reset, rate)
	fmt.Fprintln(p.W)
	fmt.Fprintln(p.W, "   ┌─────────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Total Operations:", humanize.Comma(int64(r.Total))+" ops")
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Successful:", humanize.Comma(int64(r.Success))+" ops")
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Failed:", humanize.Comma(int64(r.Failed))+" ops")
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Throughput:", fmt.Sprintf("%.2f ops/sec", r.OpsPerSecond))
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Duration:", r.Duration.Round(time.Millisecond).String())
	fmt.Fprintln(p.W, "   ├─────────────────────────────────────────────────────────────────┤")
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Avg Latency:", FmtDur(r.LatencyAvg))
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Min Latency:", FmtDur(r.LatencyMin))
	fmt.Fprintf(p.W, "   │ %-20s %-42s │\n", "Max Latency:", FmtDur(r.LatencyMax))
	fmt.Fprintln(p.W, "   └─────────────────────────────────────────────────────────────────┘")
}

// Runs prints every repetition of a multi-run scenario and marks the median.
func (p *Printer) Runs(all []ScenarioResult, median ScenarioResult) {
	steady, maxDev := SteadyState(all, 0.05)

	fmt.Fprintln(p.W)
	fmt.Fprintln(p.W, "   ┌─────┬────────────┬────────────┬────────────┐")
	fmt.Fprintf(p.W, "   │ %-3s │ %10s │ %10s │ %10s │\n", "Run", "Ops/Sec", "Avg Lat", "Failed")
	fmt.Fprintln(p.W, "   ├─────┼────────────┼────────────┼────────────┤")
	for i, r := range all {
		marker := " "
		if r == median {
			marker = "→"
		}
		fmt.Fprintf(p.W, "   │%s%-3d │ %10.1f │ %10s │ %10d │\n", marker, i+1, r.OpsPerSecond, FmtDur(r.LatencyAvg), r.Failed)
	}
	fmt.Fprintln(p.W, "   └─────┴────────────┴────────────┴────────────┘")
	fmt.Fprintln(p.W, "   → = median (reported)")
	if steady {
		fmt.Fprintf(p.W, "   Steady state: PASSED (max deviation %.1f%%)\n", maxDev*100)
	} else {
		fmt.Fprintf(p.W, "   Steady state: FAILED (max deviation %.1f%% > 5%%), reporting median\n", maxDev*100)
	}
}

// Summary is the cross-scenario roll-up shown in the final report.
type Summary struct {
	BestName      string
	BestOps       float64
	SlowestName   string
	SlowestOps    float64
	TotalOps      uint64
	TotalSuccess  uint64
	OverallRate   float64
	HasThroughput bool
}

// Summarize finds the best and slowest throughput among scenarios that did
// any work and the overall success rate.
func Summarize(results []ScenarioResult) Summary {
	var s Summary
	for _, r := range results {
		s.TotalOps += r.Total
		s.TotalSuccess += r.Success
		if r.OpsPerSecond <= 0 {
			continue
		}
		if !s.HasThroughput || r.OpsPerSecond > s.BestOps {
			s.BestOps, s.BestName = r.OpsPerSecond, r.Name
		}
		if !s.HasThroughput || r.OpsPerSecond < s.SlowestOps {
			s.SlowestOps, s.SlowestName = r.OpsPerSecond, r.Name
		}
		s.HasThroughput = true
	}
	if s.TotalOps > 0 {
		s.OverallRate = float64(s.TotalSuccess) / float64(s.TotalOps) * 100
	}
	return s
}

func (p *Printer) Summary(results []ScenarioResult) {
	p.Section("Final Report Summary")
	fmt.Fprintln(p.W)

	fmt.Fprintln(p.W, "   ┌──────────────────────────────────────────┬───────────┬───────────┬───────────┐")
	fmt.Fprintf(p.W, "   │ %-40s │ %-9s │ %-9s │ %-9s │\n", "Test Name", "Ops/Sec", "Avg Lat", "Success%")
	fmt.Fprintln(p.W, "   ├──────────────────────────────────────────┼───────────┼───────────┼───────────┤")
	for _, r := range results {
		name := r.Name
		if len(name) > 38 {
			name = name[:35] + "..."
		}
		fmt.Fprintf(p.W, "   │ %-40s │ %9.2f │ %9s │ %8.1f%% │\n",
			name, r.OpsPerSecond, FmtDur(r.LatencyAvg), r.SuccessRate())
	}
	fmt.Fprintln(p.W, "   └──────────────────────────────────────────┴───────────┴───────────┴───────────┘")

	s := Summarize(results)
	fmt.Fprintln(p.W)
	if s.HasThroughput {
		fmt.Fprintf(p.W, "   [BEST]    Best Throughput: %.2f ops/sec (%s)\n", s.BestOps, s.BestName)
		fmt.Fprintf(p.W, "   [SLOW]    Slowest:         %.2f ops/sec (%s)\n", s.SlowestOps, s.SlowestName)
	} else {
		fmt.Fprintln(p.W, "   [BEST]    Best Throughput: n/a (no successful operations)")
	}
	fmt.Fprintf(p.W, "   [TOTAL]   Overall Success: %.1f%% (%s/%s ops)\n",
		s.OverallRate, humanize.Comma(int64(s.TotalSuccess)), humanize.Comma(int64(s.TotalOps)))
}

func (p *Printer) Replication(r ReplicationResult) {
	p.Section("Replication Lag Report")
	fmt.Fprintln(p.W)

	fmt.Fprintln(p.W, "   ┌─────────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(p.W, "   │ %-30s %-33d │\n", "Total Tests:", r.Attempted)
	fmt.Fprintf(p.W, "   │ %-30s %-33d │\n", "Successful:", r.Succeeded)
	fmt.Fprintf(p.W, "   │ %-30s %-33d │\n", "Write Failed:", r.WriteFailed)
	fmt.Fprintf(p.W, "   │ %-30s %-33d │\n", "Timed Out:", r.TimedOut)
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "Success Rate:", fmt.Sprintf("%.1f%%", r.SuccessRate()))
	fmt.Fprintln(p.W, "   ├─────────────────────────────────────────────────────────────────┤")
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "Average Replication Lag:", FmtDur(r.LagAvg))
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "Minimum Replication Lag:", FmtDur(r.LagMin))
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "Maximum Replication Lag:", FmtDur(r.LagMax))
	fmt.Fprintln(p.W, "   ├─────────────────────────────────────────────────────────────────┤")
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "P50 (Median) Lag:", FmtDur(r.LagP50))
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "P95 Lag:", FmtDur(r.LagP95))
	fmt.Fprintf(p.W, "   │ %-30s %-33s │\n", "P99 Lag:", FmtDur(r.LagP99))
	fmt.Fprintln(p.W, "   └─────────────────────────────────────────────────────────────────┘")

	fmt.Fprintln(p.W)
	if r.Anomalies > 0 {
		fmt.Fprintf(p.W, "   %s[ANOMALY]%s %d sample(s) observed on the replica before their write (clock skew)\n",
			p.C.Red, p.C.Reset, r.Anomalies)
	}
	if r.Succeeded == 0 {
		fmt.Fprintf(p.W, "   %s[CRITICAL]%s No probe row became visible on the replica\n", p.C.Red, p.C.Reset)
		return
	}

	grade := GradeLag(r.LagAvg)
	color := p.C.Green
	switch grade {
	case LagNoticeable:
		color = p.C.Yellow
	case LagCritical:
		color = p.C.Red
	}
	fmt.Fprintf(p.W, "   %s[%s]%s %s\n", color, grade, p.C.Reset, lagVerdict(grade))
}

func lagVerdict(g LagGrade) string {
	switch g {
	case LagExcellent:
		return "Replication is very fast! Avg lag < 10ms"
	case LagGood:
		return "Replication is healthy. Avg lag < 100ms"
	case LagNoticeable:
		return "Replication lag is noticeable. Avg lag < 1s"
	default:
		return "Replication lag is high! Avg lag >= 1s"
	}
}

func (p *Printer) healthColor(h Health) string {
	switch h {
	case Healthy:
		return p.C.Green
	case Degraded:
		return p.C.Yellow
	default:
		return p.C.Red
	}
}

func FmtDur(d time.Duration) string {
	us := float64(d.Microseconds())
	if us < 0 {
		return fmt.Sprintf("%.2fms", us/1000)
	}
	if us < 1000 {
		return fmt.Sprintf("%.0fµs", us)
	}
	return fmt.Sprintf("%.2fms", us/1000)
}
