package bench

import (
	"context"
	"time"
)

type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Operation is one parameterless unit of SQL work. A nil error means success.
type Operation func(ctx context.Context) error

type Scenario struct {
	Name         string
	Concurrency  int
	OpsPerWorker int
	MaxDuration  time.Duration
	Op           Operation
}

// ScenarioResult is frozen once Run returns. Total == Success + Failed.
type ScenarioResult struct {
	Name         string
	Duration     time.Duration
	Total        uint64
	Success      uint64
	Failed       uint64
	LatencyAvg   time.Duration
	LatencyMin   time.Duration
	LatencyMax   time.Duration
	OpsPerSecond float64
}

// SuccessRate returns the success percentage, 0 when nothing ran.
func (r ScenarioResult) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Success) / float64(r.Total) * 100
}

type ReplicationLagSample struct {
	TrialID   string
	WriteTime time.Time
	ReadTime  time.Time
	Lag       time.Duration
}

// Anomalous reports a read observed before its write, which only happens
// when the clock used for the two timestamps is skewed.
func (s ReplicationLagSample) Anomalous() bool {
	return s.Lag < 0
}

type ReplicationResult struct {
	Attempted   int
	Succeeded   int
	WriteFailed int
	TimedOut    int
	Anomalies   int
	Samples     []ReplicationLagSample

	LagAvg time.Duration
	LagMin time.Duration
	LagMax time.Duration
	LagP50 time.Duration
	LagP95 time.Duration
	LagP99 time.Duration
}

// Failed counts trials that never produced a sample.
func (r ReplicationResult) Failed() int {
	return r.WriteFailed + r.TimedOut
}

func (r ReplicationResult) SuccessRate() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Attempted) * 100
}

// ServerInfo is what Describe learns about an endpoint. It is only printed.
type ServerInfo struct {
	Version    string
	TimeSeries string // extension version, empty when not installed
	InRecovery bool
	RoleKnown  bool
}
