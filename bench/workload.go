package bench

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	// SeedRows is the number of rows Prepare writes into each workload table.
	SeedRows = 1000
	// DeviceCount is the size of the fixed tag set used by time-series rows.
	DeviceCount = 10
)

// Workload is the set of named operations every dialect provides.
type Workload interface {
	SimpleRead(ctx context.Context) error
	SimpleWrite(ctx context.Context) error
	Mixed(ctx context.Context) error
	BatchInsert(ctx context.Context) error
	TimeSeriesInsert(ctx context.Context) error
	TimeRangeQuery(ctx context.Context) error
	ComplexAggregation(ctx context.Context) error
}

// Schema owns the workload tables for the duration of a run.
type Schema interface {
	Prepare(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

func DeviceTag(n int) string {
	return fmt.Sprintf("device_%d", n)
}

func RandomDevice() string {
	return DeviceTag(rand.Intn(DeviceCount))
}

// Reading is one synthetic sensor sample.
type Reading struct {
	Temperature float64
	Humidity    float64
	Pressure    float64
}

func RandomReading() Reading {
	return Reading{
		Temperature: 20 + rand.Float64()*15,
		Humidity:    30 + rand.Float64()*50,
		Pressure:    1000 + rand.Float64()*50,
	}
}

type WorkloadOptions struct {
	// ReadRatio is the share of Mixed operations dispatched to SimpleRead.
	ReadRatio float64
	// BatchSize is the number of rows BatchInsert writes per transaction.
	BatchSize int
}

func DefaultWorkloadOptions() WorkloadOptions {
	return WorkloadOptions{ReadRatio: 0.7, BatchSize: 10}
}

// DefaultScenarios is the fixed scenario sequence, lightest first.
func DefaultScenarios(w Workload) []Scenario {
	return []Scenario{
		{Name: "Light Load - Simple Reads", Concurrency: 5, OpsPerWorker: 10, MaxDuration: 5 * time.Second, Op: w.SimpleRead},
		{Name: "Light Load - Simple Writes", Concurrency: 5, OpsPerWorker: 10, MaxDuration: 5 * time.Second, Op: w.SimpleWrite},
		{Name: "Medium Load - Mixed R/W", Concurrency: 10, OpsPerWorker: 50, MaxDuration: 10 * time.Second, Op: w.Mixed},
		{Name: "Medium Load - Batch Inserts", Concurrency: 10, OpsPerWorker: 20, MaxDuration: 10 * time.Second, Op: w.BatchInsert},
		{Name: "Heavy Load - Concurrent Reads", Concurrency: 20, OpsPerWorker: 100, MaxDuration: 15 * time.Second, Op: w.SimpleRead},
		{Name: "Heavy Load - Concurrent Writes", Concurrency: 20, OpsPerWorker: 100, MaxDuration: 15 * time.Second, Op: w.SimpleWrite},
		{Name: "Stress Test - Max Throughput", Concurrency: 50, OpsPerWorker: 200, MaxDuration: 20 * time.Second, Op: w.Mixed},
		{Name: "TimescaleDB - Time Series Insert", Concurrency: 10, OpsPerWorker: 50, MaxDuration: 10 * time.Second, Op: w.TimeSeriesInsert},
		{Name: "TimescaleDB - Time Range Query", Concurrency: 10, OpsPerWorker: 50, MaxDuration: 10 * time.Second, Op: w.TimeRangeQuery},
		{Name: "Complex - Aggregation Queries", Concurrency: 5, OpsPerWorker: 20, MaxDuration: 10 * time.Second, Op: w.ComplexAggregation},
	}
}

// FilterScenarios keeps scenarios whose name contains any of the terms,
// case-insensitively. No terms keeps everything.
func FilterScenarios(scenarios []Scenario, terms []string) []Scenario {
	var wanted []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			wanted = append(wanted, strings.ToLower(t))
		}
	}
	if len(wanted) == 0 {
		return scenarios
	}

	var out []Scenario
	for _, s := range scenarios {
		name := strings.ToLower(s.Name)
		for _, t := range wanted {
			if strings.Contains(name, t) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
