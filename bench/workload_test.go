package bench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWorkload struct {
	calls map[string]int
}

func (w *recordingWorkload) hit(name string) error {
	w.calls[name]++
	return nil
}

func (w *recordingWorkload) SimpleRead(context.Context) error       { return w.hit("read") }
func (w *recordingWorkload) SimpleWrite(context.Context) error      { return w.hit("write") }
func (w *recordingWorkload) Mixed(context.Context) error            { return w.hit("mixed") }
func (w *recordingWorkload) BatchInsert(context.Context) error      { return w.hit("batch") }
func (w *recordingWorkload) TimeSeriesInsert(context.Context) error { return w.hit("ts-insert") }
func (w *recordingWorkload) TimeRangeQuery(context.Context) error   { return w.hit("ts-range") }
func (w *recordingWorkload) ComplexAggregation(context.Context) error {
	return w.hit("aggregate")
}

func TestDefaultScenarios(t *testing.T) {
	w := &recordingWorkload{calls: map[string]int{}}
	scenarios := DefaultScenarios(w)
	require.Len(t, scenarios, 10)

	for _, s := range scenarios {
		require.NoError(t, s.Op(context.Background()))
		assert.Positive(t, s.Concurrency, s.Name)
		assert.Positive(t, s.OpsPerWorker, s.Name)
		assert.Positive(t, s.MaxDuration, s.Name)
	}
	assert.Equal(t, map[string]int{
		"read": 2, "write": 2, "mixed": 2, "batch": 1,
		"ts-insert": 1, "ts-range": 1, "aggregate": 1,
	}, w.calls)

	assert.Equal(t, 5, scenarios[0].Concurrency)
	assert.Equal(t, 10, scenarios[0].OpsPerWorker)
	assert.Equal(t, 50, scenarios[6].Concurrency)
}

func TestFilterScenarios(t *testing.T) {
	all := DefaultScenarios(&recordingWorkload{calls: map[string]int{}})

	assert.Len(t, FilterScenarios(all, nil), 10)
	assert.Len(t, FilterScenarios(all, []string{" ", ""}), 10)

	got := FilterScenarios(all, []string{"light", "AGGREGATION"})
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"Light Load - Simple Reads",
		"Light Load - Simple Writes",
		"Complex - Aggregation Queries",
	}, names)

	assert.Empty(t, FilterScenarios(all, []string{"nope"}))
}

func TestDefaultWorkloadOptions(t *testing.T) {
	o := DefaultWorkloadOptions()
	assert.Equal(t, 0.7, o.ReadRatio)
	assert.Equal(t, 10, o.BatchSize)
}

func TestRandomReadingRanges(t *testing.T) {
	for i := 0; i < 1000; i++ {
		r := RandomReading()
		assert.GreaterOrEqual(t, r.Temperature, 20.0)
		assert.Less(t, r.Temperature, 35.0)
		assert.GreaterOrEqual(t, r.Humidity, 30.0)
		assert.Less(t, r.Humidity, 80.0)
		assert.GreaterOrEqual(t, r.Pressure, 1000.0)
		assert.Less(t, r.Pressure, 1050.0)
	}
}

func TestRandomDeviceStaysInTagSet(t *testing.T) {
	tags := map[string]bool{}
	for n := 0; n < DeviceCount; n++ {
		tags[DeviceTag(n)] = true
	}
	for i := 0; i < 500; i++ {
		assert.True(t, tags[RandomDevice()])
	}
	assert.Equal(t, "device_3", DeviceTag(3))
}
