package pg

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"loadtest-db/bench"
)

const batchInsertStmt = "loadtest_batch_insert"

// Workload implements bench.Workload on a pgx pool. Every method other than
// BatchInsert is a single autocommit statement.
type Workload struct {
	Pool *pgxpool.Pool
	Opts bench.WorkloadOptions

	// batchArgs overrides the arguments of the i-th batch row in tests.
	batchArgs func(i int) []any
}

func NewWorkload(pool *pgxpool.Pool, opts bench.WorkloadOptions) *Workload {
	return &Workload{Pool: pool, Opts: opts}
}

// SimpleRead looks up one seeded row by primary key. A missing row fails.
func (w *Workload) SimpleRead(ctx context.Context) error {
	id := rand.Intn(bench.SeedRows) + 1
	var data string
	var value int
	return w.Pool.QueryRow(ctx, `SELECT data, value FROM loadtest_simple WHERE id = $1`, id).Scan(&data, &value)
}

func (w *Workload) SimpleWrite(ctx context.Context) error {
	_, err := w.Pool.Exec(ctx, `INSERT INTO loadtest_simple (data, value) VALUES ($1, $2)`,
		fmt.Sprintf("test_data_%d", rand.Int63()), rand.Intn(10000))
	return err
}

func (w *Workload) Mixed(ctx context.Context) error {
	if rand.Float64() < w.Opts.ReadRatio {
		return w.SimpleRead(ctx)
	}
	return w.SimpleWrite(ctx)
}

// BatchInsert writes BatchSize rows through one prepared statement inside a
// transaction. Any failure rolls back the whole batch.
func (w *Workload) BatchInsert(ctx context.Context) error {
	tx, err := w.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Prepare(ctx, batchInsertStmt, `INSERT INTO loadtest_simple (data, value) VALUES ($1, $2)`); err != nil {
		return err
	}

	for i := 0; i < w.batchSize(); i++ {
		args := []any{fmt.Sprintf("batch_%d_%d", time.Now().UnixNano(), i), rand.Intn(10000)}
		if w.batchArgs != nil {
			args = w.batchArgs(i)
		}
		if _, err := tx.Exec(ctx, batchInsertStmt, args...); err != nil {
			return errors.Wrapf(err, "batch row %d", i)
		}
	}

	return tx.Commit(ctx)
}

func (w *Workload) batchSize() int {
	if w.Opts.BatchSize > 0 {
		return w.Opts.BatchSize
	}
	return bench.DefaultWorkloadOptions().BatchSize
}

func (w *Workload) TimeSeriesInsert(ctx context.Context) error {
	r := bench.RandomReading()
	_, err := w.Pool.Exec(ctx, `INSERT INTO loadtest_timeseries (time, device_id, temperature, humidity, pressure)
		VALUES ($1, $2, $3, $4, $5)`,
		time.Now(), bench.RandomDevice(), r.Temperature, r.Humidity, r.Pressure)
	return err
}

// TimeRangeQuery scans up to 100 of the newest rows in a random 1-60 minute
// window. Every row is scanned so the result transfer is part of the latency.
func (w *Workload) TimeRangeQuery(ctx context.Context) error {
	endTime := time.Now()
	startTime := endTime.Add(-time.Duration(rand.Intn(60)+1) * time.Minute)

	rows, err := w.Pool.Query(ctx, `SELECT time, device_id, temperature, humidity, pressure
		FROM loadtest_timeseries
		WHERE time >= $1 AND time <= $2
		ORDER BY time DESC
		LIMIT 100`, startTime, endTime)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t time.Time
		var deviceID string
		var temp, humidity, pressure *float64
		if err := rows.Scan(&t, &deviceID, &temp, &humidity, &pressure); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ComplexAggregation groups the last hour of one device. No matching rows is
// still a success.
func (w *Workload) ComplexAggregation(ctx context.Context) error {
	rows, err := w.Pool.Query(ctx, `
		SELECT
			device_id,
			COUNT(*) AS count,
			AVG(temperature) AS avg_temp,
			MIN(temperature) AS min_temp,
			MAX(temperature) AS max_temp,
			AVG(humidity) AS avg_humidity,
			AVG(pressure) AS avg_pressure
		FROM loadtest_timeseries
		WHERE device_id = $1
		  AND time >= NOW() - INTERVAL '1 hour'
		GROUP BY device_id
	`, bench.RandomDevice())
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int64
		var avgTemp, minTemp, maxTemp, avgHumidity, avgPressure *float64
		if err := rows.Scan(&id, &count, &avgTemp, &minTemp, &maxTemp, &avgHumidity, &avgPressure); err != nil {
			return err
		}
	}
	return rows.Err()
}

var (
	_ bench.Workload    = (*Workload)(nil)
	_ bench.Schema      = (*Schema)(nil)
	_ bench.ProbeWriter = (*Endpoint)(nil)
	_ bench.ProbeReader = (*Endpoint)(nil)
)
