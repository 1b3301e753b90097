package my

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"loadtest-db/bench"
)

// Workload implements bench.Workload on database/sql with the MySQL driver.
type Workload struct {
	DB   *sql.DB
	Opts bench.WorkloadOptions

	// batchArgs overrides the arguments of the i-th batch row in tests.
	batchArgs func(i int) []any
}

func NewWorkload(db *sql.DB, opts bench.WorkloadOptions) *Workload {
	return &Workload{DB: db, Opts: opts}
}

func (w *Workload) SimpleRead(ctx context.Context) error {
	id := rand.Intn(bench.SeedRows) + 1
	var data string
	var value int
	return w.DB.QueryRowContext(ctx, "SELECT data, value FROM loadtest_simple WHERE id = ?", id).Scan(&data, &value)
}

func (w *Workload) SimpleWrite(ctx context.Context) error {
	_, err := w.DB.ExecContext(ctx, "INSERT INTO loadtest_simple (data, value) VALUES (?, ?)",
		fmt.Sprintf("test_data_%d", rand.Int63()), rand.Intn(10000))
	return err
}

func (w *Workload) Mixed(ctx context.Context) error {
	if rand.Float64() < w.Opts.ReadRatio {
		return w.SimpleRead(ctx)
	}
	return w.SimpleWrite(ctx)
}

// BatchInsert commits BatchSize rows or none.
func (w *Workload) BatchInsert(ctx context.Context) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO loadtest_simple (data, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	size := w.Opts.BatchSize
	if size <= 0 {
		size = bench.DefaultWorkloadOptions().BatchSize
	}
	for i := 0; i < size; i++ {
		args := []any{fmt.Sprintf("batch_%d_%d", time.Now().UnixNano(), i), rand.Intn(10000)}
		if w.batchArgs != nil {
			args = w.batchArgs(i)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "batch row %d", i)
		}
	}
	return tx.Commit()
}

func (w *Workload) TimeSeriesInsert(ctx context.Context) error {
	r := bench.RandomReading()
	_, err := w.DB.ExecContext(ctx, `INSERT INTO loadtest_timeseries (time, device_id, temperature, humidity, pressure)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now(), bench.RandomDevice(), r.Temperature, r.Humidity, r.Pressure)
	return err
}

func (w *Workload) TimeRangeQuery(ctx context.Context) error {
	endTime := time.Now()
	startTime := endTime.Add(-time.Duration(rand.Intn(60)+1) * time.Minute)

	rows, err := w.DB.QueryContext(ctx, `SELECT time, device_id, temperature, humidity, pressure
		FROM loadtest_timeseries
		WHERE time >= ? AND time <= ?
		ORDER BY time DESC
		LIMIT 100`, startTime, endTime)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t time.Time
		var deviceID string
		var temp, humidity, pressure sql.NullFloat64
		if err := rows.Scan(&t, &deviceID, &temp, &humidity, &pressure); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (w *Workload) ComplexAggregation(ctx context.Context) error {
	rows, err := w.DB.QueryContext(ctx, `
		SELECT
			device_id,
			COUNT(*) AS count,
			AVG(temperature) AS avg_temp,
			MIN(temperature) AS min_temp,
			MAX(temperature) AS max_temp,
			AVG(humidity) AS avg_humidity,
			AVG(pressure) AS avg_pressure
		FROM loadtest_timeseries
		WHERE device_id = ?
		  AND time >= NOW(6) - INTERVAL 1 HOUR
		GROUP BY device_id
	`, bench.RandomDevice())
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int64
		var avgTemp, minTemp, maxTemp, avgHumidity, avgPressure sql.NullFloat64
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
