package my

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"loadtest-db/bench"
)

const (
	SimpleTable      = "loadtest_simple"
	TimeSeriesTable  = "loadtest_timeseries"
	ReplicationTable = "loadtest_replication"

	seedBatchSize = 500
)

var dropStatements = []string{
	`DROP TABLE IF EXISTS loadtest_simple`,
	`DROP TABLE IF EXISTS loadtest_timeseries`,
	`DROP TABLE IF EXISTS loadtest_replication`,
}

var createStatements = []string{
	`CREATE TABLE loadtest_simple (
		id INT AUTO_INCREMENT PRIMARY KEY,
		data TEXT,
		value INT,
		created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
		INDEX idx_loadtest_simple_created (created_at)
	)`,
	`CREATE TABLE loadtest_timeseries (
		time DATETIME(6) NOT NULL,
		device_id VARCHAR(64) NOT NULL,
		temperature DOUBLE,
		humidity DOUBLE,
		pressure DOUBLE,
		INDEX idx_loadtest_timeseries_time (time),
		INDEX idx_loadtest_timeseries_device (device_id, time)
	)`,
	`CREATE TABLE loadtest_replication (
		id VARCHAR(128) PRIMARY KEY,
		write_time DATETIME(6) NOT NULL,
		data TEXT
	)`,
}

type Schema struct {
	DB  *sql.DB
	Log logrus.FieldLogger
}

func (s *Schema) Prepare(ctx context.Context) error {
	for _, q := range append(dropStatements, createStatements...) {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return errors.Wrapf(err, "failed to execute: %s", q)
		}
	}
	s.Log.Warn("Time-series partitioning not available on MySQL, using a plain table")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.seedSimple(gctx) })
	g.Go(func() error { return s.seedTimeSeries(gctx, time.Now()) })
	return g.Wait()
}

func (s *Schema) seedSimple(ctx context.Context) error {
	return s.insertBatches(ctx, "INSERT INTO loadtest_simple (data, value) VALUES ", "(?,?)", func(i int) []any {
		return []any{fmt.Sprintf("initial_data_%d", i), rand.Intn(10000)}
	})
}

func (s *Schema) seedTimeSeries(ctx context.Context, now time.Time) error {
	step := 24 * time.Hour / bench.SeedRows
	base := now.Add(-24 * time.Hour)
	return s.insertBatches(ctx, "INSERT INTO loadtest_timeseries (time, device_id, temperature, humidity, pressure) VALUES ", "(?,?,?,?,?)", func(i int) []any {
		r := bench.RandomReading()
		return []any{base.Add(time.Duration(i) * step), bench.RandomDevice(), r.Temperature, r.Humidity, r.Pressure}
	})
}

// insertBatches writes SeedRows rows as multi-row INSERTs of seedBatchSize.
func (s *Schema) insertBatches(ctx context.Context, prefix, tuple string, row func(i int) []any) error {
	for i := 0; i < bench.SeedRows; i += seedBatchSize {
		end := min(i+seedBatchSize, bench.SeedRows)

		var query strings.Builder
		query.WriteString(prefix)
		var vals []any
		for j := i; j < end; j++ {
			if j > i {
				query.WriteString(",")
			}
			query.WriteString(tuple)
			vals = append(vals, row(j)...)
		}

		if _, err := s.DB.ExecContext(ctx, query.String(), vals...); err != nil {
			return errors.Wrapf(err, "seed batch at %d", i)
		}
	}
	return nil
}

func (s *Schema) Cleanup(ctx context.Context) error {
	var first error
	for _, q := range dropStatements {
		if _, err := s.DB.ExecContext(ctx, q); err != nil && first == nil {
			first = errors.Wrapf(err, "failed to execute: %s", q)
		}
	}
	return first
}
