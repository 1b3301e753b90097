package pg

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"loadtest-db/bench"
	"loadtest-db/logging"
)

const (
	SimpleTable      = "loadtest_simple"
	TimeSeriesTable  = "loadtest_timeseries"
	ReplicationTable = "loadtest_replication"
)

var dropStatements = []string{
	`DROP TABLE IF EXISTS loadtest_simple CASCADE`,
	`DROP TABLE IF EXISTS loadtest_timeseries CASCADE`,
	`DROP TABLE IF EXISTS loadtest_replication CASCADE`,
}

var createStatements = []string{
	`CREATE TABLE loadtest_simple (
		id SERIAL PRIMARY KEY,
		data TEXT,
		value INTEGER,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE loadtest_timeseries (
		time TIMESTAMPTZ NOT NULL,
		device_id TEXT NOT NULL,
		temperature DOUBLE PRECISION,
		humidity DOUBLE PRECISION,
		pressure DOUBLE PRECISION
	)`,
	`CREATE TABLE loadtest_replication (
		id TEXT PRIMARY KEY,
		write_time TIMESTAMPTZ NOT NULL,
		data TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loadtest_simple_created ON loadtest_simple(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_loadtest_timeseries_time ON loadtest_timeseries(time DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_loadtest_timeseries_device ON loadtest_timeseries(device_id, time DESC)`,
}

type Schema struct {
	Pool *pgxpool.Pool
	Log  logrus.FieldLogger
}

// Prepare recreates the workload tables and seeds them. A missing
// TimescaleDB extension only produces a warning.
func (s *Schema) Prepare(ctx context.Context) error {
	for _, q := range append(dropStatements, createStatements...) {
		if _, err := s.Pool.Exec(ctx, q); err != nil {
			return errors.Wrapf(err, "failed to execute: %s", q)
		}
	}

	s.createHypertable(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.seedSimple(gctx) })
	g.Go(func() error { return s.seedTimeSeries(gctx, time.Now()) })
	return g.Wait()
}

func (s *Schema) createHypertable(ctx context.Context) {
	_, err := s.Pool.Exec(ctx, `SELECT create_hypertable('loadtest_timeseries', 'time', if_not_exists => TRUE)`)
	if err == nil {
		logging.Success(s.Log, "TimescaleDB hypertable created!")
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedFunction {
		s.Log.Warn("TimescaleDB hypertable creation skipped (extension not installed)")
		return
	}
	s.Log.WithError(err).Warn("TimescaleDB hypertable creation skipped")
}

func (s *Schema) seedSimple(ctx context.Context) error {
	rows := make([][]any, bench.SeedRows)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("initial_data_%d", i), int32(rand.Intn(10000))}
	}
	_, err := s.Pool.CopyFrom(ctx, pgx.Identifier{SimpleTable}, []string{"data", "value"}, pgx.CopyFromRows(rows))
	return errors.Wrap(err, "seed simple table")
}

// seedTimeSeries spreads SeedRows readings evenly over the 24 hours before now.
func (s *Schema) seedTimeSeries(ctx context.Context, now time.Time) error {
	step := 24 * time.Hour / bench.SeedRows
	base := now.Add(-24 * time.Hour)

	rows := make([][]any, bench.SeedRows)
	for i := range rows {
		r := bench.RandomReading()
		rows[i] = []any{base.Add(time.Duration(i) * step), bench.RandomDevice(), r.Temperature, r.Humidity, r.Pressure}
	}
	_, err := s.Pool.CopyFrom(ctx, pgx.Identifier{TimeSeriesTable},
		[]string{"time", "device_id", "temperature", "humidity", "pressure"}, pgx.CopyFromRows(rows))
	return errors.Wrap(err, "seed timeseries table")
}

// Cleanup drops all workload tables. It attempts every drop and returns the
// first failure.
func (s *Schema) Cleanup(ctx context.Context) error {
	var first error
	for _, q := range dropStatements {
		if _, err := s.Pool.Exec(ctx, q); err != nil && first == nil {
			first = errors.Wrapf(err, "failed to execute: %s", q)
		}
	}
	return first
}
