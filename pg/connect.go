package pg

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"loadtest-db/bench"
)

// ConnectTimeout bounds pool creation plus the first ping.
const ConnectTimeout = 10 * time.Second

// DSN builds a URL connection string with TLS disabled.
func DSN(c bench.ConnConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func Connect(ctx context.Context, c bench.ConnConfig, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(DSN(c))
	if err != nil {
		return nil, errors.Wrap(err, "parse connection config")
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MinConns = 2

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "ping %s:%d", c.Host, c.Port)
	}
	return pool, nil
}

// Endpoint is one connected Postgres server, primary or replica.
type Endpoint struct {
	Pool *pgxpool.Pool
}

func (e *Endpoint) Close() {
	e.Pool.Close()
}

// Describe reports version, TimescaleDB presence and recovery state.
func (e *Endpoint) Describe(ctx context.Context) (bench.ServerInfo, error) {
	var info bench.ServerInfo
	if err := e.Pool.QueryRow(ctx, "SELECT version()").Scan(&info.Version); err != nil {
		return info, errors.Wrap(err, "query version")
	}

	err := e.Pool.QueryRow(ctx, "SELECT extversion FROM pg_extension WHERE extname = 'timescaledb'").Scan(&info.TimeSeries)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return info, errors.Wrap(err, "query timescaledb extension")
	}

	if err := e.Pool.QueryRow(ctx, "SELECT pg_is_in_recovery()").Scan(&info.InRecovery); err == nil {
		info.RoleKnown = true
	}
	return info, nil
}
