package my

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"loadtest-db/bench"
)

const ConnectTimeout = 10 * time.Second

func DSN(c bench.ConnConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.AllowCleartextPasswords = true
	cfg.Timeout = ConnectTimeout
	return cfg.FormatDSN()
}

func Connect(ctx context.Context, c bench.ConnConfig, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(c))
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s:%d", c.Host, c.Port)
	}
	return db, nil
}

// Endpoint is one connected MySQL server, primary or replica.
type Endpoint struct {
	DB *sql.DB
}

func (e *Endpoint) Close() {
	e.DB.Close()
}

// Describe reports the server version and whether it is read-only. MySQL has
// no time-series extension so TimeSeries stays empty.
func (e *Endpoint) Describe(ctx context.Context) (bench.ServerInfo, error) {
	var info bench.ServerInfo
	if err := e.DB.QueryRowContext(ctx, "SELECT VERSION()").Scan(&info.Version); err != nil {
		return info, errors.Wrap(err, "query version")
	}

	var readOnly int
	if err := e.DB.QueryRowContext(ctx, "SELECT @@global.read_only").Scan(&readOnly); err == nil {
		info.InRecovery = readOnly == 1
		info.RoleKnown = true
	}
	return info, nil
}
