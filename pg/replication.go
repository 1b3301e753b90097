package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// WriteProbe inserts a replication probe row on the primary.
func (e *Endpoint) WriteProbe(ctx context.Context, id string, writeTime time.Time, payload string) error {
	_, err := e.Pool.Exec(ctx, `INSERT INTO loadtest_replication (id, write_time, data) VALUES ($1, $2, $3)`,
		id, writeTime, payload)
	return err
}

// ProbeVisible reports whether the probe row has reached this endpoint.
func (e *Endpoint) ProbeVisible(ctx context.Context, id string) (bool, error) {
	var found bool
	err := e.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loadtest_replication WHERE id = $1)`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return found, err
}
