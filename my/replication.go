package my

import (
	"context"
	"time"
)

func (e *Endpoint) WriteProbe(ctx context.Context, id string, writeTime time.Time, payload string) error {
	_, err := e.DB.ExecContext(ctx, "INSERT INTO loadtest_replication (id, write_time, data) VALUES (?, ?, ?)",
		id, writeTime, payload)
	return err
}

func (e *Endpoint) ProbeVisible(ctx context.Context, id string) (bool, error) {
	var found bool
	err := e.DB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM loadtest_replication WHERE id = ?)", id).Scan(&found)
	return found, err
}
