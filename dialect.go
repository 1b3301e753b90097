package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"loadtest-db/bench"
	"loadtest-db/config"
	"loadtest-db/my"
	"loadtest-db/pg"
)

// endpoint is a connected server in either dialect.
type endpoint interface {
	bench.ProbeWriter
	bench.ProbeReader
	Describe(ctx context.Context) (bench.ServerInfo, error)
	Close()
}

// session bundles one endpoint with the workload and schema bound to it.
type session struct {
	endpoint
	workload bench.Workload
	schema   bench.Schema
}

type connector func(ctx context.Context, c bench.ConnConfig, log logrus.FieldLogger) (*session, error)

func connectorFor(cfg config.Config) connector {
	if cfg.Driver == config.DriverMySQL {
		return func(ctx context.Context, c bench.ConnConfig, log logrus.FieldLogger) (*session, error) {
			db, err := my.Connect(ctx, c, cfg.PoolMaxConns)
			if err != nil {
				return nil, err
			}
			return &session{
				endpoint: &my.Endpoint{DB: db},
				workload: my.NewWorkload(db, cfg.Workload),
				schema:   &my.Schema{DB: db, Log: log},
			}, nil
		}
	}
	return func(ctx context.Context, c bench.ConnConfig, log logrus.FieldLogger) (*session, error) {
		pool, err := pg.Connect(ctx, c, int32(cfg.PoolMaxConns))
		if err != nil {
			return nil, err
		}
		return &session{
			endpoint: &pg.Endpoint{Pool: pool},
			workload: pg.NewWorkload(pool, cfg.Workload),
			schema:   &pg.Schema{Pool: pool, Log: log},
		}, nil
	}
}
