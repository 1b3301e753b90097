package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"loadtest-db/bench"
	"loadtest-db/config"
	"loadtest-db/logging"
)

const (
	runCooldown    = 2 * time.Second
	cleanupTimeout = 30 * time.Second
)

type harness struct {
	cfg     config.Config
	log     logrus.FieldLogger
	out     io.Writer
	palette logging.Palette
	connect connector
	runID   string
	metrics *bench.Metrics
}

// run drives one full harness pass. Only primary connection and schema
// preparation failures are returned; everything else is reported and skipped.
func (h *harness) run(ctx context.Context) error {
	p := &bench.Printer{W: h.out, C: h.palette}
	p.Banner(version, h.runID)

	if h.cfg.MetricsAddr != "" {
		stop, err := h.serveMetrics()
		if err != nil {
			h.log.WithError(err).Warn("Metrics endpoint disabled")
		} else {
			defer stop()
		}
	}

	p.Section("Connecting")
	primary, err := h.connectEndpoint(ctx, "primary", h.cfg.Primary)
	if err != nil {
		return errors.Wrap(err, "connect to primary")
	}
	defer primary.Close()

	var replica *session
	if h.cfg.ReplicationEnabled() {
		replica, err = h.connectEndpoint(ctx, "replica", h.cfg.Replica)
		if err != nil {
			h.log.Warn("Replication test disabled: replica unreachable")
			replica = nil
		} else {
			defer replica.Close()
		}
	} else {
		h.log.Info("Replication test disabled (set ENABLE_REPLICATION_TEST=true and REPLICA_HOST)")
	}

	p.Section("Preparing Schema")
	if err := primary.schema.Prepare(ctx); err != nil {
		return errors.Wrap(err, "prepare schema")
	}
	logging.Success(h.log, fmt.Sprintf("Tables created and seeded with %d rows each", bench.SeedRows))

	results := h.runScenarios(ctx, p, primary.workload)
	p.Summary(results)

	if replica != nil {
		p.Section("Replication Lag Test")
		prober := &bench.Prober{
			Primary:      primary,
			Replica:      replica,
			PollInterval: h.cfg.PollInterval,
			RunID:        h.runID,
			Metrics:      h.metrics,
			Out:          h.out,
		}
		h.log.WithField("trials", h.cfg.ReplicationTrials).Info("Measuring replication lag")
		p.Replication(prober.Probe(ctx, h.cfg.ReplicationTrials, h.cfg.ReplicationMaxWait))
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := primary.schema.Cleanup(cleanupCtx); err != nil {
		h.log.WithError(err).Warn("Cleanup incomplete")
	} else {
		logging.Success(h.log, "Test tables dropped")
	}

	p.Footer()
	return nil
}

func (h *harness) connectEndpoint(ctx context.Context, role string, c bench.ConnConfig) (*session, error) {
	log := h.log.WithFields(logrus.Fields{"host": c.Host, "port": c.Port, "db": c.Database})
	log.Infof("Connecting to %s", role)

	s, err := h.connect(ctx, c, h.log)
	if err != nil {
		log.WithError(err).Errorf("Failed to connect to %s", role)
		return nil, err
	}
	logging.Success(h.log, fmt.Sprintf("Connected to %s", role))

	info, err := s.Describe(ctx)
	if err != nil {
		h.log.WithError(err).Warnf("Could not describe %s", role)
		return s, nil
	}
	h.log.Infof("Server: %s", info.Version)
	if info.TimeSeries != "" {
		h.log.Infof("TimescaleDB: %s", info.TimeSeries)
	}
	switch {
	case !info.RoleKnown:
		h.log.Warn("Recovery status unknown")
	case info.InRecovery:
		h.log.Info("Role: replica (read-only)")
	default:
		h.log.Info("Role: primary (read-write)")
	}
	return s, nil
}

func (h *harness) runScenarios(ctx context.Context, p *bench.Printer, w bench.Workload) []bench.ScenarioResult {
	scenarios := bench.FilterScenarios(bench.DefaultScenarios(w), h.cfg.Scenarios)
	if len(scenarios) == 0 {
		h.log.WithField("filter", h.cfg.Scenarios).Warn("No scenario matches the filter")
		return nil
	}

	p.Section("Load Tests")
	runner := &bench.Runner{Progress: h.out, Metrics: h.metrics}

	results := make([]bench.ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			h.log.Warn("Interrupted, skipping remaining scenarios")
			break
		}
		p.ScenarioHeader(s)

		if h.cfg.Runs > 1 {
			median, all := bench.RunMultiple(h.cfg.Runs, runCooldown, func(int) bench.ScenarioResult {
				return runner.Run(ctx, s)
			})
			p.Runs(all, median)
			p.ScenarioResult(median)
			results = append(results, median)
			continue
		}

		r := runner.Run(ctx, s)
		p.ScenarioResult(r)
		results = append(results, r)
	}
	return results
}
