package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loadtest-db/bench"
)

// serveMetrics registers the harness metrics and serves them on
// cfg.MetricsAddr until the returned stop func is called.
func (h *harness) serveMetrics() (func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h.metrics = bench.NewMetrics(reg)

	ln, err := net.Listen("tcp", h.cfg.MetricsAddr)
	if err != nil {
		h.metrics = nil
		return nil, errors.Wrapf(err, "listen on %s", h.cfg.MetricsAddr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.WithError(err).Warn("Metrics server stopped")
		}
	}()
	h.log.WithField("addr", ln.Addr().String()).Info("Serving metrics on /metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
