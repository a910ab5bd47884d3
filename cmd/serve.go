package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/roster/internal/server"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	_, router, err := r.open()
	if err != nil {
		return err
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Opts{
		Addr:     addr,
		Router:   router,
		Gatherer: r.registry,
		Logger:   r.logger,
	})
	return srv.ListenAndServe(ctx)
}
