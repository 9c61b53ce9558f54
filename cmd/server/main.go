package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"countrygraph/internal/config"
	"countrygraph/internal/graph"
	"countrygraph/internal/indicators"
	"countrygraph/internal/logging"
	"countrygraph/internal/metrics"
	"countrygraph/internal/providers/worldbank"
	"countrygraph/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve":
		serve(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func serve(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config (empty = defaults + env)")
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server failed:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server failed:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	provider, err := worldbank.NewWithConfig(
		cfg.WorldBankClient(),
		indicators.Default,
		worldbank.WithMetrics(m),
		worldbank.WithLogger(log),
	)
	if err != nil {
		return err
	}

	h, err := graph.NewHandler(graph.NewResolver(provider, indicators.Default, log), graph.HandlerOptions{
		Introspection:   cfg.Server.Playground,
		ComplexityLimit: cfg.Server.ComplexityLimit,
		QueryCacheSize:  cfg.Server.QueryCacheSize,
		Metrics:         m,
		Log:             log,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, h, log, server.WithMetrics(m, reg))
	log.WithFields(logrus.Fields{
		"addr":       cfg.Server.Addr,
		"path":       cfg.Server.Path,
		"playground": cfg.Server.Playground,
		"upstream":   cfg.WorldBank.BaseURL,
	}).Info("countrygraph listening")
	return srv.Run(ctx)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: server serve [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -config  path to YAML config (default: defaults + env)")
	fmt.Fprintln(os.Stderr, "  -addr    listen address (default: server.addr, :5000)")
}
