package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/claude/planlift/internal/audit"
	"github.com/claude/planlift/internal/config"
	"github.com/claude/planlift/internal/observability"
	"github.com/claude/planlift/internal/storage"
	"github.com/claude/planlift/internal/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", ":9091", "listen address for the /metrics endpoint")
	once := flag.Bool("once", false, "process one claim batch and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("PlanLift worker starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	sinks := []audit.Sink{&audit.PostgresSink{DB: db}}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		ks := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		defer ks.Close()
		sinks = append(sinks, ks)
	}
	trail := audit.NewTrail(log, sinks...)
	metrics := observability.New()

	hostname, _ := os.Hostname()
	w := worker.New(worker.Config{
		Owner:            fmt.Sprintf("%s/%d", hostname, os.Getpid()),
		BatchSize:        cfg.Worker.BatchSize,
		Lease:            cfg.Worker.Lease(),
		PollInterval:     cfg.Worker.PollInterval(),
		MaxArtifactBytes: cfg.Import.MaxUploadBytes,
		ImportDisabled:   cfg.Import.Disabled,
	}, db, trail, metrics, log)

	if *once {
		if err := w.RunOnce(ctx); err != nil {
			log.Error("claim cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Retention sweeper on a cron schedule
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Worker.SweepSchedule, func() { w.Sweep(ctx) }); err != nil {
		log.Error("invalid sweep schedule", "schedule", cfg.Worker.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()
	log.Info("sweeper scheduled", "schedule", cfg.Worker.SweepSchedule)

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()
	defer metricsSrv.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
