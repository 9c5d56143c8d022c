package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/skillsenselab/scribe/api"
	"github.com/skillsenselab/scribe/config"
	"github.com/skillsenselab/scribe/jobs"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/media"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/transcription/groq"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.New(&cfg.Logging, cfg.App.Name)
	logger.SetGlobalLogger(log)

	log.Info("Starting scribe", logger.Fields(
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.JobMetrics
	if cfg.Observability.Enabled {
		meterProvider, err := observability.InitMeter(ctx, cfg.Observability)
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		defer shutdownProvider(meterProvider.Shutdown, log, "meter provider")

		tracerProvider, err := observability.InitTracer(ctx, cfg.Observability)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer shutdownProvider(tracerProvider.Shutdown, log, "tracer provider")

		metrics, err = observability.NewJobMetrics(meterProvider.Meter(cfg.App.Name))
		if err != nil {
			return fmt.Errorf("init job metrics: %w", err)
		}
	} else {
		// Instruments stay wired even without an exporter.
		metrics, _ = observability.NewJobMetrics(noop.NewMeterProvider().Meter(cfg.App.Name))
	}

	provider := groq.NewProvider(cfg.Groq)
	store := jobs.NewMemoryStore()
	jobSvc := jobs.NewService(cfg.Jobs, store, provider, metrics, log)
	if err := jobSvc.Start(ctx); err != nil {
		return fmt.Errorf("start job service: %w", err)
	}

	converter := media.NewConverter(cfg.Media, log)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	api.NewHandler(jobSvc, provider, converter, log).RegisterRoutes(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	log.Info("Scribe is ready", logger.Fields("addr", srv.Addr()))

	<-ctx.Done()
	log.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Stop accepting requests first, then drain the workers.
	if err := srv.Stop(stopCtx); err != nil {
		log.Error("HTTP server shutdown", logger.ErrorFields("server.stop", err))
	}
	if err := jobSvc.Stop(stopCtx); err != nil {
		log.Error("Job service shutdown", logger.ErrorFields("jobs.stop", err))
	}

	log.Info("Scribe stopped")
	return nil
}

func shutdownProvider(shutdown func(context.Context) error, log *logger.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("Provider shutdown failed", logger.Fields("provider", name, logger.FieldError, err.Error()))
	}
}
