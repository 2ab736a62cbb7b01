// Package main runs the monitoring service: the scoring pipeline on a
// schedule, the HTTP API and the websocket feed, in one process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"stablecoin-risk-monitor/internal/alerts"
	"stablecoin-risk-monitor/internal/api"
	"stablecoin-risk-monitor/internal/cache"
	"stablecoin-risk-monitor/internal/config"
	"stablecoin-risk-monitor/internal/logging"
	"stablecoin-risk-monitor/internal/observability"
	"stablecoin-risk-monitor/internal/pipeline"
	"stablecoin-risk-monitor/internal/scoring"
	"stablecoin-risk-monitor/internal/storage/backend"
)

const serviceName = "stablecoin-risk-monitor"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags default to env values
	httpAddr := flag.String("http-addr", cfg.HTTPAddr, "HTTP listen address")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for reports (empty to skip)")
	interval := flag.Duration("pipeline-interval", cfg.PipelineInterval, "Pipeline run interval")
	inputCSV := flag.String("input-csv", cfg.InputCSV, "Score this CSV instead of the transaction store")
	policyFile := flag.String("policy-file", cfg.PolicyFile, "JSON scoring policy (empty for default)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage")
	useFixtures := flag.Bool("use-fixtures", false, "Seed an empty transaction store with fixtures")
	flag.Parse()

	cfg.HTTPAddr = *httpAddr
	cfg.OutputDir = *outputDir
	cfg.PipelineInterval = *interval
	cfg.InputCSV = *inputCSV
	cfg.PolicyFile = *policyFile
	cfg.UseMemory = *useMemory

	if cfg.PipelineInterval <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --pipeline-interval must be positive")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	log := logging.Component(logger, "server")

	if err := run(cfg, *useFixtures, logger, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server error")
	}
	log.Info("shutdown complete")
}

func run(cfg config.Config, useFixtures bool, logger *logrus.Logger, log logrus.FieldLogger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OtelEndpoint)
	if err != nil {
		log.WithError(err).Warn("tracing disabled")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdownTracer(flushCtx)
	}()

	policy, err := scoring.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	stores, err := backend.Open(ctx, backend.Options{
		PostgresDSN:      cfg.PostgresDSN,
		PostgresMaxConns: cfg.PostgresMaxConns,
		ClickhouseDSN:    cfg.ClickhouseDSN,
		UseMemory:        cfg.UseMemory,
		Migrate:          true,
	}, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	source, err := resolveSource(ctx, cfg, stores, useFixtures, log)
	if err != nil {
		return err
	}

	memo, closeMemo := openMemo(ctx, cfg, log)
	defer closeMemo()

	sink := openSink(cfg, log)
	defer sink.Close()

	hub := api.NewHub(logger)

	p, err := pipeline.New(pipeline.Options{
		Source:         source,
		Policy:         policy,
		Memo:           memo,
		Runs:           stores.Runs,
		Scores:         stores.Scores,
		StoreKind:      stores.Kind,
		Sink:           sink,
		AlertThreshold: cfg.AlertThreshold,
		OutputDir:      cfg.OutputDir,
		OnComplete:     hub.RunCompleted,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	scheduler := pipeline.NewScheduler(p, cfg.PipelineInterval, logger)

	srv, err := api.NewServer(api.Options{
		Runs:   stores.Runs,
		Scores: stores.Scores,
		Status: scheduler,
		Policy: policy,
		Hub:    hub,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create api: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Info("initiating graceful shutdown")
			cancel()
		case <-done:
			return
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Warn("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// resolveSource picks the pipeline input: a CSV file when configured,
// otherwise the transaction store (optionally seeded with fixtures).
func resolveSource(ctx context.Context, cfg config.Config, stores *backend.Stores, useFixtures bool, log logrus.FieldLogger) (pipeline.Source, error) {
	if cfg.InputCSV != "" {
		log.WithField("path", cfg.InputCSV).Info("scoring CSV input")
		return pipeline.CSVSource{Path: cfg.InputCSV}, nil
	}

	if useFixtures {
		n, err := stores.Transactions.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count transactions: %w", err)
		}
		if n == 0 {
			if err := pipeline.LoadFixtures(ctx, stores.Transactions); err != nil {
				return nil, fmt.Errorf("load fixtures: %w", err)
			}
			log.Info("seeded transaction store with fixtures")
		}
	}
	return pipeline.StoreSource{Store: stores.Transactions}, nil
}

// openMemo returns the Redis memo when configured. An unreachable Redis
// falls back to an in-process memo so scoring still runs.
func openMemo(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (cache.Memo, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryMemo(cache.DefaultMemoryCapacity), func() {}
	}
	memo, err := cache.NewRedisMemo(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, TTL: cfg.CacheTTL})
	if err != nil {
		log.WithError(err).Warn("redis unavailable, using in-memory score cache")
		return cache.NewMemoryMemo(cache.DefaultMemoryCapacity), func() {}
	}
	log.WithField("addr", cfg.RedisAddr).Info("using redis score cache")
	return memo, func() { _ = memo.Close() }
}

func openSink(cfg config.Config, log logrus.FieldLogger) alerts.Sink {
	if !cfg.AlertsEnabled() {
		return alerts.NopSink{}
	}
	sink, err := alerts.NewKafkaSink(alerts.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.AlertTopic})
	if err != nil {
		log.WithError(err).Warn("alert publishing disabled")
		return alerts.NopSink{}
	}
	log.WithFields(logrus.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.AlertTopic}).Info("publishing alerts to kafka")
	return sink
}
