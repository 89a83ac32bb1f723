// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"repairer-search/internal/api"
	"repairer-search/internal/common/camunda"
	"repairer-search/internal/common/config"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/observability"
	"repairer-search/internal/search/intent"
	"repairer-search/internal/search/matcher"
	"repairer-search/internal/search/orchestrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("starting worker manager", map[string]interface{}{
		"environment":      cfg.App.Environment,
		"directoryBackend": cfg.Search.DirectoryBackend,
		"queryLogBackend":  cfg.Search.QueryLogBackend,
	})

	obsOpts, err := observability.TracingOptions(cfg.Tracing)
	if err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}
	obs := observability.New(cfg.App.Name, obsOpts...)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Backends, each with retry-backoff ---
	backends, err := connectBackends(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backend connection failed", zap.Error(err))
	}
	defer backends.Close()

	if cfg.Search.InitSchema {
		if err := initSchema(ctx, cfg, backends, log); err != nil {
			zapLog.Fatal("schema initialization failed", zap.Error(err))
		}
	}

	var zeebe *camunda.Client
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "Zeebe client initialization", log, func(context.Context) error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("zeebe client connected", map[string]interface{}{"broker": cfg.Camunda.BrokerAddress})

	// --- Search pipeline ---
	stores, err := buildStores(cfg, backends, log)
	if err != nil {
		zapLog.Fatal("store selection failed", zap.Error(err))
	}

	orchOpts := []orchestrator.Option{orchestrator.WithObservability(obs)}
	if cfg.Alerting.Enabled {
		notifier, err := buildNotifier(ctx, cfg, log)
		if err != nil {
			zapLog.Fatal("alerting setup failed", zap.Error(err))
		}
		orchOpts = append(orchOpts, orchestrator.WithAlerter(notifier))
	}

	parser := intent.NewParser()
	repairerMatcher := matcher.New(stores.directory, stores.profiles, log)
	orch, err := orchestrator.New(parser, repairerMatcher, stores.queryLog, orchestrator.ConfigFromSearch(cfg.Search), log, orchOpts...)
	if err != nil {
		zapLog.Fatal("orchestrator init failed", zap.Error(err))
	}

	// --- Workers ---
	workers, err := startWorkers(cfg, zeebe.Zeebe(), searchDeps{
		parser:       parser,
		matcher:      repairerMatcher,
		orchestrator: orch,
	}, obs, log)
	if err != nil {
		zapLog.Fatal("worker registration failed", zap.Error(err))
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- HTTP API, health and metrics ---
	checks := backends.HealthChecks()
	checks["zeebe"] = zeebe.HealthCheck
	server := api.NewServer(cfg.HTTP, orch, checks, log)
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping http server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := orch.Close(); err != nil {
		zapLog.Warn("pending query log writes dropped", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing zeebe client", zap.Error(err))
	}

	log.Info("worker manager stopped gracefully", nil)
}
