// cmd/advisor-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-advisor/internal/advisor/fallback"
	"loan-advisor/internal/advisor/llm"
	"loan-advisor/internal/advisor/orchestrator"
	"loan-advisor/internal/api"
	"loan-advisor/internal/common/aws"
	"loan-advisor/internal/common/camunda"
	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/common/observability"
	"loan-advisor/internal/models"

	ae "loan-advisor/internal/workers/advisory/advisory-turn"
	ce "loan-advisor/internal/workers/advisory/check-eligibility"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan advisor",
		zap.String("environment", cfg.App.Environment),
		zap.String("conversations", cfg.Storage.Conversations),
		zap.String("catalog", cfg.Storage.Catalog),
		zap.String("provider", cfg.APIs.GenAI.Provider),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	backends, err := openStorage(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("storage init failed", zap.Error(err))
	}
	defer backends.Close()

	backend, err := llm.New(ctx, cfg.APIs.GenAI, log)
	if err != nil {
		zapLog.Fatal("generative backend init failed", zap.Error(err))
	}

	matcher, err := fallback.NewDefaultMatcher()
	if err != nil {
		zapLog.Fatal("fallback locales failed to load", zap.Error(err))
	}

	advisor := orchestrator.New(
		orchestrator.Config{
			BackendTimeout:  config.GetDuration(cfg.APIs.GenAI.Timeout),
			MaxTokens:       cfg.APIs.GenAI.MaxTokens,
			Temperature:     cfg.APIs.GenAI.Temperature,
			DefaultLanguage: models.ParseLanguage(cfg.Advisor.DefaultLanguage, models.LanguageEnglish),
		},
		backend,
		backends.Conversations,
		backends.Catalog,
		matcher,
		log,
	)

	// --- Outcome publishers ---
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		advisor.WithPublisher(snsClient)
		zapLog.Info("Publishing eligibility outcomes to SNS", zap.String("topic", cfg.Notifications.SNS.TopicARN))
	}

	// --- Camunda workers ---
	var workers []*camunda.CamundaWorker
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		backends.Pingers = append(backends.Pingers, zeebe)
		advisor.WithPublisher(camunda.NewOutcomeMessenger(zeebe, camunda.DefaultOutcomeMessage))
		workers = startWorkers(cfg, zeebe, advisor, backends, obs, log, zapLog)
	}

	// --- HTTP server ---
	server := api.NewServer(api.Options{
		Advisor:         advisor,
		Catalog:         backends.Catalog,
		DefaultLanguage: models.ParseLanguage(cfg.Advisor.DefaultLanguage, models.LanguageEnglish),
		Dependencies:    backends.Pingers,
		Observability:   obs,
		Logger:          log,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down meter provider", zap.Error(err))
	}

	zapLog.Info("Loan advisor stopped gracefully")
}

func startWorkers(
	cfg *config.Config,
	zeebe *camunda.Client,
	advisor *orchestrator.Orchestrator,
	backends *storage,
	obs *observability.Observability,
	log logger.Logger,
	zapLog *zap.Logger,
) []*camunda.CamundaWorker {
	var workers []*camunda.CamundaWorker

	// Check Eligibility
	if config.IsWorkerEnabled(cfg, ce.TaskType) {
		handler, err := ce.NewHandler(ce.HandlerOptions{
			AppConfig: cfg,
			Catalog:   backends.Catalog,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create check-eligibility handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), ce.TaskType, handler, camunda.WorkerOptions{
			MaxJobsActive: handler.Config().MaxJobsActive,
			Timeout:       handler.Config().Timeout,
			Recorder:      obs,
		}, log))
	}

	// Advisory Turn
	if config.IsWorkerEnabled(cfg, ae.TaskType) {
		handler, err := ae.NewHandler(ae.HandlerOptions{
			AppConfig: cfg,
			Advisor:   advisor,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create advisory-turn handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), ae.TaskType, handler, camunda.WorkerOptions{
			MaxJobsActive: handler.Config().MaxJobsActive,
			Timeout:       handler.Config().Timeout,
			Recorder:      obs,
		}, log))
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	return workers
}
