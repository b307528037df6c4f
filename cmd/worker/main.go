package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaegeea/rag-chatbot/internal/bootstrap"
	"github.com/eaegeea/rag-chatbot/internal/config"
	"github.com/eaegeea/rag-chatbot/internal/observability/logging"
	"github.com/eaegeea/rag-chatbot/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				findings, err := app.Reindexer.DetectDrift(ctx)
				if err != nil {
					logger.Error("drift scan failed", "error", err)
					continue
				}
				repairable := 0
				for _, f := range findings {
					if f.Repairable() {
						repairable++
					}
				}
				workerMetrics.RecordDriftScan("worker", repairable, len(findings)-repairable)
				if len(findings) > 0 {
					logger.Warn("drift detected", "total", len(findings), "repairable", repairable)
				}
			}
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeNoteReindex(ctx, func(handlerCtx context.Context, noteID int) error {
		reindexCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartReindex()
		start := time.Now()
		reindexErr := app.Reindexer.ReindexNote(reindexCtx, noteID)
		workerMetrics.FinishReindex("worker", time.Since(start), reindexErr)
		return reindexErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
