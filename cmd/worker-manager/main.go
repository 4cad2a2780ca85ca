// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"library-ai-workers/internal/app"
	"library-ai-workers/internal/common/camunda"
	"library-ai-workers/internal/common/config"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/common/observability"

	bq "library-ai-workers/internal/workers/ai-conversation/book-query"
	iqc "library-ai-workers/internal/workers/ai-conversation/invalidate-query-cache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...")

	obs := observability.New("worker-manager", log)

	ctx := context.Background()

	stack, err := app.Build(ctx, cfg, app.Options{ConnectAttempts: 15, RetryDelay: 2 * time.Second}, log)
	if err != nil {
		zapLog.Fatal("query engine initialization failed", zap.Error(err))
	}
	defer stack.Close()

	zeebe, err := camunda.NewClient(ctx, cfg.Camunda)
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var workers []worker.JobWorker

	if wcfg := config.GetWorkerConfig(cfg, bq.TaskType); wcfg.Enabled {
		handler, err := bq.NewHandler(bq.HandlerOptions{
			Config:        bq.NewConfig(wcfg),
			Processor:     stack.Processor,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create ai-book-query handler", zap.Error(err))
		}
		if w := camunda.StartWorker(zeebe.GetClient(), bq.TaskType, wcfg, handler.Handle, log); w != nil {
			workers = append(workers, w)
		}
	}

	if wcfg := config.GetWorkerConfig(cfg, iqc.TaskType); wcfg.Enabled {
		if stack.Cache == nil {
			zapLog.Info("query cache disabled, not starting invalidate-query-cache worker")
		} else {
			handler := iqc.NewHandler(iqc.NewConfig(wcfg), stack.Cache, log)
			if w := camunda.StartWorker(zeebe.GetClient(), iqc.TaskType, wcfg, handler.Handle, log); w != nil {
				workers = append(workers, w)
			}
		}
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := stack.Ready(readyCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := zeebe.HealthCheck(readyCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.ListenAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down metrics provider", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
