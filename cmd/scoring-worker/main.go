// cmd/scoring-worker/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"quiz-scoring/internal/aicache"
	"quiz-scoring/internal/common/camunda"
	"quiz-scoring/internal/common/config"
	"quiz-scoring/internal/common/database"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/common/observability"
	"quiz-scoring/internal/gateway"
	"quiz-scoring/internal/scoring"
	"quiz-scoring/internal/store"

	gq "quiz-scoring/internal/workers/ai-generation/generate-questions"
	sua "quiz-scoring/internal/workers/scoring/score-user-answer"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting scoring worker", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("otel meter unavailable, job metrics disabled", map[string]interface{}{"error": err.Error()})
	}

	ctx := context.Background()

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	// --- Scoring stack ---
	var cache aicache.Cache
	ttl := config.GetDuration(cfg.Scoring.CacheTTL)
	switch cfg.Scoring.CacheBackend {
	case config.CacheBackendLocal:
		local := aicache.NewLocalCache(ttl)
		defer local.Close()
		cache = local
	default:
		cache = aicache.NewRedisCache(rdb.Client, ttl)
	}
	locker := aicache.NewRedisLocker(rdb.Client, config.GetDuration(cfg.Scoring.LockRetryInterval))
	answers := aicache.New(cache, locker, aicache.OptionsFromConfig(cfg.Scoring), obs, log)

	gw := gateway.NewOpenAI(cfg.GenAI, obs, log)
	pgStore := store.NewPostgres(pg.DB)

	dispatcher, err := scoring.NewDispatcher(log, scoring.Registrations(pgStore, pgStore, answers, gw)...)
	if err != nil {
		zapLog.Fatal("scoring dispatcher invalid", zap.Error(err))
	}

	// --- Zeebe ---
	zb, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}

	var workers []worker.JobWorker
	start := func(taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler) {
		if w := camunda.StartWorker(zb.GetClient(), taskType, wcfg, handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	scoreCfg := config.GetWorkerConfig(cfg, sua.TaskType)
	start(sua.TaskType, scoreCfg, sua.NewHandler(sua.LoadConfig(scoreCfg), pgStore, dispatcher, obs, log))

	genCfg := config.GetWorkerConfig(cfg, gq.TaskType)
	start(gq.TaskType, genCfg, gq.NewHandler(gq.LoadConfig(genCfg), pgStore, gw, rdb.Client, obs, log))

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	ops := &http.Server{
		Addr: cfg.Ops.Address,
		Handler: newOpsRouter(map[string]readinessCheck{
			"zeebe":    zb.HealthCheck,
			"redis":    rdb.Ping,
			"postgres": pg.Ping,
		}, 5*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("ops server listening", map[string]interface{}{"address": cfg.Ops.Address})
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping ops server", map[string]interface{}{"error": err.Error()})
	}
	if err := zb.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err.Error()})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down observability", map[string]interface{}{"error": err.Error()})
	}

	log.Info("scoring worker stopped", nil)
}
