package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	httpAdapter "github.com/SurMis1/locofly-inventory/internal/adapter/http"
	redisAdapter "github.com/SurMis1/locofly-inventory/internal/adapter/redis"
	"github.com/SurMis1/locofly-inventory/internal/adapter/repository"
	"github.com/SurMis1/locofly-inventory/internal/config"
	"github.com/SurMis1/locofly-inventory/internal/domain"
	"github.com/SurMis1/locofly-inventory/internal/usecase"
	"github.com/SurMis1/locofly-inventory/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("service", cfg.ServiceName),
		slog.Int("http_port", cfg.HTTPPort),
		slog.Int64("shortage_threshold", cfg.ShortageThreshold),
		slog.Duration("shortage_interval", cfg.ShortageInterval),
	)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("database connection established")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to parse Redis URL, cache and idempotency disabled", slog.String("error", err.Error()))
		} else {
			redisClient = redis.NewClient(redisOpts)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warn("failed to connect to Redis, cache and idempotency disabled", slog.String("error", err.Error()))
				redisClient.Close()
				redisClient = nil
			} else {
				logger.Info("Redis connection established")
			}
		}
	} else {
		logger.Warn("Redis URL not configured, cache and idempotency disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	txManager := repository.NewTxManager(pool)
	inventoryRepo := repository.NewPostgresInventoryRepository(pool)
	logRepo := repository.NewPostgresLogRepository(pool)

	var barcodeRepo domain.BarcodeRepository = repository.NewPostgresBarcodeRepository(pool)
	var idempotencyStore usecase.IdempotencyStore = redisAdapter.NewNoopIdempotencyStore()
	if redisClient != nil {
		barcodeRepo = redisAdapter.NewBarcodeCache(
			barcodeRepo,
			redisClient,
			cfg.BarcodeCacheTTL,
			logger.With("component", "barcode-cache"),
		)
		idempotencyStore = redisAdapter.NewIdempotencyStore(redisClient, "")
	} else {
		logger.Warn("using no-op idempotency store")
	}

	inventoryUC := usecase.NewInventoryUseCase(
		inventoryRepo,
		logRepo,
		barcodeRepo,
		idempotencyStore,
		txManager,
		cfg.IdempotencyKeyTTL,
	)
	barcodeUC := usecase.NewBarcodeUseCase(barcodeRepo, inventoryRepo)

	handler := httpAdapter.NewHandler(inventoryUC, barcodeUC, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", handler.Router())
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/readyz", handleReadyz(pool, redisClient, logger))

	chain := httpAdapter.RequestIDMiddleware(
		httpAdapter.LoggingMiddleware(logger)(mux),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      h2c.NewHandler(chain, &http2.Server{}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	monitor := worker.NewShortageMonitor(
		inventoryRepo,
		logger.With("component", "shortage-monitor"),
		decimal.NewFromInt(cfg.ShortageThreshold),
		cfg.ShortageInterval,
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Start(workerCtx)
	}()

	go func() {
		logger.Info("server starting", slog.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	logger.Info("initiating graceful shutdown")

	workerCancel()
	wg.Wait()
	logger.Info("shortage monitor stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	} else {
		logger.Info("server stopped")
	}

	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "serving"})
}

// handleReadyz checks database (required) and Redis (optional, degraded mode allowed).
func handleReadyz(pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "not_ready",
				"reason": "database connection failed",
			})
			return
		}

		redisStatus := "not_configured"
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				redisStatus = "degraded"
				logger.Warn("Redis health check failed", slog.String("error", err.Error()))
			} else {
				redisStatus = "healthy"
			}
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"redis":  redisStatus,
		})
	}
}
