package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blazesportsintel/livefeed/internal/cache"
	"github.com/blazesportsintel/livefeed/internal/config"
	"github.com/blazesportsintel/livefeed/internal/livefeed"
	"github.com/blazesportsintel/livefeed/internal/queue"
	"github.com/blazesportsintel/livefeed/internal/server"
	"github.com/blazesportsintel/livefeed/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := buildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("queueMode", cfg.QueueMode),
		zap.String("redisAddr", cfg.RedisAddr),
		zap.Bool("wsEnabled", cfg.WSEnabled),
		zap.Duration("wsStreamInterval", cfg.WSStreamInterval),
	)

	// Queue source and fallback cache store
	var (
		source     queue.Source
		store      cache.Store
		dataSource string
	)

	switch cfg.QueueMode {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		source = queue.NewRedisSource(client, cfg.ConsumerID, logger)
		store = cache.NewRedisStore(client)
		dataSource = "redis-stream"
	case "http":
		source = queue.NewHTTPSource(
			cfg.PlayByPlayURL,
			cfg.PlayByPlayRate,
			cfg.PlayByPlayTimeout,
			time.Second,
			3,
			logger,
		)
		store = cache.NewMemoryStore()
		dataSource = "http-poll"
	case "memory":
		source = queue.NewMemorySource()
		store = cache.NewMemoryStore()
		dataSource = "memory"
	}

	frames := cache.NewFrameCache(store, "ncaa-baseball", logger)
	reducer := livefeed.NewReducer(source, frames, logger)
	srv := server.NewServer(reducer, dataSource, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket components (optional)
	var hub *ws.Hub
	if cfg.WSEnabled {
		hub = ws.NewHub(logger)
		go hub.Run(ctx)

		streamer := ws.NewStreamer(hub, reducer, cfg.WSStreamInterval, logger)
		go streamer.Run(ctx)

		logger.Info("WebSocket enabled", zap.Duration("streamInterval", cfg.WSStreamInterval))
	}

	router := server.NewRouter(srv, hub, logger)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Cancel context to stop WebSocket components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func buildLogger() (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.DisableStacktrace = true

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
	}

	return zapConfig.Build()
}
