// Command server starts the match engine HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	realai "github.com/hirelens/matchengine/internal/adapter/ai/real"
	"github.com/hirelens/matchengine/internal/adapter/ai/stub"
	redisstore "github.com/hirelens/matchengine/internal/adapter/cache/redis"
	httpserver "github.com/hirelens/matchengine/internal/adapter/httpserver"
	"github.com/hirelens/matchengine/internal/adapter/observability"
	"github.com/hirelens/matchengine/internal/app"
	"github.com/hirelens/matchengine/internal/config"
	"github.com/hirelens/matchengine/internal/domain"
	"github.com/hirelens/matchengine/internal/scoring/cache"
	"github.com/hirelens/matchengine/internal/scoring/embedding"
	"github.com/hirelens/matchengine/internal/scoring/semantic"
	"github.com/hirelens/matchengine/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// AI client: real providers when configured, deterministic stub otherwise.
	var aicl domain.AIClient
	if cfg.ProvidersConfigured() {
		aicl = realai.New(cfg)
		slog.Info("ai client initialized",
			slog.String("chat_model", cfg.ChatModel),
			slog.String("embeddings_model", cfg.EmbeddingsModel))
	} else {
		aicl = stub.New()
		slog.Warn("provider credentials missing; using deterministic stub ai client")
	}

	// Result cache: Redis when configured, in-process LRU otherwise.
	var (
		store     cache.Store
		cachePing func(domain.Context) error
	)
	if cfg.RedisURL != "" {
		rs, err := redisstore.NewStore(cfg.RedisURL)
		if err != nil {
			slog.Error("redis connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = rs.Close() }()
		store = rs
		cachePing = rs.Ping
		slog.Info("result cache backed by redis")
	} else {
		store = cache.NewMemoryStore(cfg.CacheCapacity)
		slog.Info("result cache backed by in-process memory",
			slog.Int("capacity", cfg.CacheCapacity))
	}

	scoreSvc := usecase.NewScoreService(
		embedding.NewScorer(aicl, cfg.EmbedTimeout),
		semantic.NewAnalyzer(aicl, cfg.ChatModel, cfg.SemanticTimeout, cfg.SemanticMaxTokens),
		cache.New(store, cfg.CacheTTL),
	)

	srv := httpserver.NewServer(cfg, scoreSvc)
	handler := app.BuildRouter(cfg, srv, cachePing)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
