package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/campusrag/campusrag/internal/config"
	"github.com/campusrag/campusrag/internal/db"
	dbRedis "github.com/campusrag/campusrag/internal/db/redis"
	"github.com/campusrag/campusrag/internal/domain"
	logpkg "github.com/campusrag/campusrag/internal/logger"
	"github.com/campusrag/campusrag/internal/metrics"
	"github.com/campusrag/campusrag/internal/repository/embcache"
	chiTransport "github.com/campusrag/campusrag/internal/transport/chi"
	"github.com/campusrag/campusrag/internal/transport/chroma"
	openaiTransport "github.com/campusrag/campusrag/internal/transport/openai"
	chatuc "github.com/campusrag/campusrag/internal/usecase/chat"
	directoryuc "github.com/campusrag/campusrag/internal/usecase/directory"
	healthuc "github.com/campusrag/campusrag/internal/usecase/health"
	searchuc "github.com/campusrag/campusrag/internal/usecase/search"
	"github.com/campusrag/campusrag/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting campusrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("institution", cfg.Institution),
		zap.String("chroma_url", cfg.Chroma.BaseURL),
	)

	// Vector store client
	store, err := chroma.New(chroma.Config{
		BaseURL:  cfg.Chroma.BaseURL,
		APIKey:   cfg.Chroma.APIKey,
		Tenant:   cfg.Chroma.Tenant,
		Database: cfg.Chroma.Database,
		Timeout:  time.Duration(cfg.Chroma.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store client", zap.Error(err))
	}

	// Optional Redis cache for embeddings
	ctx := context.Background()
	var cacheStore db.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := cacheStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	metrics.RegisterProviderMetrics()
	metrics.RegisterSearchMetrics()

	embedder := buildEmbedder(cfg, cacheStore, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("cached", cacheStore != nil),
	)

	llm := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})

	// Retrieval core
	dirSvc := directoryuc.New(store, directoryuc.Config{
		TTL:            time.Duration(cfg.Directory.TTLSec) * time.Second,
		PageSize:       cfg.Directory.PageSize,
		FilterEnabled:  cfg.Directory.FilterEnabled,
		FilterKeywords: cfg.Directory.FilterKeywords,
		FallbackPrefix: cfg.Directory.FallbackPrefix,
		FallbackCount:  cfg.Directory.FallbackCount,
	}, logger)

	searchSvc := searchuc.New(store, dirSvc, searchuc.Config{
		MaxShards:    cfg.Search.MaxShards,
		Workers:      cfg.Search.Workers,
		ShardTimeout: time.Duration(cfg.Search.ShardTimeoutSec) * time.Second,
		Overfetch:    cfg.Search.Overfetch,
	}, searchuc.Policy{
		SimilarityWeight: cfg.Search.SimilarityW,
		ContentWeight:    cfg.Search.ContentW,
		TitleWeight:      cfg.Search.TitleW,
		SimilarityFloor:  cfg.Search.SimilarityFloor,
		RankBy:           searchuc.RankBy(cfg.Search.RankBy),
	}, logger)

	chatSvc := chatuc.New(embedder, searchSvc, llm, cfg.Institution, logger)

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(store, cachePinger, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(chatSvc, dirSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached (when Redis
// is configured).
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if store == nil {
		return base
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	return embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
