// cmd/recall-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vviyott/recall-engine/internal/common/config"
	"github.com/vviyott/recall-engine/internal/common/database"
	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/common/observability"
	"github.com/vviyott/recall-engine/internal/engine/cache"
	"github.com/vviyott/recall-engine/internal/engine/catalog"
	"github.com/vviyott/recall-engine/internal/engine/compose"
	"github.com/vviyott/recall-engine/internal/engine/dates"
	"github.com/vviyott/recall-engine/internal/engine/hint"
	"github.com/vviyott/recall-engine/internal/engine/orchestrator"
	"github.com/vviyott/recall-engine/internal/engine/search"
	"github.com/vviyott/recall-engine/internal/engine/selector"
	"github.com/vviyott/recall-engine/internal/engine/translate"
	"github.com/vviyott/recall-engine/internal/models"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting recall engine...",
		zap.String("environment", cfg.App.Environment),
		zap.Int("anchor_year", cfg.Engine.AnchorYear),
	)

	obs := observability.New("recall-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Answer Cache (Redis when enabled, in-process otherwise) ---
	answerCacheTTL := time.Duration(cfg.Engine.AnswerCacheTTL) * time.Second
	var answerCache cache.Store = cache.NewTTL(cfg.Engine.AnswerCacheSize, answerCacheTTL)

	if cfg.Database.Redis.Enabled {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		answerCache = cache.NewRedis(redisClient.Client, answerCacheTTL)
		zapLog.Info("Redis connected successfully, using shared answer cache")
	} else {
		zapLog.Info("Redis disabled, using in-process answer cache",
			zap.Int("capacity", cfg.Engine.AnswerCacheSize),
		)
	}

	// --- Build Engine Components ---
	resolver := dates.NewResolver(cfg.Engine.AnchorYear, log, obs)

	termCache := cache.NewTTL(cfg.Engine.TermCacheSize, time.Duration(cfg.Engine.TermCacheTTL)*time.Second)
	expander := translate.NewExpander(translate.NewOpenAITranslator(cfg.OpenAI), termCache, log, obs)

	classifier := hint.NewClassifier(resolver)
	cat := catalog.New(pg.DB, expander, resolver, log)
	searchService := search.New(esClient.Client, esClient.Index, expander, log)
	opSelector := selector.NewOpenAISelector(cfg.OpenAI, cfg.Engine.AnchorYear, cfg.Engine.HistoryWindow, log)
	composer := compose.New(compose.NewOpenAIGenerator(cfg.OpenAI), log)

	engine := orchestrator.New(orchestrator.Config{
		Classifier:       classifier,
		Selector:         opSelector,
		Catalog:          cat,
		Search:           searchService,
		Composer:         composer,
		AnswerCache:      answerCache,
		DefaultSearchTop: cfg.Engine.DefaultSearchTop,
		Logger:           log,
		Metrics:          obs,
	})

	zapLog.Info("All engine components initialized")

	// --- HTTP Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/ask", askHandler(engine, zapLog))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pg.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Recall engine stopped gracefully")
}

type askRequest struct {
	Question string            `json:"question"`
	History  []models.ChatTurn `json:"history,omitempty"`
}

type askResponse struct {
	Answer         string              `json:"answer"`
	ProcessingType string              `json:"processing_type"`
	OperationCalls []models.ToolResult `json:"operation_calls,omitempty"`
}

func askHandler(engine *orchestrator.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Question == "" {
			http.Error(w, "question is required", http.StatusBadRequest)
			return
		}

		answer, err := engine.Resolve(r.Context(), req.Question, req.History)
		if err != nil {
			log.Error("question resolution failed",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(askResponse{
			Answer:         answer.Text,
			ProcessingType: string(answer.ProcessingType),
			OperationCalls: answer.OperationCalls,
		})
	}
}
