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

	"github.com/kailas-cloud/converse/internal/config"
	dbRedis "github.com/kailas-cloud/converse/internal/db/redis"
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	logpkg "github.com/kailas-cloud/converse/internal/logger"
	"github.com/kailas-cloud/converse/internal/metrics"
	conversationrepo "github.com/kailas-cloud/converse/internal/repository/conversation"
	dialogstaterepo "github.com/kailas-cloud/converse/internal/repository/dialogstate"
	chiTransport "github.com/kailas-cloud/converse/internal/transport/chi"
	openaiRec "github.com/kailas-cloud/converse/internal/transport/openai"
	"github.com/kailas-cloud/converse/internal/transport/qna"
	dialoguc "github.com/kailas-cloud/converse/internal/usecase/dialog"
	dispatchuc "github.com/kailas-cloud/converse/internal/usecase/dispatch"
	healthuc "github.com/kailas-cloud/converse/internal/usecase/health"
	"github.com/kailas-cloud/converse/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting converse API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("knowledge_base_id", cfg.KnowledgeBase.ID),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register dialog metrics explicitly (no init())
	metrics.RegisterDialogMetrics()

	kbClient, err := qna.NewClient(qna.Config{
		KnowledgeBaseID: cfg.KnowledgeBase.ID,
		Host:            cfg.KnowledgeBase.Host,
		EndpointKey:     cfg.KnowledgeBase.EndpointKey,
		Timeout:         time.Duration(cfg.KnowledgeBase.TimeoutSec) * time.Second,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("Failed to create knowledge base client", zap.Error(err))
	}

	defaults, err := dialogOptions(cfg.Dialog)
	if err != nil {
		logger.Fatal("Invalid dialog options", zap.Error(err))
	}

	ttl := time.Duration(cfg.Database.StateTTLHours) * time.Hour
	stateRepo := dialogstaterepo.New(store, ttl)
	convRepo := conversationrepo.New(store, ttl)

	dialogSvc := dialoguc.New(kbClient, stateRepo, defaults, logger)

	// Recognizer is optional: without an API key every message goes straight
	// to the knowledge-base dialog.
	var recognizer dispatchuc.Recognizer
	if cfg.Recognizer.APIKey != "" {
		recognizer = openaiRec.NewRecognizer(&openaiRec.Config{
			APIKey:  cfg.Recognizer.APIKey,
			BaseURL: cfg.Recognizer.BaseURL,
			Model:   cfg.Recognizer.Model,
			Logger:  logger,
		})
		logger.Info("Intent recognizer enabled", zap.String("model", cfg.Recognizer.Model))
	}

	dispatchSvc := dispatchuc.New(dialogSvc, convRepo, recognizer, logger).
		WithIntentFloor(cfg.Recognizer.IntentFloor)

	healthSvc := healthuc.New(store, kbClient)

	server := chiTransport.NewServer(dispatchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

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

// dialogOptions maps configured dialog settings onto the domain option record.
func dialogOptions(dc config.DialogConfig) (domdialog.Options, error) {
	filters := make([]domdialog.Filter, 0, len(dc.Filters))
	for _, f := range dc.Filters {
		filters = append(filters, domdialog.Filter{Name: f.Name, Value: f.Value})
	}

	query := domdialog.QueryOptions{
		ScoreThreshold: dc.ScoreThreshold,
		Top:            dc.Top,
		Filters:        filters,
		JoinOperator:   domdialog.JoinOperator(dc.FiltersJoinOperator),
		RankerMode:     domdialog.RankerMode(dc.RankerMode),
		IsTest:         dc.IsTest,
	}

	response := domdialog.ResponseOptions{
		CardTitle:       dc.CardTitle,
		CardNoMatchText: dc.CardNoMatchText,
	}
	if dc.NoAnswerMessage != "" {
		response.NoAnswerMessage = domdialog.TextTemplate(dc.NoAnswerMessage)
	}
	if dc.CardNoMatchResponse != "" {
		response.CardNoMatchResponse = domdialog.TextTemplate(dc.CardNoMatchResponse)
	}

	return domdialog.NewOptions(query, response)
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

			// Set X-Request-ID in response header
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
