// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nextlevelrentals/assistant-platform/internal/chatctx"
	"github.com/nextlevelrentals/assistant-platform/internal/config"
	"github.com/nextlevelrentals/assistant-platform/internal/functions"
	"github.com/nextlevelrentals/assistant-platform/internal/handler"
	"github.com/nextlevelrentals/assistant-platform/internal/llm"
	"github.com/nextlevelrentals/assistant-platform/internal/middleware"
	natsclient "github.com/nextlevelrentals/assistant-platform/internal/nats"
	"github.com/nextlevelrentals/assistant-platform/internal/service"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
	"github.com/nextlevelrentals/assistant-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS and provision the stream and KV buckets.
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	st, err := natsclient.NewStore(ctx, natsClient)
	if err != nil {
		log.Error("failed to initialize store", zap.Error(err))
		os.Exit(1)
	}

	// Model gateway.
	gateway, err := llm.NewGateway(llm.Provider(cfg.ModelProvider), llm.Options{
		APIKey:  cfg.ModelAPIKey(),
		Model:   cfg.ModelName,
		Timeout: cfg.ModelTimeout,
	})
	if err != nil {
		log.Error("failed to create model gateway", zap.Error(err))
		os.Exit(1)
	}
	log.Info("model gateway ready", zap.String("provider", gateway.Name()))

	// Services.
	conversationSvc := service.NewConversationService(st, log, nil)
	builder := chatctx.NewBuilder(st, nil)
	executor := functions.NewExecutor(st, log, nil)
	chatSvc := service.NewChatService(conversationSvc, builder, executor, gateway, natsClient, log, nil)

	// Handlers.
	healthHandler := handler.NewHealthHandler(natsClient)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", chatHandler.Send)
			r.Get("/conversations", conversationHandler.List)
			r.Get("/conversations/{id}", conversationHandler.Get)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
