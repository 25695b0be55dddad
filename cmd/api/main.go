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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/analytics"
	"github.com/capitalize-ai/callcenter-agent/internal/config"
	"github.com/capitalize-ai/callcenter-agent/internal/dialogue"
	"github.com/capitalize-ai/callcenter-agent/internal/events"
	"github.com/capitalize-ai/callcenter-agent/internal/handler"
	"github.com/capitalize-ai/callcenter-agent/internal/llm"
	"github.com/capitalize-ai/callcenter-agent/internal/middleware"
	"github.com/capitalize-ai/callcenter-agent/internal/optimizer"
	"github.com/capitalize-ai/callcenter-agent/internal/store"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
	"github.com/capitalize-ai/callcenter-agent/pkg/tracing"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "callcenter-agent", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect the event feed if configured
	var publisher events.Publisher = events.Noop{}
	var natsPublisher *events.NATSPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect event feed, events disabled", zap.Error(err))
		} else {
			publisher = natsPublisher
			defer natsPublisher.Close()
		}
	}

	// Initialize LLM client
	var provider llm.Provider = llm.ProviderOpenAI
	apiKey := cfg.OpenAIAPIKey
	if apiKey == "" && cfg.AnthropicAPIKey != "" {
		provider = llm.ProviderAnthropic
		apiKey = cfg.AnthropicAPIKey
	}

	baseClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	llmClient := llm.WithRetry(baseClient, llm.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}, log)

	// Initialize core components
	sessionStore := store.NewMemory(cfg.SweepInterval, log)
	sessionStore.StartSweeper(ctx)
	defer sessionStore.Close()

	manager := dialogue.NewManager(sessionStore, cfg.SessionTTL, log)
	classifier := dialogue.NewClassifier(llmClient, cfg.DefaultModel, log)
	collector := analytics.NewCollector()
	opt := optimizer.New(optimizer.Config{
		CachingEnabled:    cfg.CachingEnabled,
		CacheTTL:          cfg.CacheTTL,
		CostOptimization:  cfg.CostOptimization,
		DefaultModel:      cfg.DefaultModel,
		FastModel:         cfg.FastModel,
		MaxContextMessage: cfg.MaxContextMessage,
		ModelRates:        cfg.ModelRates,
	})

	orchestrator := dialogue.NewOrchestrator(manager, classifier, opt, collector, llmClient, publisher,
		dialogue.OrchestratorConfig{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			LLMTimeout:  cfg.LLMTimeout,
		}, log)

	// Schedule metrics retention cleanup
	scheduler := cron.New()
	scheduler.AddFunc("@hourly", func() {
		if removed := collector.CleanupOldMetrics(); removed > 0 {
			log.Info("cleaned up old metric samples", zap.Int("count", removed))
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	var eventFeedCheck handler.ConnChecker
	if natsPublisher != nil {
		eventFeedCheck = natsPublisher
	}
	healthHandler := handler.NewHealthHandler(eventFeedCheck)
	dialogueHandler := handler.NewDialogueHandler(manager, orchestrator, collector, publisher, log)
	analyticsHandler := handler.NewAnalyticsHandler(collector)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/dialogue", func(r chi.Router) {
			r.Post("/start", dialogueHandler.Start)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dialogueHandler.GetSession)
				r.Delete("/", dialogueHandler.Close)
				r.Post("/message", dialogueHandler.SendMessage)
				r.Post("/feedback", dialogueHandler.Feedback)
				r.Get("/messages", dialogueHandler.GetMessages)
			})
		})

		r.Get("/analytics", analyticsHandler.Get)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
