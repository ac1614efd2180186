// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/schedura-ai/booking-assistant/internal/business"
	"github.com/schedura-ai/booking-assistant/internal/config"
	"github.com/schedura-ai/booking-assistant/internal/events"
	"github.com/schedura-ai/booking-assistant/internal/google"
	"github.com/schedura-ai/booking-assistant/internal/handler"
	"github.com/schedura-ai/booking-assistant/internal/llm"
	"github.com/schedura-ai/booking-assistant/internal/middleware"
	"github.com/schedura-ai/booking-assistant/internal/notify"
	"github.com/schedura-ai/booking-assistant/internal/service"
	"github.com/schedura-ai/booking-assistant/internal/tools"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
	"github.com/schedura-ai/booking-assistant/pkg/tracing"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting booking assistant",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("business_config", cfg.BusinessConfigPath))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "booking-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		log.Fatal("invalid BUSINESS_TIMEZONE", zap.String("timezone", cfg.BusinessTimezone), zap.Error(err))
	}

	businessConfig := business.NewProvider(cfg.BusinessConfigPath)

	// Google Calendar and Sheets share one OAuth token
	oauthConfig, err := google.LoadOAuthConfig(cfg.GoogleCredentialsFile)
	if err != nil {
		log.Fatal("failed to load Google credentials", zap.Error(err))
	}
	tokenSource, err := google.NewTokenSource(ctx, oauthConfig, cfg.GoogleTokenFile)
	if err != nil {
		log.Fatal("failed to load Google token, run cmd/authorize first", zap.Error(err))
	}

	calendarClient, err := google.NewCalendar(ctx, cfg.GoogleCalendarID, option.WithTokenSource(tokenSource))
	if err != nil {
		log.Fatal("failed to create calendar client", zap.Error(err))
	}
	ledger, err := google.NewLedger(ctx, cfg.GoogleSheetURL, option.WithTokenSource(tokenSource))
	if err != nil {
		log.Fatal("failed to create sheets client", zap.Error(err))
	}

	mailer, err := notify.NewMailer(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SenderEmail,
		Password: cfg.SenderPassword,
	}, log)
	if err != nil {
		log.Fatal("failed to create mailer", zap.Error(err))
	}

	toolOpts := tools.Options{
		Location:     loc,
		SlotDuration: cfg.SlotDuration,
		Logger:       log,
	}

	// Booking events are optional
	var eventsClient *events.Client
	if cfg.NATSURL != "" {
		eventsClient, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer eventsClient.Close()

		if err := events.EnsureStream(ctx, eventsClient.JetStream()); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		toolOpts.Events = events.NewPublisher(eventsClient.JetStream())
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(ctx, llm.Provider(cfg.LLMProvider), llmOptions(cfg))
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}
	if closer, ok := llmClient.(io.Closer); ok {
		defer closer.Close()
	}

	// Initialize services
	toolbox := tools.New(businessConfig, calendarClient, ledger, mailer, toolOpts)
	chatSvc := service.NewChatService(businessConfig, llmClient, toolbox, log, service.ChatOptions{
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Location:  loc,
	})

	// Initialize handlers
	var readiness handler.ConnectionChecker
	if eventsClient != nil {
		readiness = eventsClient
	}
	healthHandler := handler.NewHealthHandler(businessConfig, readiness)
	chatHandler := handler.NewChatHandler(chatSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/chat", chatHandler.Chat)

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
			log.Fatal("server error", zap.Error(err))
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

func llmOptions(cfg *config.Config) llm.Options {
	switch llm.Provider(cfg.LLMProvider) {
	case llm.ProviderOpenAI:
		return llm.Options{APIKey: cfg.OpenAIAPIKey}
	case llm.ProviderAnthropic:
		return llm.Options{APIKey: cfg.AnthropicAPIKey}
	case llm.ProviderGemini:
		return llm.Options{APIKey: cfg.GeminiAPIKey}
	default:
		return llm.Options{
			APIKey:   cfg.OpenRouterAPIKey,
			BaseURL:  cfg.OpenRouterBaseURL,
			SiteName: cfg.OpenRouterSite,
		}
	}
}
