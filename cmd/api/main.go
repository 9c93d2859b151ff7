package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/knitec/iq-platform/internal/api/router"
	"github.com/knitec/iq-platform/internal/auth"
	"github.com/knitec/iq-platform/internal/chat"
	appconfig "github.com/knitec/iq-platform/internal/config"
	"github.com/knitec/iq-platform/internal/intake"
	"github.com/knitec/iq-platform/internal/observability/metrics"
	"github.com/knitec/iq-platform/pkg/logging"
	"github.com/knitec/iq-platform/web"
)

func main() {
	// Load .env in development; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting knitec-iq server",
		"env", cfg.Env,
		"port", cfg.Port,
		"public_base_url", cfg.PublicBaseURL,
	)

	// Accounts and session signing
	creds, err := auth.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		logger.Error("failed to load credentials", "path", cfg.CredentialsPath, "error", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(creds, cfg.SessionSecret, logger)
	if err != nil {
		logger.Error("failed to initialize auth", "error", err)
		os.Exit(1)
	}

	// Transcript storage, one file per chat session
	store, err := chat.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open transcript store", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	llm := buildLLMClient(cfg, logger)
	systemPrompt := chat.LoadSystemPrompt(cfg.SystemPromptPath, logger)

	chatMetrics := metrics.NewChatMetrics(nil)
	intakeMetrics := metrics.NewIntakeMetrics(nil)

	chatService := chat.NewService(store, llm, logger,
		chat.WithSystemPrompt(systemPrompt),
		chat.WithGreeting(cfg.Greeting),
		chat.WithModelTimeout(cfg.ModelTimeout),
		chat.WithMetrics(chatMetrics),
	)

	// Handlers
	authHandler := auth.NewHandler(authService, logger, cfg.Env == "production")
	intakeHandler := intake.NewHandler(intake.NewInMemoryRepository(), chatService, intakeMetrics, logger)
	chatHandler := chat.NewHandler(chatService, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		AuthHandler:        authHandler,
		SessionVerifier:    authService,
		IntakeHandler:      intakeHandler,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		StaticHandler:      web.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: float64(cfg.RateLimitPerSecond),
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// The write timeout must outlast a full model call, which blocks the
	// request for up to ModelTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ModelTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient wires the model providers: OpenAI as primary, Gemini as
// fallback when both are configured. At least one key must be present.
func buildLLMClient(cfg *appconfig.Config, logger *logging.Logger) chat.LLMClient {
	var primary chat.LLMClient
	if cfg.OpenAIAPIKey != "" {
		client, err := chat.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Error("failed to initialize openai client", "error", err)
			os.Exit(1)
		}
		primary = client
	}

	var fallback chat.LLMClient
	if cfg.GeminiAPIKey != "" {
		client, err := chat.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable, continuing without fallback", "error", err)
		} else {
			fallback = client
		}
	}

	switch {
	case primary != nil && fallback != nil:
		return chat.NewFallbackLLMClient(primary, fallback, logger)
	case primary != nil:
		return primary
	case fallback != nil:
		logger.Warn("openai not configured, using gemini as the only provider")
		return fallback
	default:
		logger.Error("no model provider configured, set OPENAI_API_KEY or GEMINI_API_KEY")
		os.Exit(1)
		return nil
	}
}
