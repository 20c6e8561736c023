package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/api"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/metrics"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/observability"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/prompt"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/services"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/session"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/tier"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownTimeout       = 10 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "hogwarts-archives@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY not set: generations will fail until a key is configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	composer, err := prompt.NewComposer()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to load prompt assets:", err)
	}

	cloudwatchClient, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	recorder := metrics.NewRecorder(metrics.NewSentryMetrics(), cloudwatchClient)

	tracer := observability.NewLangfuseClient(ctx, cfg)
	defer tracer.Flush(context.Background())

	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey)
	client := services.NewGenerationClient(factory, cfg, services.GenerationClientOptions{
		SystemPrompt: composer.SystemPrompt(),
		Timeout:      cfg.RequestTimeout,
		Tracer:       tracer,
		Metrics:      recorder,
	})

	var verifier tier.VerifierSource
	if cfg.VerifyElevatedKey {
		verifier = factory
	}
	gate := tier.NewGate(tier.NewConfiguredKeySelector(
		cfg.ElevatedGeminiAPIKey, cfg.Profile(models.TierElevated).ImageModel, verifier,
	))
	gate.Restore(ctx)

	archive := session.New(client, composer, gate)
	defer archive.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		Config:  cfg,
		Gate:    gate,
		Session: archive,
		Prompts: composer,
		Metrics: recorder,
		Tracing: tracer.IsEnabled(),
	}, GetVersion())

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Hogwarts Archives console listening on http://%s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization":  true,
		"cookie":         true,
		"x-api-key":      true,
		"x-goog-api-key": true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
