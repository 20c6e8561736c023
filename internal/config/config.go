package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
)

// Default model identifiers per tier
const (
	DefaultStandardTextModel  = "gemini-2.5-flash"
	DefaultStandardImageModel = "gemini-2.5-flash-image"
	DefaultElevatedTextModel  = "gemini-2.5-pro"
	DefaultElevatedImageModel = "gemini-3-pro-image-preview"
	DefaultOpenAITextModel    = "gpt-5-mini"

	defaultStandardRPM    = 10
	defaultElevatedRPM    = 60
	defaultRequestTimeout = 90 * time.Second
)

// Text providers
const (
	TextProviderGemini = "gemini"
	TextProviderOpenAI = "openai"
)

// Config holds the application configuration
// Note: There is no persistence and no user store - one process serves one archive session
type Config struct {
	// Environment
	Environment string
	Host        string
	Port        string

	// Origins allowed to call the console; empty allows any
	CORSAllowedOrigins []string

	// LLM API Keys
	GeminiAPIKey         string // Shared key used by the standard tier
	ElevatedGeminiAPIKey string // User-selected key unlocking the elevated tier
	OpenAIAPIKey         string // Optional alternative record backend

	// Model selection
	TextProvider       string // "gemini" (default) or "openai"
	StandardTextModel  string
	StandardImageModel string
	ElevatedTextModel  string
	ElevatedImageModel string
	OpenAITextModel    string

	// Client-side pacing of remote calls, per tier
	StandardRequestsPerMinute int
	ElevatedRequestsPerMinute int
	RequestTimeout            time.Duration

	// Verify the elevated key against the remote service before accepting it
	VerifyElevatedKey bool

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

// TierProfile is the remote model configuration selected by an access tier
type TierProfile struct {
	Tier              models.AccessTier
	TextProvider      string
	TextModel         string
	ImageModel        string
	APIKey            string
	RequestsPerMinute int
}

func Load() *Config {
	return &Config{
		Environment:               getEnv("ENVIRONMENT", "development"),
		Host:                      getEnv("HOST", "127.0.0.1"),
		Port:                      getEnv("PORT", "8080"),
		CORSAllowedOrigins:        getEnvList("CORS_ALLOWED_ORIGINS"),
		GeminiAPIKey:              getEnv("GEMINI_API_KEY", ""),
		ElevatedGeminiAPIKey:      getEnv("ELEVATED_GEMINI_API_KEY", ""),
		OpenAIAPIKey:              getEnv("OPENAI_API_KEY", ""),
		TextProvider:              getEnv("TEXT_PROVIDER", TextProviderGemini),
		StandardTextModel:         getEnv("STANDARD_TEXT_MODEL", DefaultStandardTextModel),
		StandardImageModel:        getEnv("STANDARD_IMAGE_MODEL", DefaultStandardImageModel),
		ElevatedTextModel:         getEnv("ELEVATED_TEXT_MODEL", DefaultElevatedTextModel),
		ElevatedImageModel:        getEnv("ELEVATED_IMAGE_MODEL", DefaultElevatedImageModel),
		OpenAITextModel:           getEnv("OPENAI_TEXT_MODEL", DefaultOpenAITextModel),
		StandardRequestsPerMinute: getEnvInt("STANDARD_REQUESTS_PER_MINUTE", defaultStandardRPM),
		ElevatedRequestsPerMinute: getEnvInt("ELEVATED_REQUESTS_PER_MINUTE", defaultElevatedRPM),
		RequestTimeout:            getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		VerifyElevatedKey:         getEnv("VERIFY_ELEVATED_KEY", "true") == "true",
		SentryDSN:                 getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:         getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:         getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:              getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:           getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// Profile returns the model configuration for the given tier.
// The elevated tier falls back to the shared key when no dedicated key is set.
func (c *Config) Profile(tier models.AccessTier) TierProfile {
	if tier == models.TierElevated {
		key := c.ElevatedGeminiAPIKey
		if key == "" {
			key = c.GeminiAPIKey
		}
		return TierProfile{
			Tier:              models.TierElevated,
			TextProvider:      c.textProvider(),
			TextModel:         c.textModel(c.ElevatedTextModel),
			ImageModel:        c.ElevatedImageModel,
			APIKey:            key,
			RequestsPerMinute: c.ElevatedRequestsPerMinute,
		}
	}

	return TierProfile{
		Tier:              models.TierStandard,
		TextProvider:      c.textProvider(),
		TextModel:         c.textModel(c.StandardTextModel),
		ImageModel:        c.StandardImageModel,
		APIKey:            c.GeminiAPIKey,
		RequestsPerMinute: c.StandardRequestsPerMinute,
	}
}

func (c *Config) textProvider() string {
	if c.TextProvider == TextProviderOpenAI && c.OpenAIAPIKey != "" {
		return TextProviderOpenAI
	}
	return TextProviderGemini
}

func (c *Config) textModel(geminiModel string) string {
	if c.textProvider() == TextProviderOpenAI {
		return c.OpenAITextModel
	}
	return geminiModel
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address for the archive console
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
