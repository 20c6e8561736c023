package config

import (
	"testing"
	"time"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TEXT_PROVIDER", "")
	t.Setenv("PORT", "")
	t.Setenv("HOST", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, TextProviderGemini, cfg.TextProvider)
	assert.Equal(t, DefaultStandardTextModel, cfg.StandardTextModel)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("STANDARD_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("REQUEST_TIMEOUT", "-5s")

	cfg := Load()

	assert.Equal(t, defaultStandardRPM, cfg.StandardRequestsPerMinute)
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://localhost:5173, ,http://127.0.0.1:3000 ")
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:3000"}, Load().CORSAllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Empty(t, Load().CORSAllowedOrigins)
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name           string
		cfg            Config
		tier           models.AccessTier
		wantProvider   string
		wantTextModel  string
		wantImageModel string
		wantKey        string
	}{
		{
			name: "standard tier uses shared key",
			cfg: Config{
				GeminiAPIKey: "shared", ElevatedGeminiAPIKey: "mine",
				StandardTextModel: "flash", StandardImageModel: "flash-image",
			},
			tier:           models.TierStandard,
			wantProvider:   TextProviderGemini,
			wantTextModel:  "flash",
			wantImageModel: "flash-image",
			wantKey:        "shared",
		},
		{
			name: "elevated tier uses dedicated key",
			cfg: Config{
				GeminiAPIKey: "shared", ElevatedGeminiAPIKey: "mine",
				ElevatedTextModel: "pro", ElevatedImageModel: "pro-image",
			},
			tier:           models.TierElevated,
			wantProvider:   TextProviderGemini,
			wantTextModel:  "pro",
			wantImageModel: "pro-image",
			wantKey:        "mine",
		},
		{
			name: "elevated tier falls back to shared key",
			cfg: Config{
				GeminiAPIKey: "shared", ElevatedTextModel: "pro", ElevatedImageModel: "pro-image",
			},
			tier:           models.TierElevated,
			wantProvider:   TextProviderGemini,
			wantTextModel:  "pro",
			wantImageModel: "pro-image",
			wantKey:        "shared",
		},
		{
			name: "openai requested without key stays on gemini",
			cfg: Config{
				GeminiAPIKey: "shared", TextProvider: TextProviderOpenAI,
				StandardTextModel: "flash", OpenAITextModel: "gpt-5-mini",
			},
			tier:          models.TierStandard,
			wantProvider:  TextProviderGemini,
			wantTextModel: "flash",
			wantKey:       "shared",
		},
		{
			name: "openai text provider",
			cfg: Config{
				GeminiAPIKey: "shared", OpenAIAPIKey: "sk", TextProvider: TextProviderOpenAI,
				StandardTextModel: "flash", StandardImageModel: "flash-image", OpenAITextModel: "gpt-5-mini",
			},
			tier:           models.TierStandard,
			wantProvider:   TextProviderOpenAI,
			wantTextModel:  "gpt-5-mini",
			wantImageModel: "flash-image",
			wantKey:        "shared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := tt.cfg.Profile(tt.tier)
			assert.Equal(t, tt.tier, profile.Tier)
			assert.Equal(t, tt.wantProvider, profile.TextProvider)
			assert.Equal(t, tt.wantTextModel, profile.TextModel)
			assert.Equal(t, tt.wantImageModel, profile.ImageModel)
			assert.Equal(t, tt.wantKey, profile.APIKey)
		})
	}
}
