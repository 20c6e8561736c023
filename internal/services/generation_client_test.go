package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// MockProvider is a test implementation of llm.Provider and llm.ImageProvider
type MockProvider struct {
	generateFunc      func(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error)
	generateImageFunc func(ctx context.Context, request *llm.ImageRequest) (*llm.ImageResponse, error)

	mu         sync.Mutex
	textCalls  int
	imageCalls int
	lastText   *llm.GenerationRequest
	lastImage  *llm.ImageRequest
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	m.mu.Lock()
	m.textCalls++
	m.lastText = request
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &llm.GenerationResponse{}, nil
}

func (m *MockProvider) GenerateImage(ctx context.Context, request *llm.ImageRequest) (*llm.ImageResponse, error) {
	m.mu.Lock()
	m.imageCalls++
	m.lastImage = request
	m.mu.Unlock()
	if m.generateImageFunc != nil {
		return m.generateImageFunc(ctx, request)
	}
	return &llm.ImageResponse{}, nil
}

// mockSource hands out the same MockProvider for every profile
type mockSource struct {
	provider *MockProvider
	err      error
	keys     []string
}

func (s *mockSource) TextProvider(_ context.Context, _ string, key string) (llm.Provider, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

func (s *mockSource) ImageProvider(_ context.Context, key string) (llm.ImageProvider, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

func testConfig() *config.Config {
	return &config.Config{
		GeminiAPIKey:              "shared-key",
		ElevatedGeminiAPIKey:      "elevated-key",
		StandardTextModel:         "flash",
		StandardImageModel:        "flash-image",
		ElevatedTextModel:         "pro",
		ElevatedImageModel:        "pro-image",
		StandardRequestsPerMinute: 100,
		ElevatedRequestsPerMinute: 100,
	}
}

type recordedMetrics struct {
	mu        sync.Mutex
	fallbacks []string
	durations map[string]bool
}

func (r *recordedMetrics) RecordTokenUsage(context.Context, string, string, llm.Usage) {}

func (r *recordedMetrics) RecordGenerationDuration(_ context.Context, stage string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.durations == nil {
		r.durations = map[string]bool{}
	}
	r.durations[stage] = success
}

func (r *recordedMetrics) RecordImageFallback(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, reason)
}

func newTestClient(provider *MockProvider, cfg *config.Config) (*GenerationClient, *mockSource, *recordedMetrics) {
	source := &mockSource{provider: provider}
	metrics := &recordedMetrics{}
	client := NewGenerationClient(source, cfg, GenerationClientOptions{
		SystemPrompt: "You are a master game designer and Harry Potter lore expert.",
		Timeout:      time.Second,
		Metrics:      metrics,
	})
	return client, source, metrics
}

func TestFetchCharacterRecord_Success(t *testing.T) {
	raw := marshal(t, harryRecord())
	provider := &MockProvider{
		generateFunc: func(_ context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
			return &llm.GenerationResponse{RawOutput: raw, Usage: llm.Usage{TotalTokens: 42}}, nil
		},
	}
	client, source, metrics := newTestClient(provider, testConfig())

	record, err := client.FetchCharacterRecord(context.Background(), "composed prompt", models.TierElevated)
	require.NoError(t, err)
	assert.Equal(t, "Harry Potter", record.Name)

	require.NotNil(t, provider.lastText)
	assert.Equal(t, "pro", provider.lastText.Model)
	assert.Equal(t, "composed prompt", provider.lastText.Prompt)
	assert.Contains(t, provider.lastText.SystemPrompt, "lore expert")
	require.NotNil(t, provider.lastText.OutputSchema)
	require.NotNil(t, provider.lastText.Temperature)
	assert.Equal(t, []string{"elevated-key"}, source.keys)
	assert.True(t, metrics.durations["record"])
}

func TestFetchCharacterRecord_Failures(t *testing.T) {
	tests := []struct {
		name     string
		generate func(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error)
		wantKind RecordErrorKind
		wantMsg  string
	}{
		{
			name: "transport error",
			generate: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return nil, errors.New("connection reset by peer")
			},
			wantKind: RecordErrorOther,
			wantMsg:  MessageOther,
		},
		{
			name: "rate limited by remote",
			generate: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}
			},
			wantKind: RecordErrorRateLimited,
			wantMsg:  MessageRateLimited,
		},
		{
			name: "empty payload",
			generate: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return &llm.GenerationResponse{}, nil
			},
			wantKind: RecordErrorOther,
			wantMsg:  MessageOther,
		},
		{
			name: "schema violation",
			generate: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return &llm.GenerationResponse{RawOutput: `{"name":"Harry Potter"}`}, nil
			},
			wantKind: RecordErrorOther,
			wantMsg:  MessageOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, metrics := newTestClient(&MockProvider{generateFunc: tt.generate}, testConfig())

			record, err := client.FetchCharacterRecord(context.Background(), "prompt", models.TierStandard)
			require.Error(t, err)
			assert.Nil(t, record)

			var genErr *RecordGenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.wantKind, genErr.Kind)
			assert.Equal(t, tt.wantMsg, genErr.Message())
			assert.False(t, metrics.durations["record"])
		})
	}
}

func TestFetchCharacterRecord_RepeatedRateLimitClassifiedTheSame(t *testing.T) {
	provider := &MockProvider{
		generateFunc: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
			return nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}
		},
	}
	client, _, _ := newTestClient(provider, testConfig())

	for i := 0; i < 3; i++ {
		_, err := client.FetchCharacterRecord(context.Background(), "prompt", models.TierStandard)
		var genErr *RecordGenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, RecordErrorRateLimited, genErr.Kind, "attempt %d", i+1)
	}
	assert.Equal(t, 3, provider.textCalls)
}

func TestFetchCharacterRecord_LocalPacing(t *testing.T) {
	cfg := testConfig()
	cfg.StandardRequestsPerMinute = 1

	raw := marshal(t, harryRecord())
	provider := &MockProvider{
		generateFunc: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
			return &llm.GenerationResponse{RawOutput: raw}, nil
		},
	}
	client, _, _ := newTestClient(provider, cfg)

	_, err := client.FetchCharacterRecord(context.Background(), "first", models.TierStandard)
	require.NoError(t, err)

	_, err = client.FetchCharacterRecord(context.Background(), "second", models.TierStandard)
	var genErr *RecordGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.True(t, genErr.IsRateLimited())
	assert.Equal(t, 1, provider.textCalls, "paced call must not reach the provider")

	// Elevated tier has its own budget
	_, err = client.FetchCharacterRecord(context.Background(), "third", models.TierElevated)
	assert.NoError(t, err)
}

func TestFetchCharacterRecord_ProviderResolutionFails(t *testing.T) {
	client, source, _ := newTestClient(&MockProvider{}, testConfig())
	source.err = errors.New("gemini API key not configured")

	_, err := client.FetchCharacterRecord(context.Background(), "prompt", models.TierStandard)
	var genErr *RecordGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, RecordErrorOther, genErr.Kind)
}

func TestFetchCharacterImage_Success(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	provider := &MockProvider{
		generateImageFunc: func(context.Context, *llm.ImageRequest) (*llm.ImageResponse, error) {
			return &llm.ImageResponse{Data: png, MIMEType: "image/png"}, nil
		},
	}
	client, source, metrics := newTestClient(provider, testConfig())

	result := client.FetchCharacterImage(context.Background(), "Portrait", models.TierStandard, models.ImageOptions{
		AspectRatio: models.AspectWide,
	})

	assert.False(t, result.Placeholder)
	assert.Equal(t, png, result.Data)
	assert.Equal(t, "image/png", result.MIMEType)
	require.NotNil(t, provider.lastImage)
	assert.Equal(t, "flash-image", provider.lastImage.Model)
	assert.Equal(t, "16:9", provider.lastImage.AspectRatio)
	assert.Equal(t, "Portrait", provider.lastImage.Prompt)
	assert.Equal(t, []string{"shared-key"}, source.keys)
	assert.Empty(t, metrics.fallbacks)
}

func TestFetchCharacterImage_FailuresYieldPlaceholder(t *testing.T) {
	tests := []struct {
		name       string
		generate   func(context.Context, *llm.ImageRequest) (*llm.ImageResponse, error)
		wantReason string
	}{
		{
			name: "transport error",
			generate: func(context.Context, *llm.ImageRequest) (*llm.ImageResponse, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			wantReason: "transport",
		},
		{
			name: "content filtered",
			generate: func(context.Context, *llm.ImageRequest) (*llm.ImageResponse, error) {
				return nil, llm.ErrContentFiltered
			},
			wantReason: "content_filtered",
		},
		{
			name: "empty response",
			generate: func(context.Context, *llm.ImageRequest) (*llm.ImageResponse, error) {
				return &llm.ImageResponse{}, nil
			},
			wantReason: "no_image_data",
		},
		{
			name: "rate limited",
			generate: func(context.Context, *llm.ImageRequest) (*llm.ImageResponse, error) {
				return nil, genai.APIError{Code: 429}
			},
			wantReason: "rate_limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, metrics := newTestClient(&MockProvider{generateImageFunc: tt.generate}, testConfig())

			result := client.FetchCharacterImage(context.Background(), "Portrait", models.TierElevated, models.ImageOptions{})

			assert.True(t, result.Placeholder)
			assert.Equal(t, models.PlaceholderImage(), result)
			assert.Equal(t, []string{tt.wantReason}, metrics.fallbacks)
		})
	}
}

func TestImageParametersDefaultsAspectRatio(t *testing.T) {
	request := ImageParameters(config.TierProfile{ImageModel: "img"}, models.ImageOptions{})
	assert.Equal(t, "4:3", request.AspectRatio)
	assert.Equal(t, "img", request.Model)
}

func TestRecordGenerationError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRecordGenerationError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, RecordErrorOther, err.Kind)
	assert.Contains(t, err.Error(), "boom")

	limited := NewRecordGenerationError(llm.ErrRateLimited)
	assert.True(t, limited.IsRateLimited())
	assert.Equal(t, MessageRateLimited, limited.Message())

	schema := NewRecordGenerationError(fmt.Errorf("%w: enum: 429 does not equal any of: [Common]", ErrSchemaValidation))
	assert.False(t, schema.IsRateLimited())
	assert.Equal(t, RecordErrorOther, schema.Kind)
	assert.Equal(t, MessageOther, schema.Message())
}

func TestRecordParser_RateLimitTextInFieldIsSchemaFailure(t *testing.T) {
	m := harryRecord()
	m["rarity"] = "429 Too Many Requests"

	_, err := NewRecordParser().Parse(marshal(t, m))
	require.Error(t, err)
	assert.Equal(t, RecordErrorOther, NewRecordGenerationError(err).Kind)
}
