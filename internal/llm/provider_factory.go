package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// ProviderFactory creates providers by name and caches one Gemini client per API key
type ProviderFactory struct {
	openaiAPIKey string
	geminiBase   genai.ClientConfig

	mu     sync.Mutex
	gemini map[string]*GeminiProvider
	openai *OpenAIProvider
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey string) *ProviderFactory {
	return NewProviderFactoryWithConfig(openaiAPIKey, genai.ClientConfig{Backend: genai.BackendGeminiAPI})
}

// NewProviderFactoryWithConfig uses base as the template for every Gemini client.
// The API key of base is ignored; each call supplies its own.
func NewProviderFactoryWithConfig(openaiAPIKey string, base genai.ClientConfig) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiBase:   base,
		gemini:       make(map[string]*GeminiProvider),
	}
}

// TextProvider returns the record provider for the given provider name
func (f *ProviderFactory) TextProvider(ctx context.Context, providerName, geminiAPIKey string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case providerNameOpenAI:
		return f.openAI()
	case providerNameGemini, "":
		return f.Gemini(ctx, geminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: gemini, openai)", providerName)
	}
}

// ImageProvider returns the portrait provider. Only Gemini produces images.
func (f *ProviderFactory) ImageProvider(ctx context.Context, geminiAPIKey string) (ImageProvider, error) {
	return f.Gemini(ctx, geminiAPIKey)
}

// Verifier returns a KeyVerifier bound to the given key
func (f *ProviderFactory) Verifier(ctx context.Context, geminiAPIKey string) (KeyVerifier, error) {
	return f.Gemini(ctx, geminiAPIKey)
}

// Gemini returns the cached Gemini provider for apiKey, creating it on first use
func (f *ProviderFactory) Gemini(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.gemini[apiKey]; ok {
		return p, nil
	}

	cfg := f.geminiBase
	cfg.APIKey = apiKey
	p, err := NewGeminiProviderWithConfig(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	f.gemini[apiKey] = p
	return p, nil
}

func (f *ProviderFactory) openAI() (*OpenAIProvider, error) {
	if f.openaiAPIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openai == nil {
		f.openai = NewOpenAIProvider(f.openaiAPIKey)
	}
	return f.openai, nil
}
