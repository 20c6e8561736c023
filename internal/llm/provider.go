package llm

import (
	"context"
)

// Provider defines the interface for structured text generation.
// All providers MUST support structured output (JSON Schema) for reliable response parsing
type Provider interface {
	// Generate runs one structured generation call.
	// The provider MUST forward OutputSchema as a response-shape constraint when it is set
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// ImageProvider generates a single raster image from a text instruction
type ImageProvider interface {
	GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResponse, error)
	Name() string
}

// KeyVerifier checks that an API key can reach a model
type KeyVerifier interface {
	VerifyAccess(ctx context.Context, model string) error
}

// GenerationRequest contains all parameters needed for text generation
type GenerationRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Temperature  *float32
	// Structured output schema - REQUIRED for reliable JSON parsing
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// GenerationResponse contains the raw result from the LLM
type GenerationResponse struct {
	RawOutput string // Raw JSON text output, parsed by the caller
	Usage     Usage
}

// ImageRequest contains the parameters for one image generation
type ImageRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
}

// ImageResponse holds the first image part returned by the model
type ImageResponse struct {
	Data     []byte
	MIMEType string
	Usage    Usage
}

// Usage is provider-neutral token accounting
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// AsMap returns the usage in the shape expected by metrics and tracing
func (u Usage) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}
