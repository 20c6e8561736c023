package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	modalityImage      = "IMAGE"
	modalityText       = "TEXT"
	finishImageSafety  = "IMAGE_SAFETY"
)

// GeminiProvider implements Provider and ImageProvider using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	return NewGeminiProviderWithConfig(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// NewGeminiProviderWithConfig creates a Gemini provider from a full client config
// (custom HTTP client or base URL)
func NewGeminiProviderWithConfig(ctx context.Context, cfg *genai.ClientConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate implements structured text generation using Gemini's API
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("📜 GEMINI RECORD REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	config := &genai.GenerateContentConfig{
		Temperature: request.Temperature,
	}
	if request.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemPrompt, genai.RoleUser)
	}

	// Add JSON schema for structured output if provided
	if request.OutputSchema != nil {
		config.ResponseMIMEType = mimeTypeJSON
		config.ResponseSchema = ConvertSchemaToGemini(request.OutputSchema.Schema)
	}

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, genai.Text(request.Prompt), config)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)

	text, err := extractText(result)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	usage := geminiUsage(result)
	log.Printf("✅ GEMINI RECORD COMPLETED in %v (output_length=%d, tokens=%d)",
		time.Since(startTime), len(text), usage.TotalTokens)

	transaction.SetTag("success", "true")
	return &GenerationResponse{
		RawOutput: text,
		Usage:     usage,
	}, nil
}

// GenerateImage requests a single image and returns the first inline image part
func (p *GeminiProvider) GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResponse, error) {
	startTime := time.Now()
	log.Printf("🎨 GEMINI IMAGE REQUEST STARTED (Model: %s, aspect: %s)", request.Model, request.AspectRatio)

	transaction := sentry.StartTransaction(ctx, "gemini.generate_image")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{modalityText, modalityImage},
	}
	if request.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: request.AspectRatio}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(request.Prompt, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	if err != nil {
		log.Printf("❌ GEMINI IMAGE REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}

	blob, err := extractImage(result)
	if err != nil {
		log.Printf("⚠️  Gemini returned a response but no image data found: %v", err)
		transaction.SetTag("success", "false")
		return nil, err
	}

	log.Printf("✅ GEMINI IMAGE COMPLETED in %v (%s, %d bytes)", time.Since(startTime), blob.MIMEType, len(blob.Data))
	transaction.SetTag("success", "true")

	return &ImageResponse{
		Data:     blob.Data,
		MIMEType: blob.MIMEType,
		Usage:    geminiUsage(result),
	}, nil
}

// VerifyAccess checks that the configured key can see the given model
func (p *GeminiProvider) VerifyAccess(ctx context.Context, model string) error {
	if _, err := p.client.Models.Get(ctx, model, nil); err != nil {
		return fmt.Errorf("gemini key cannot access %s: %w", model, err)
	}
	return nil
}

// extractText concatenates the non-thought text parts of the first candidate
func extractText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		if isPromptBlocked(result) {
			return "", ErrContentFiltered
		}
		return "", fmt.Errorf("no candidates in Gemini response: %w", ErrEmptyResponse)
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if isFiltered(candidate.FinishReason) {
			return "", ErrContentFiltered
		}
		return "", fmt.Errorf("no parts in Gemini response: %w", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini response did not include any output text: %w", ErrEmptyResponse)
	}
	return text, nil
}

// extractImage returns the first inline image of the first candidate
func extractImage(result *genai.GenerateContentResponse) (*genai.Blob, error) {
	if result == nil || len(result.Candidates) == 0 {
		if isPromptBlocked(result) {
			return nil, ErrContentFiltered
		}
		return nil, ErrNoImageData
	}

	candidate := result.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData, nil
			}
		}
	}

	if isFiltered(candidate.FinishReason) {
		return nil, ErrContentFiltered
	}
	return nil, ErrNoImageData
}

func isPromptBlocked(result *genai.GenerateContentResponse) bool {
	return result != nil && result.PromptFeedback != nil && result.PromptFeedback.BlockReason != ""
}

func isFiltered(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return true
	}
	return string(reason) == finishImageSafety
}

func geminiUsage(result *genai.GenerateContentResponse) Usage {
	if result == nil || result.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
	}
}

// ConvertSchemaToGemini converts a JSON schema map into Gemini's schema type.
// Supports the subset the character schema uses: type (incl. ["x","null"]),
// description, enum, properties, required, items, minItems/maxItems, minimum/maximum.
func ConvertSchemaToGemini(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{}

	switch t := schema["type"].(type) {
	case string:
		out.Type = geminiType(t)
	case []any:
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				out.Nullable = genai.Ptr(true)
				continue
			}
			out.Type = geminiType(name)
		}
	}

	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if enum, ok := schema["enum"].([]string); ok {
		out.Enum = append([]string(nil), enum...)
	}
	if required, ok := schema["required"].([]string); ok {
		out.Required = append([]string(nil), required...)
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if child, ok := raw.(map[string]any); ok {
				out.Properties[name] = ConvertSchemaToGemini(child)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = ConvertSchemaToGemini(items)
	}

	if n, ok := schemaNumber(schema["minItems"]); ok {
		out.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := schemaNumber(schema["maxItems"]); ok {
		out.MaxItems = genai.Ptr(int64(n))
	}
	if n, ok := schemaNumber(schema["minimum"]); ok {
		out.Minimum = genai.Ptr(n)
	}
	if n, ok := schemaNumber(schema["maximum"]); ok {
		out.Maximum = genai.Ptr(n)
	}

	return out
}

func geminiType(name string) genai.Type {
	switch name {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func schemaNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
