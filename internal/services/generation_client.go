package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/logger"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/observability"
	"golang.org/x/time/rate"
)

// ProviderSource resolves providers for a tier profile
type ProviderSource interface {
	TextProvider(ctx context.Context, providerName, geminiAPIKey string) (llm.Provider, error)
	ImageProvider(ctx context.Context, geminiAPIKey string) (llm.ImageProvider, error)
}

// ProfileSource maps an access tier to its model profile
type ProfileSource interface {
	Profile(tier models.AccessTier) config.TierProfile
}

// MetricsRecorder receives per-call generation metrics
type MetricsRecorder interface {
	RecordTokenUsage(ctx context.Context, stage, model string, usage llm.Usage)
	RecordGenerationDuration(ctx context.Context, stage string, duration time.Duration, success bool)
	RecordImageFallback(ctx context.Context, reason string)
}

// GenerationClient performs the two remote calls of a character generation.
// Record failures are classified into RecordGenerationError; image failures
// always resolve to the placeholder image.
type GenerationClient struct {
	providers    ProviderSource
	profiles     ProfileSource
	parser       *RecordParser
	systemPrompt string
	timeout      time.Duration
	limiters     map[models.AccessTier]*rate.Limiter
	tracer       *observability.LangfuseClient
	metrics      MetricsRecorder
}

// GenerationClientOptions holds the optional collaborators of a GenerationClient
type GenerationClientOptions struct {
	SystemPrompt string
	Timeout      time.Duration
	Tracer       *observability.LangfuseClient
	Metrics      MetricsRecorder
}

// NewGenerationClient creates a client that paces each tier at its profile's requests per minute
func NewGenerationClient(providers ProviderSource, profiles ProfileSource, opts GenerationClientOptions) *GenerationClient {
	limiters := make(map[models.AccessTier]*rate.Limiter, 2)
	for _, tier := range []models.AccessTier{models.TierStandard, models.TierElevated} {
		limiters[tier] = newTierLimiter(profiles.Profile(tier).RequestsPerMinute)
	}

	return &GenerationClient{
		providers:    providers,
		profiles:     profiles,
		parser:       NewRecordParser(),
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
		limiters:     limiters,
		tracer:       opts.Tracer,
		metrics:      opts.Metrics,
	}
}

func newTierLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// FetchCharacterRecord runs the structured text call and validates its output.
// Every failure is returned as *RecordGenerationError.
func (c *GenerationClient) FetchCharacterRecord(
	ctx context.Context, prompt string, tier models.AccessTier,
) (*models.CharacterRecord, error) {
	profile := c.profiles.Profile(tier)
	start := time.Now()

	trace := c.tracer.StartTrace(ctx, "character_record", map[string]interface{}{"tier": string(tier)})
	defer trace.Finish()
	generation := trace.Generation(string(StageRecord), nil)
	defer generation.Finish()

	record, usage, raw, err := c.fetchRecord(ctx, prompt, profile)
	duration := time.Since(start)
	success := err == nil

	generation.LogCall(profile.TextModel, prompt, raw, usage, map[string]interface{}{"tier": string(tier)})
	c.recordMetrics(ctx, StageRecord, profile.TextModel, usage, duration, success)
	logger.LogGenerationRequest(ctx, string(StageRecord), profile.TextModel, duration, success, logger.Fields{
		"tier":         string(tier),
		"total_tokens": usage.TotalTokens,
	})

	if err != nil {
		generation.Fail(err)
		genErr := NewRecordGenerationError(err)
		fields := logger.Fields{"tier": string(tier), "model": profile.TextModel, "stage": string(StageRecord), "kind": string(genErr.Kind)}
		if errors.Is(err, ErrSchemaValidation) && raw != "" {
			fields["raw_output"] = compactJSON(raw)
		}
		logger.Error("Character record generation failed", err, fields)
		return nil, genErr
	}

	logger.Info("Character record generated", logger.Fields{
		"tier":      string(tier),
		"character": record.Name,
		"house":     string(record.House),
	})
	return record, nil
}

func (c *GenerationClient) fetchRecord(
	ctx context.Context, prompt string, profile config.TierProfile,
) (*models.CharacterRecord, llm.Usage, string, error) {
	if err := c.allow(profile.Tier); err != nil {
		return nil, llm.Usage{}, "", err
	}

	provider, err := c.providers.TextProvider(ctx, profile.TextProvider, profile.APIKey)
	if err != nil {
		return nil, llm.Usage{}, "", fmt.Errorf("failed to resolve text provider: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	request := RecordParameters(profile)
	request.SystemPrompt = c.systemPrompt
	request.Prompt = prompt

	resp, err := provider.Generate(ctx, request)
	if err != nil {
		return nil, llm.Usage{}, "", err
	}
	if resp == nil || resp.RawOutput == "" {
		return nil, llm.Usage{}, "", llm.ErrEmptyResponse
	}

	record, err := c.parser.Parse(resp.RawOutput)
	if err != nil {
		return nil, resp.Usage, resp.RawOutput, err
	}
	return record, resp.Usage, resp.RawOutput, nil
}

// FetchCharacterImage runs the image call. It never fails: any error yields the placeholder.
func (c *GenerationClient) FetchCharacterImage(
	ctx context.Context, prompt string, tier models.AccessTier, opts models.ImageOptions,
) models.ImageResult {
	profile := c.profiles.Profile(tier)
	start := time.Now()

	trace := c.tracer.StartTrace(ctx, "character_image", map[string]interface{}{"tier": string(tier)})
	defer trace.Finish()
	generation := trace.Generation(string(StageImage), nil)
	defer generation.Finish()

	resp, err := c.fetchImage(ctx, prompt, profile, opts)
	duration := time.Since(start)
	success := err == nil

	var usage llm.Usage
	output := ""
	if resp != nil {
		usage = resp.Usage
		output = fmt.Sprintf("[%s, %d bytes]", resp.MIMEType, len(resp.Data))
	}
	generation.LogCall(profile.ImageModel, prompt, output, usage, map[string]interface{}{
		"tier":         string(tier),
		"aspect_ratio": string(opts.AspectRatio),
		"style":        string(opts.Style),
	})
	c.recordMetrics(ctx, StageImage, profile.ImageModel, usage, duration, success)
	logger.LogGenerationRequest(ctx, string(StageImage), profile.ImageModel, duration, success, logger.Fields{
		"tier": string(tier),
	})

	if err != nil {
		generation.Fail(err)
		reason := imageFailureReason(err)
		if c.metrics != nil {
			c.metrics.RecordImageFallback(ctx, reason)
		}
		logger.Warn("Portrait generation failed, using placeholder", logger.Fields{
			"tier":   string(tier),
			"model":  profile.ImageModel,
			"reason": reason,
			"error":  err.Error(),
		})
		return models.PlaceholderImage()
	}

	return models.ImageResult{
		MIMEType: resp.MIMEType,
		Data:     resp.Data,
	}
}

func (c *GenerationClient) fetchImage(
	ctx context.Context, prompt string, profile config.TierProfile, opts models.ImageOptions,
) (*llm.ImageResponse, error) {
	if err := c.allow(profile.Tier); err != nil {
		return nil, err
	}

	provider, err := c.providers.ImageProvider(ctx, profile.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve image provider: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	request := ImageParameters(profile, opts)
	request.Prompt = prompt

	resp, err := provider.GenerateImage(ctx, request)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil, llm.ErrNoImageData
	}
	if resp.MIMEType == "" {
		resp.MIMEType = "image/png"
	}
	return resp, nil
}

// allow applies the tier's client-side pacing
func (c *GenerationClient) allow(tier models.AccessTier) error {
	limiter, ok := c.limiters[tier]
	if !ok || limiter.Allow() {
		return nil
	}
	return fmt.Errorf("%s tier request budget exhausted: %w", tier, llm.ErrRateLimited)
}

func (c *GenerationClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GenerationClient) recordMetrics(
	ctx context.Context, stage GenerationStage, model string, usage llm.Usage, duration time.Duration, success bool,
) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordGenerationDuration(ctx, string(stage), duration, success)
	if usage.TotalTokens > 0 {
		c.metrics.RecordTokenUsage(ctx, string(stage), model, usage)
	}
}

func imageFailureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrContentFiltered):
		return "content_filtered"
	case errors.Is(err, llm.ErrNoImageData):
		return "no_image_data"
	case llm.IsRateLimited(err):
		return "rate_limited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "transport"
	}
}
