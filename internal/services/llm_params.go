package services

import (
	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
)

// GenerationStage represents which remote call of a generation we're in
type GenerationStage string

const (
	StageRecord GenerationStage = "record"
	StageImage  GenerationStage = "image"
)

// Sampling temperature per tier. The elevated tier runs a stronger model and
// can afford more inventive lore.
const (
	standardTemperature = 0.8
	elevatedTemperature = 1.0
)

// RecordParameters returns the text generation request skeleton for a tier profile.
// Prompt and SystemPrompt are filled by the caller.
func RecordParameters(profile config.TierProfile) *llm.GenerationRequest {
	temperature := float32(standardTemperature)
	if profile.Tier == models.TierElevated {
		temperature = elevatedTemperature
	}

	return &llm.GenerationRequest{
		Model:        profile.TextModel,
		Temperature:  &temperature,
		OutputSchema: llm.CharacterRecordOutputSchema(),
	}
}

// ImageParameters returns the image request skeleton for a tier profile
func ImageParameters(profile config.TierProfile, opts models.ImageOptions) *llm.ImageRequest {
	ratio := opts.AspectRatio
	if ratio == "" {
		ratio = models.DefaultAspectRatio
	}
	return &llm.ImageRequest{
		Model:       profile.ImageModel,
		AspectRatio: string(ratio),
	}
}
