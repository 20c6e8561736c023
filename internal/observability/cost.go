package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
)

// Pricing constants
const (
	tokensPerMillion    = 1_000_000.0
	costFormatPrecision = 6

	// Gemini 2.5 Flash pricing
	geminiFlashInputPrice  = 0.30
	geminiFlashOutputPrice = 2.50

	// Gemini 2.5 Pro pricing
	geminiProInputPrice  = 1.25
	geminiProOutputPrice = 10.00

	// Image models bill output tokens at image rates
	geminiFlashImageInputPrice  = 0.30
	geminiFlashImageOutputPrice = 30.00
	geminiProImageInputPrice    = 2.00
	geminiProImageOutputPrice   = 120.00

	// GPT-5 mini pricing
	gpt5MiniInputPrice  = 0.25
	gpt5MiniOutputPrice = 2.00

	defaultPricingModel = "gemini-2.5-flash"
)

// ModelPricing contains pricing information per 1M tokens
type ModelPricing struct {
	InputPricePer1M  float64 // Price per 1M input tokens in USD
	OutputPricePer1M float64 // Price per 1M output tokens in USD
}

// PricingTable contains pricing for the models this service calls
var PricingTable = map[string]ModelPricing{
	"gemini-2.5-flash": {
		InputPricePer1M:  geminiFlashInputPrice,
		OutputPricePer1M: geminiFlashOutputPrice,
	},
	"gemini-2.5-pro": {
		InputPricePer1M:  geminiProInputPrice,
		OutputPricePer1M: geminiProOutputPrice,
	},
	"gemini-2.5-flash-image": {
		InputPricePer1M:  geminiFlashImageInputPrice,
		OutputPricePer1M: geminiFlashImageOutputPrice,
	},
	"gemini-3-pro-image-preview": {
		InputPricePer1M:  geminiProImageInputPrice,
		OutputPricePer1M: geminiProImageOutputPrice,
	},
	"gpt-5-mini": {
		InputPricePer1M:  gpt5MiniInputPrice,
		OutputPricePer1M: gpt5MiniOutputPrice,
	},
}

// PricingFor returns the pricing for model. Versioned names ("gemini-2.5-flash-001")
// match their base entry; unknown models use Gemini Flash pricing.
func PricingFor(model string) ModelPricing {
	if pricing, ok := PricingTable[model]; ok {
		return pricing
	}

	best := ""
	for name := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return PricingTable[best]
	}
	return PricingTable[defaultPricingModel]
}

// CalculateCost calculates the cost in USD for one remote call
func CalculateCost(model string, usage llm.Usage) float64 {
	pricing := PricingFor(model)

	inputCost := (float64(usage.InputTokens) / tokensPerMillion) * pricing.InputPricePer1M
	outputCost := (float64(usage.OutputTokens) / tokensPerMillion) * pricing.OutputPricePer1M

	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + formatFloat(cost, costFormatPrecision)
}

// formatFloat formats a float with specified precision using strconv
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
