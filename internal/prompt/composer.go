package prompt

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
)

const (
	recordHeader = "Create a detailed Ministry of Magic Personnel File for a Harry Potter universe character based on: \"%s\"."

	standardAbilityRule = "IMPORTANT: Generate exactly 2 standard abilities + 1 Signature Spell."
	elevatedAbilityRule = "IMPORTANT: Generate 2 or 3 standard abilities + 1 Signature Spell. Favour deeper, less obvious lore."

	subjectTemplate  = "Subject: %s. Portray the character with accurate features described in the books and movies."
	anonymousSubject = "Subject: A wizarding world character."
	fallbackTemplate = "Portrait of %s, %s-style fantasy art."

	unknownName  = "an unnamed witch or wizard"
	unknownHouse = "Hogwarts"
)

// styleLeads opens the image prompt for each style preset
var styleLeads = map[models.ImageStyle]string{
	models.StyleFantasyOil:  "High quality fantasy oil painting, Magic The Gathering style.",
	models.StyleCinematic:   "Cinematic photorealistic film still, shallow depth of field.",
	models.StyleVintageBook: "Vintage book illustration, ink and wash on aged paper.",
	models.StyleWatercolor:  "Soft watercolor art with loose, luminous brushwork.",
	models.StyleDarkFantasy: "Dark fantasy painting, moody shadows and gothic atmosphere.",
	models.StyleAnime:       "Anime style illustration, clean line art and vivid colour.",
	models.StyleRender3D:    "Detailed 3D render with physically based materials.",
}

// Composer turns user input and generated records into model instructions.
// It is stateless after construction; every method is deterministic except RandomPrompt.
type Composer struct {
	systemPrompt    string
	rules           []string
	imageDirectives string
	randomPrompts   []string
}

// NewComposer loads the embedded prompt assets
func NewComposer() (*Composer, error) {
	loader := NewPromptLoader()

	systemPrompt, err := loader.GetSystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}
	rules, err := loader.GetRecordRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load record rules: %w", err)
	}
	directives, err := loader.GetImageDirectives()
	if err != nil {
		return nil, fmt.Errorf("failed to load image directives: %w", err)
	}
	randomPrompts, err := loader.GetRandomPrompts()
	if err != nil {
		return nil, fmt.Errorf("failed to load random prompts: %w", err)
	}

	return &Composer{
		systemPrompt:    systemPrompt,
		rules:           rules,
		imageDirectives: directives,
		randomPrompts:   randomPrompts,
	}, nil
}

// SystemPrompt returns the role instruction for record generation
func (c *Composer) SystemPrompt() string {
	return c.systemPrompt
}

// ComposeRecordPrompt embeds the raw user input, untruncated, after the fixed rule preamble
func (c *Composer) ComposeRecordPrompt(userInput string, tier models.AccessTier) string {
	var b strings.Builder
	fmt.Fprintf(&b, recordHeader, userInput)
	b.WriteString("\n\nRules:\n")

	rules := append(append([]string(nil), c.rules...), abilityRule(tier))
	for i, rule := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	return strings.TrimRight(b.String(), "\n")
}

func abilityRule(tier models.AccessTier) string {
	if tier == models.TierElevated {
		return elevatedAbilityRule
	}
	return standardAbilityRule
}

// ComposeImagePrompt builds the portrait instruction for record.
// A record without a visual description (or no record at all) still yields a usable prompt.
func (c *Composer) ComposeImagePrompt(record *models.CharacterRecord, opts models.ImageOptions) string {
	lead, ok := styleLeads[opts.Style]
	if !ok {
		lead = styleLeads[models.DefaultImageStyle]
	}
	ratio := opts.AspectRatio
	if ratio == "" {
		ratio = models.DefaultAspectRatio
	}

	subject := anonymousSubject
	name := ""
	if record != nil {
		name = strings.TrimSpace(record.Name)
	}
	if name != "" {
		subject = fmt.Sprintf(subjectTemplate, name)
	}

	var visual string
	if record != nil && strings.TrimSpace(record.VisualDescription) != "" {
		visual = record.VisualDescription
	} else {
		visual = fallbackVisual(record)
	}

	var b strings.Builder
	b.WriteString(lead)
	b.WriteString("\n")
	b.WriteString(subject)
	b.WriteString("\nVisual Context: ")
	b.WriteString(visual)
	b.WriteString("\n\n")
	b.WriteString(c.imageDirectives)
	fmt.Fprintf(&b, " Aspect ratio %s.", ratio)
	return b.String()
}

func fallbackVisual(record *models.CharacterRecord) string {
	name, house := unknownName, unknownHouse
	if record != nil {
		if n := strings.TrimSpace(record.Name); n != "" {
			name = n
		}
		if h := strings.TrimSpace(string(record.House)); h != "" {
			house = h
		}
	}
	return fmt.Sprintf(fallbackTemplate, name, house)
}

// RandomPrompts returns a copy of the example prompts
func (c *Composer) RandomPrompts() []string {
	return append([]string(nil), c.randomPrompts...)
}

// RandomPrompt picks one example prompt
func (c *Composer) RandomPrompt() string {
	if len(c.randomPrompts) == 0 {
		return ""
	}
	return c.randomPrompts[rand.IntN(len(c.randomPrompts))]
}
