package llm

import (
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
)

const (
	characterSchemaName        = "character_record"
	characterSchemaDescription = "Ministry of Magic personnel file for one wizarding world character"
)

// CharacterRequiredFields lists the record fields that must be present.
// Any new optional lore field is added to CharacterRecordSchema only.
var CharacterRequiredFields = []string{"name", "house", "type", "hp", "rarity", "abilities", "stats"}

// CharacterRecordOutputSchema wraps the character schema for a structured generation request
func CharacterRecordOutputSchema() *OutputSchema {
	return &OutputSchema{
		Name:        characterSchemaName,
		Description: characterSchemaDescription,
		Schema:      CharacterRecordSchema(),
	}
}

// CharacterRecordSchema returns the JSON schema for a character record.
// It is sent to the remote model as a response-shape constraint and is also
// the contract the record parser validates against. A fresh map is returned on
// every call so callers may not mutate the shared definition.
func CharacterRecordSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": stringProp(""),
			"house": map[string]any{
				"type": "string",
				"enum": enumValues(models.Houses),
			},
			"type":    stringProp("Card Class, e.g., 'Legendary Wizard', 'Creature', 'Artifact'"),
			"subType": stringProp("Species or role, e.g., 'Human Student', 'Goblin', 'Dragon'"),
			"hp": map[string]any{
				"type":        "integer",
				"description": "Hit points/Defense, between 1 and 20",
			},
			"rarity": map[string]any{
				"type": "string",
				"enum": enumValues(models.Rarities),
			},
			"abilities": map[string]any{
				"type":        "array",
				"description": "Standard abilities (2, or 3 for elevated files). The signature spell is separate.",
				"minItems":    models.MinAbilities,
				"maxItems":    models.MaxAbilities,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": stringProp(""),
						//nolint:lll // Documentation string
						"cost":        stringProp("Mana cost string. Use numbers for generic cost and letters for specific sources: 'R' (Gryffindor/Red), 'S' (Slytherin/Green), 'B' (Ravenclaw/Blue), 'H' (Hufflepuff/Yellow), 'D' (Dark Arts/Black), 'W' (Light/White). Example: '2RR' or '1SD'."),
						"description": stringProp("Very short description (max 20 words)."),
					},
					"required": []string{"name", "cost", "description"},
				},
			},
			"signatureSpell": stringProp("The character's most famous or frequent spell. e.g. 'Expelliarmus' for Harry."),
			"flavorText":     stringProp("Short poetic flavor text, max 1 sentence."),
			"stats": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"magic":        statProp(),
					"courage":      statProp(),
					"intelligence": statProp(),
					"cunning":      statProp(),
					"loyalty":      statProp(),
				},
				"required": []string{"magic", "courage", "intelligence", "cunning", "loyalty"},
			},
			"wand": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"wood":        stringProp("e.g. Holly, Yew, Vine"),
					"core":        stringProp("e.g. Phoenix Feather, Dragon Heartstring"),
					"length":      stringProp("e.g. 11 inches"),
					"flexibility": stringProp("e.g. Supple, Unyielding, Whippy"),
				},
				"required": []string{"wood", "core", "length", "flexibility"},
			},
			"patronus": stringProp("Corporeal patronus form, e.g. Stag, Otter. If Dark Wizard, put 'None' or 'Maggots'."),
			"boggart":  stringProp("Greatest fear form."),
			"bloodStatus": map[string]any{
				"type": "string",
				"enum": enumValues(models.BloodStatuses),
			},
			"bestSubject": stringProp("Best Hogwarts subject, e.g. Potions, Charms, Transfiguration."),
			"titles": stringList("Honorifics or roles, e.g. 'Prefect', 'Head Boy', 'Auror', 'Death Eater'. Max 3."),
			"animagus": map[string]any{
				"type":        []any{"string", "null"},
				"description": "Animal form if applicable, else null. Include distinctive markings. e.g. 'Black Dog', 'Beetle with glasses markings'.",
			},
			"familiar":       stringProp("Animal companion name and species. e.g. 'Hedwig (Snowy Owl)', 'Crookshanks (Kneazle)'."),
			"mirrorOfErised": stringProp("What they see in the Mirror of Erised (Deepest Desires)."),
			"amortentia":     stringList("3 specific smells they love (Amortentia potion). e.g. 'Freshly mown grass', 'New parchment'."),
			"dangerLevel": map[string]any{
				"type":        "integer",
				"description": "Ministry threat assessment level 1-10. 1 is harmless, 10 is Voldemort level threat.",
				"minimum":     models.DangerLevelMin,
				"maximum":     models.DangerLevelMax,
			},
			"affiliations": stringList("Organizations they belong to. e.g. 'Order of the Phoenix', 'Slug Club', 'Dumbledore's Army', 'Death Eaters'."),
			"biography":    stringProp("A 3-4 sentence backstory or biography."),
			"strengths":    stringList("List of 3 key personality or magical strengths."),
			"weaknesses":   stringList("List of 1-2 key weaknesses or flaws."),
			"equipment":    stringList("List of 1-3 notable items carried (e.g., Invisibility Cloak, Remembrall)."),
			//nolint:lll // Documentation string
			"visualDescription": stringProp("A comprehensive art prompt. If the character is a known canon figure (e.g. Harry Potter, Snape, Hermione), you MUST describe their specific physical traits (face, hair, scars) exactly as they appear in the movies/books to ensure a recognizable likeness. Describe attire, dynamic pose, and detailed environment/lighting. Style: Fantasy oil painting."),
		},
		"required": append([]string(nil), CharacterRequiredFields...),
	}
}

func stringProp(description string) map[string]any {
	prop := map[string]any{"type": "string"}
	if description != "" {
		prop["description"] = description
	}
	return prop
}

func statProp() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "0-100",
		"minimum":     models.StatMin,
		"maximum":     models.StatMax,
	}
}

func stringList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
