package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/logger"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/google/jsonschema-go/jsonschema"
)

// RecordParser turns raw model output into a validated CharacterRecord
type RecordParser struct {
	schema *jsonschema.Resolved
}

// NewRecordParser creates a parser bound to the character record schema.
// It panics if the built-in schema does not compile.
func NewRecordParser() *RecordParser {
	resolved, err := compileRecordSchema(llm.CharacterRecordSchema())
	if err != nil {
		panic(fmt.Sprintf("character record schema: %v", err))
	}
	return &RecordParser{schema: resolved}
}

// compileRecordSchema resolves the schema document for validation. Numeric bounds are
// removed first: out-of-range stats and dangerLevel are clamped, not rejected.
func compileRecordSchema(document map[string]any) (*jsonschema.Resolved, error) {
	stripBounds(document)

	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	return schema.Resolve(nil)
}

func stripBounds(node any) {
	switch v := node.(type) {
	case map[string]any:
		delete(v, "minimum")
		delete(v, "maximum")
		for _, child := range v {
			stripBounds(child)
		}
	case []any:
		for _, child := range v {
			stripBounds(child)
		}
	}
}

// Parse decodes raw, validates it against the schema and clamps bounded integers.
// Bounds (stats, dangerLevel) are not validation failures; out-of-range values are
// clamped and logged. Everything else the schema declares is enforced.
func (p *RecordParser) Parse(raw string) (*models.CharacterRecord, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty output", ErrSchemaValidation)
	}

	decoder := json.NewDecoder(strings.NewReader(cleaned))

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrSchemaValidation, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrSchemaValidation)
	}

	if err := p.schema.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	var record models.CharacterRecord
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := checkEnums(&record); err != nil {
		return nil, err
	}

	clampRecord(&record)
	return &record, nil
}

// stripCodeFence removes a surrounding ```json fence some models add
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// checkEnums re-checks the enumerated fields on the typed record, so a schema
// that drifts from the model constants cannot let an unknown value through.
func checkEnums(record *models.CharacterRecord) error {
	switch {
	case !models.IsValidHouse(record.House):
		return fmt.Errorf("%w: unknown house %q", ErrSchemaValidation, record.House)
	case !models.IsValidRarity(record.Rarity):
		return fmt.Errorf("%w: unknown rarity %q", ErrSchemaValidation, record.Rarity)
	case record.BloodStatus != "" && !models.IsValidBloodStatus(record.BloodStatus):
		return fmt.Errorf("%w: unknown blood status %q", ErrSchemaValidation, record.BloodStatus)
	}
	return nil
}

// clampRecord pulls stats into [0,100] and dangerLevel into [1,10], logging each change
func clampRecord(record *models.CharacterRecord) {
	stats := []struct {
		name  string
		value *int
	}{
		{"magic", &record.Stats.Magic},
		{"courage", &record.Stats.Courage},
		{"intelligence", &record.Stats.Intelligence},
		{"cunning", &record.Stats.Cunning},
		{"loyalty", &record.Stats.Loyalty},
	}
	for _, s := range stats {
		clampField(record.Name, "stats."+s.name, s.value, models.StatMin, models.StatMax)
	}

	if record.DangerLevel != nil {
		clampField(record.Name, "dangerLevel", record.DangerLevel, models.DangerLevelMin, models.DangerLevelMax)
	}
}

func clampField(character, field string, value *int, lo, hi int) {
	original := *value
	switch {
	case original < lo:
		*value = lo
	case original > hi:
		*value = hi
	default:
		return
	}
	logger.Warn("Clamped out-of-range record value", logger.Fields{
		"character": character,
		"field":     field,
		"original":  original,
		"clamped":   *value,
	})
}

// compactJSON is used when logging raw output
func compactJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(stripCodeFence(raw))); err != nil {
		return raw
	}
	return buf.String()
}
