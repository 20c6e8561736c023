package services

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
)

// ErrSchemaValidation marks a record that does not satisfy the character schema
var ErrSchemaValidation = errors.New("record failed schema validation")

// RecordErrorKind classifies a failed record generation
type RecordErrorKind string

const (
	RecordErrorRateLimited RecordErrorKind = "rate_limited"
	RecordErrorOther       RecordErrorKind = "other"
)

// User-facing banner text per kind
const (
	MessageRateLimited = "The Ministry's owls are overwhelmed (too many requests). Please wait a moment and try again."
	MessageOther       = "The spell backfired! Please try again."
)

// RecordGenerationError is the only error FetchCharacterRecord returns
type RecordGenerationError struct {
	Kind  RecordErrorKind
	Cause error
}

// NewRecordGenerationError classifies cause. Schema failures are never rate limits,
// whatever text the model put in the offending field.
func NewRecordGenerationError(cause error) *RecordGenerationError {
	kind := RecordErrorOther
	if !errors.Is(cause, ErrSchemaValidation) && llm.IsRateLimited(cause) {
		kind = RecordErrorRateLimited
	}
	return &RecordGenerationError{Kind: kind, Cause: cause}
}

func (e *RecordGenerationError) Error() string {
	return fmt.Sprintf("record generation failed (%s): %v", e.Kind, e.Cause)
}

func (e *RecordGenerationError) Unwrap() error {
	return e.Cause
}

// Message returns the banner text shown to the user
func (e *RecordGenerationError) Message() string {
	if e.Kind == RecordErrorRateLimited {
		return MessageRateLimited
	}
	return MessageOther
}

// IsRateLimited reports whether the failure was a quota rejection
func (e *RecordGenerationError) IsRateLimited() bool {
	return e.Kind == RecordErrorRateLimited
}
