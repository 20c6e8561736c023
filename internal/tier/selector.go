package tier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
)

// ErrNoElevatedKey is returned when no elevated credential is configured
var ErrNoElevatedKey = errors.New("no elevated API key configured")

// VerifierSource builds a KeyVerifier for an API key
type VerifierSource interface {
	Verifier(ctx context.Context, apiKey string) (llm.KeyVerifier, error)
}

// ConfiguredKeySelector grants elevated access when an elevated key is configured
// and, optionally, the key can reach the elevated image model.
type ConfiguredKeySelector struct {
	apiKey   string
	model    string
	verifier VerifierSource // nil disables verification

	mu       sync.Mutex
	verified bool
}

// NewConfiguredKeySelector creates a selector for apiKey. When verifier is non-nil the
// key is checked against model before access is granted.
func NewConfiguredKeySelector(apiKey, model string, verifier VerifierSource) *ConfiguredKeySelector {
	return &ConfiguredKeySelector{apiKey: apiKey, model: model, verifier: verifier}
}

// HasElevatedAccess reports whether access was already granted (or needs no verification)
func (s *ConfiguredKeySelector) HasElevatedAccess(_ context.Context) (bool, error) {
	if s.apiKey == "" {
		return false, nil
	}
	if s.verifier == nil {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified, nil
}

// RequestElevatedAccess verifies the configured key
func (s *ConfiguredKeySelector) RequestElevatedAccess(ctx context.Context) error {
	if s.apiKey == "" {
		return ErrNoElevatedKey
	}
	if s.verifier == nil {
		return nil
	}

	verifier, err := s.verifier.Verifier(ctx, s.apiKey)
	if err != nil {
		return fmt.Errorf("failed to create key verifier: %w", err)
	}
	if err := verifier.VerifyAccess(ctx, s.model); err != nil {
		return err
	}

	s.mu.Lock()
	s.verified = true
	s.mu.Unlock()
	return nil
}
