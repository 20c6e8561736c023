package models

import "fmt"

// AccessTier selects which remote model variant serves a generation
type AccessTier string

// Access tiers
const (
	TierStandard AccessTier = "standard" // Shared key, flash-class models
	TierElevated AccessTier = "elevated" // User-selected key, pro-class models
)

// ParseAccessTier converts a raw tier name into an AccessTier
func ParseAccessTier(raw string) (AccessTier, error) {
	switch AccessTier(raw) {
	case TierStandard:
		return TierStandard, nil
	case TierElevated:
		return TierElevated, nil
	default:
		return "", fmt.Errorf("unknown access tier %q (allowed: standard, elevated)", raw)
	}
}

// String implements fmt.Stringer
func (t AccessTier) String() string {
	return string(t)
}
