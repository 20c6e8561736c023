package tier

import (
	"context"
	"sync"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/logger"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
)

// CredentialSelector is the external elevated-access interaction.
// RequestElevatedAccess may block on the user and may be cancelled through ctx.
type CredentialSelector interface {
	HasElevatedAccess(ctx context.Context) (bool, error)
	RequestElevatedAccess(ctx context.Context) error
}

// State is an immutable snapshot of the gate
type State struct {
	Resolved bool              `json:"resolved"`
	Tier     models.AccessTier `json:"tier,omitempty"`
}

// Gate must be resolved to a tier before any generation is issued.
// It starts Unresolved; a failed elevated selection leaves it unchanged.
type Gate struct {
	selector CredentialSelector

	mu       sync.RWMutex
	resolved bool
	tier     models.AccessTier
}

// NewGate creates an unresolved gate
func NewGate(selector CredentialSelector) *Gate {
	return &Gate{selector: selector}
}

// State returns the current gate state
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return State{Resolved: g.resolved, Tier: g.tier}
}

// Tier returns the resolved tier, or false while unresolved
func (g *Gate) Tier() (models.AccessTier, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tier, g.resolved
}

// SelectStandard resolves the gate to the standard tier
func (g *Gate) SelectStandard() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolved, g.tier = true, models.TierStandard
	logger.Info("Access tier resolved", logger.Fields{"tier": string(models.TierStandard)})
	return State{Resolved: true, Tier: models.TierStandard}
}

// SelectElevated runs the credential selection and resolves to the elevated tier on success.
// It may be called on a gate already resolved to standard, to upgrade mid-session.
// Failure or cancellation is logged and otherwise invisible: the gate keeps its previous
// state, so a failed upgrade leaves the session on standard.
func (g *Gate) SelectElevated(ctx context.Context) State {
	if g.selector == nil {
		logger.Warn("Elevated access requested but no credential selector is configured", nil)
		return g.State()
	}

	if err := g.selector.RequestElevatedAccess(ctx); err != nil {
		logger.Warn("Elevated access selection did not complete", logger.Fields{"error": err.Error()})
		return g.State()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolved, g.tier = true, models.TierElevated
	logger.Info("Access tier resolved", logger.Fields{"tier": string(models.TierElevated)})
	return State{Resolved: true, Tier: models.TierElevated}
}

// Restore resolves an unresolved gate to elevated when the selector reports an
// existing selection (e.g. a key picked in an earlier run). Errors are ignored.
func (g *Gate) Restore(ctx context.Context) State {
	if g.selector == nil {
		return g.State()
	}

	ok, err := g.selector.HasElevatedAccess(ctx)
	if err != nil || !ok {
		return g.State()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.resolved {
		g.resolved, g.tier = true, models.TierElevated
		logger.Info("Access tier restored", logger.Fields{"tier": string(models.TierElevated)})
	}
	return State{Resolved: g.resolved, Tier: g.tier}
}

// Reset returns the gate to Unresolved so the selection is presented again
func (g *Gate) Reset() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolved, g.tier = false, ""
	return State{}
}
