package tier

import (
	"context"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSelector is a scripted CredentialSelector
type stubSelector struct {
	has        bool
	hasErr     error
	requestErr error
	requests   int
}

func (s *stubSelector) HasElevatedAccess(context.Context) (bool, error) {
	return s.has, s.hasErr
}

func (s *stubSelector) RequestElevatedAccess(context.Context) error {
	s.requests++
	return s.requestErr
}

func TestGateStartsUnresolved(t *testing.T) {
	gate := NewGate(&stubSelector{})

	assert.Equal(t, State{}, gate.State())
	_, ok := gate.Tier()
	assert.False(t, ok)
}

func TestGateSelectStandard(t *testing.T) {
	selector := &stubSelector{}
	gate := NewGate(selector)

	state := gate.SelectStandard()
	assert.Equal(t, State{Resolved: true, Tier: models.TierStandard}, state)
	assert.Zero(t, selector.requests, "standard tier needs no credential selection")

	tier, ok := gate.Tier()
	assert.True(t, ok)
	assert.Equal(t, models.TierStandard, tier)
}

func TestGateSelectElevated(t *testing.T) {
	tests := []struct {
		name       string
		requestErr error
		want       State
	}{
		{name: "success", want: State{Resolved: true, Tier: models.TierElevated}},
		{name: "cancelled", requestErr: context.Canceled, want: State{}},
		{name: "failed", requestErr: errors.New("user closed the dialog"), want: State{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := &stubSelector{requestErr: tt.requestErr}
			gate := NewGate(selector)

			assert.Equal(t, tt.want, gate.SelectElevated(context.Background()))
			assert.Equal(t, tt.want, gate.State())
			assert.Equal(t, 1, selector.requests)
		})
	}
}

func TestGateFailedElevatedKeepsPriorTier(t *testing.T) {
	gate := NewGate(&stubSelector{requestErr: errors.New("nope")})
	gate.SelectStandard()

	state := gate.SelectElevated(context.Background())
	assert.Equal(t, State{Resolved: true, Tier: models.TierStandard}, state)
}

func TestGateUpgradeFromStandard(t *testing.T) {
	gate := NewGate(&stubSelector{})
	gate.SelectStandard()

	state := gate.SelectElevated(context.Background())
	assert.Equal(t, State{Resolved: true, Tier: models.TierElevated}, state)

	tier, ok := gate.Tier()
	assert.True(t, ok)
	assert.Equal(t, models.TierElevated, tier)
}

func TestGateWithoutSelector(t *testing.T) {
	gate := NewGate(nil)
	assert.Equal(t, State{}, gate.SelectElevated(context.Background()))
	assert.Equal(t, State{}, gate.Restore(context.Background()))
}

func TestGateRestore(t *testing.T) {
	tests := []struct {
		name     string
		selector *stubSelector
		want     State
	}{
		{name: "existing selection", selector: &stubSelector{has: true}, want: State{Resolved: true, Tier: models.TierElevated}},
		{name: "no selection", selector: &stubSelector{}, want: State{}},
		{name: "selector error", selector: &stubSelector{has: true, hasErr: errors.New("boom")}, want: State{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.selector)
			assert.Equal(t, tt.want, gate.Restore(context.Background()))
		})
	}
}

func TestGateReset(t *testing.T) {
	gate := NewGate(&stubSelector{})
	gate.SelectStandard()

	assert.Equal(t, State{}, gate.Reset())
	_, ok := gate.Tier()
	assert.False(t, ok)
}

type stubVerifier struct {
	err    error
	models []string
}

func (v *stubVerifier) VerifyAccess(_ context.Context, model string) error {
	v.models = append(v.models, model)
	return v.err
}

type stubVerifierSource struct {
	verifier *stubVerifier
	keys     []string
}

func (s *stubVerifierSource) Verifier(_ context.Context, apiKey string) (llm.KeyVerifier, error) {
	s.keys = append(s.keys, apiKey)
	return s.verifier, nil
}

func TestConfiguredKeySelector(t *testing.T) {
	ctx := context.Background()

	t.Run("no key", func(t *testing.T) {
		selector := NewConfiguredKeySelector("", "pro-image", nil)
		has, err := selector.HasElevatedAccess(ctx)
		require.NoError(t, err)
		assert.False(t, has)
		assert.ErrorIs(t, selector.RequestElevatedAccess(ctx), ErrNoElevatedKey)
	})

	t.Run("key without verification", func(t *testing.T) {
		selector := NewConfiguredKeySelector("secret", "pro-image", nil)
		has, err := selector.HasElevatedAccess(ctx)
		require.NoError(t, err)
		assert.True(t, has)
		assert.NoError(t, selector.RequestElevatedAccess(ctx))
	})

	t.Run("verified key", func(t *testing.T) {
		source := &stubVerifierSource{verifier: &stubVerifier{}}
		selector := NewConfiguredKeySelector("secret", "pro-image", source)

		has, _ := selector.HasElevatedAccess(ctx)
		assert.False(t, has, "not granted before verification")

		require.NoError(t, selector.RequestElevatedAccess(ctx))
		has, _ = selector.HasElevatedAccess(ctx)
		assert.True(t, has)
		assert.Equal(t, []string{"secret"}, source.keys)
		assert.Equal(t, []string{"pro-image"}, source.verifier.models)
	})

	t.Run("rejected key leaves gate unresolved", func(t *testing.T) {
		source := &stubVerifierSource{verifier: &stubVerifier{err: errors.New("403 PERMISSION_DENIED")}}
		gate := NewGate(NewConfiguredKeySelector("secret", "pro-image", source))

		assert.Equal(t, State{}, gate.SelectElevated(ctx))
	})
}
