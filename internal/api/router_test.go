package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/prompt"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/services"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/session"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/tier"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	recordErr   error
	recordCalls int
}

func (g *stubGenerator) FetchCharacterRecord(context.Context, string, models.AccessTier) (*models.CharacterRecord, error) {
	g.recordCalls++
	if g.recordErr != nil {
		return nil, g.recordErr
	}
	return &models.CharacterRecord{
		Name:   "Minerva McGonagall",
		House:  models.HouseGryffindor,
		Type:   "Professor",
		HP:     17,
		Rarity: models.RarityRare,
		Abilities: []models.Ability{
			{Name: "Transfiguration", Cost: "2W", Description: "Turns desks into pigs."},
			{Name: "Animagus", Cost: "1W", Description: "Becomes a tabby cat."},
		},
		Stats:             models.StatBlock{Magic: 90, Courage: 85, Intelligence: 95, Cunning: 60, Loyalty: 100},
		VisualDescription: "Stern witch in emerald robes.",
	}, nil
}

func (g *stubGenerator) FetchCharacterImage(context.Context, string, models.AccessTier, models.ImageOptions) models.ImageResult {
	return models.PlaceholderImage()
}

type stubSelector struct {
	err error
}

func (s stubSelector) HasElevatedAccess(context.Context) (bool, error) { return false, nil }
func (s stubSelector) RequestElevatedAccess(context.Context) error     { return s.err }

type testEnv struct {
	router    *gin.Engine
	gate      *tier.Gate
	generator *stubGenerator
}

func setupTestRouter(t *testing.T, selectorErr error) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	composer, err := prompt.NewComposer()
	require.NoError(t, err)

	gate := tier.NewGate(stubSelector{err: selectorErr})
	generator := &stubGenerator{}
	archive := session.New(generator, composer, gate)
	t.Cleanup(archive.Close)

	cfg := &config.Config{
		GeminiAPIKey:       "shared-key",
		TextProvider:       config.TextProviderGemini,
		StandardTextModel:  config.DefaultStandardTextModel,
		StandardImageModel: config.DefaultStandardImageModel,
		ElevatedTextModel:  config.DefaultElevatedTextModel,
		ElevatedImageModel: config.DefaultElevatedImageModel,
	}

	router := SetupRouter(Dependencies{
		Config:  cfg,
		Gate:    gate,
		Session: archive,
		Prompts: composer,
	}, "test")
	return &testEnv{router: router, gate: gate, generator: generator}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetrics(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	archive := body["archive"].(map[string]any)
	assert.Equal(t, "idle", archive["phase"])
	assert.NotEmpty(t, archive["session_id"])
}

func TestTierRoutes(t *testing.T) {
	t.Run("starts unresolved", func(t *testing.T) {
		env := setupTestRouter(t, nil)
		w := env.do(t, http.MethodGet, "/api/v1/tier", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"resolved":false}`, w.Body.String())
	})

	t.Run("select standard then reset", func(t *testing.T) {
		env := setupTestRouter(t, nil)
		w := env.do(t, http.MethodPost, "/api/v1/tier", map[string]string{"tier": "standard"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"resolved":true,"tier":"standard"}`, w.Body.String())

		w = env.do(t, http.MethodDelete, "/api/v1/tier", nil)
		assert.JSONEq(t, `{"resolved":false}`, w.Body.String())
	})

	t.Run("elevated selection failure is silent", func(t *testing.T) {
		env := setupTestRouter(t, errors.New("dialog dismissed"))
		w := env.do(t, http.MethodPost, "/api/v1/tier", map[string]string{"tier": "elevated"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"resolved":false}`, w.Body.String())
	})

	t.Run("failed upgrade keeps standard", func(t *testing.T) {
		env := setupTestRouter(t, errors.New("dialog dismissed"))
		env.do(t, http.MethodPost, "/api/v1/tier", map[string]string{"tier": "standard"})

		w := env.do(t, http.MethodPost, "/api/v1/tier", map[string]string{"tier": "elevated"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"resolved":true,"tier":"standard"}`, w.Body.String())
	})

	t.Run("unknown tier", func(t *testing.T) {
		env := setupTestRouter(t, nil)
		w := env.do(t, http.MethodPost, "/api/v1/tier", map[string]string{"tier": "headmaster"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateGeneration_RequiresTier(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/generations?wait=true", map[string]string{"prompt": "Minerva McGonagall"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, env.generator.recordCalls)
}

func TestCreateGeneration_BadRequest(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.gate.SelectStandard()

	w := env.do(t, http.MethodPost, "/api/v1/generations", map[string]string{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/generations", map[string]string{"prompt": "Fawkes", "style": "Cubism"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.generator.recordCalls)
}

func TestGenerationLifecycle(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.gate.SelectStandard()

	w := env.do(t, http.MethodGet, "/api/v1/generations/current/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/generations?wait=true", map[string]string{
		"prompt":       "Minerva McGonagall",
		"aspect_ratio": "3:4",
	})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, session.PhaseReady, snap.Phase)
	require.NotNil(t, snap.Record)
	assert.Equal(t, "Minerva McGonagall", snap.Record.Name)
	assert.Equal(t, models.AspectPortrait, snap.Options.AspectRatio)
	assert.Equal(t, "data:image/gif;base64,"+models.PlaceholderGIFBase64, snap.ImageDataURL)

	w = env.do(t, http.MethodGet, "/api/v1/generations/current", nil)
	assert.Equal(t, session.PhaseReady, decodeSnapshot(t, w).Phase)

	w = env.do(t, http.MethodGet, "/api/v1/generations/current/image", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))

	w = env.do(t, http.MethodGet, "/api/v1/generations/current/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Minerva_McGonagall_Ministry_Record.png`, w.Header().Get("Content-Disposition"))
	_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	assert.NoError(t, err)
}

func TestGenerationFailureBanner(t *testing.T) {
	env := setupTestRouter(t, nil)
	env.gate.SelectStandard()
	env.generator.recordErr = services.NewRecordGenerationError(llm.ErrRateLimited)

	w := env.do(t, http.MethodPost, "/api/v1/generations?wait=true", map[string]string{"prompt": "Dementor"})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, session.PhaseFailed, snap.Phase)
	require.NotNil(t, snap.Error)
	assert.Equal(t, services.MessageRateLimited, snap.Error.Message)

	w = env.do(t, http.MethodGet, "/api/v1/generations/current/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/generations/current/error", nil)
	snap = decodeSnapshot(t, w)
	assert.Nil(t, snap.Error)
	assert.Equal(t, session.PhaseIdle, snap.Phase)
}

func TestRandomPrompt(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/prompts/random", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["prompt"])

	w = env.do(t, http.MethodGet, "/api/v1/prompts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list["prompts"], 12)
	assert.Contains(t, list["prompts"], body["prompt"])
}
