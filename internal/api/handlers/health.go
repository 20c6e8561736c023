package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthCheck returns liveness plus which remote backends are configured
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	standard := h.cfg.Profile(models.TierStandard)
	elevated := h.cfg.Profile(models.TierElevated)

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"providers": gin.H{
			"text_provider":       standard.TextProvider,
			"gemini_configured":   h.cfg.GeminiAPIKey != "",
			"elevated_configured": h.cfg.ElevatedGeminiAPIKey != "",
			"openai_configured":   h.cfg.OpenAIAPIKey != "",
		},
		"models": gin.H{
			string(models.TierStandard): gin.H{"text": standard.TextModel, "image": standard.ImageModel},
			string(models.TierElevated): gin.H{"text": elevated.TextModel, "image": elevated.ImageModel},
		},
	})
}
