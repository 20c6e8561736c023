package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/tier"
	"github.com/gin-gonic/gin"
)

type TierHandler struct {
	gate *tier.Gate
}

func NewTierHandler(gate *tier.Gate) *TierHandler {
	return &TierHandler{gate: gate}
}

type SelectTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// GetTier returns the gate state
func (h *TierHandler) GetTier(c *gin.Context) {
	c.JSON(http.StatusOK, h.gate.State())
}

// SelectTier resolves the gate. A failed elevated selection is not an error:
// the response simply reports the gate as still unresolved.
func (h *TierHandler) SelectTier(c *gin.Context) {
	var req SelectTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessTier, err := models.ParseAccessTier(req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var state tier.State
	if accessTier == models.TierElevated {
		state = h.gate.SelectElevated(c.Request.Context())
	} else {
		state = h.gate.SelectStandard()
	}
	c.JSON(http.StatusOK, state)
}

// ResetTier returns the gate to unresolved
func (h *TierHandler) ResetTier(c *gin.Context) {
	c.JSON(http.StatusOK, h.gate.Reset())
}
