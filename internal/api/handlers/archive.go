package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/export"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/logger"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/session"
	"github.com/gin-gonic/gin"
)

// RandomPrompter supplies example prompts
type RandomPrompter interface {
	RandomPrompt() string
	RandomPrompts() []string
}

type ArchiveHandler struct {
	session *session.Session
	prompts RandomPrompter
}

func NewArchiveHandler(s *session.Session, prompts RandomPrompter) *ArchiveHandler {
	return &ArchiveHandler{session: s, prompts: prompts}
}

type CreateGenerationRequest struct {
	Prompt      string             `json:"prompt"`
	AspectRatio models.AspectRatio `json:"aspect_ratio"`
	Style       models.ImageStyle  `json:"style"`
}

// CreateGeneration submits a prompt. With ?wait=true the response is the settled state,
// otherwise 202 with the pending state.
func (h *ArchiveHandler) CreateGeneration(c *gin.Context) {
	var req CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seq, err := h.session.Submit(c.Request.Context(), req.Prompt, models.ImageOptions{
		AspectRatio: req.AspectRatio,
		Style:       req.Style,
	})
	switch {
	case errors.Is(err, session.ErrTierUnresolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Select an access tier before generating"})
		return
	case errors.Is(err, session.ErrEmptyPrompt), errors.Is(err, session.ErrInvalidOptions):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Error("Failed to submit generation", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit generation"})
		return
	}

	wait, _ := strconv.ParseBool(c.Query(waitQueryParam))
	if !wait {
		c.JSON(http.StatusAccepted, h.session.Snapshot())
		return
	}

	snap, err := h.session.Await(c.Request.Context(), seq)
	if err != nil {
		// Client went away; the generation keeps running
		c.JSON(http.StatusAccepted, snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetCurrent returns the session snapshot
func (h *ArchiveHandler) GetCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// DismissError clears the error banner
func (h *ArchiveHandler) DismissError(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.DismissError())
}

// GetImage serves the raw portrait bytes
func (h *ArchiveHandler) GetImage(c *gin.Context) {
	snap := h.session.Snapshot()
	if snap.Image == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No portrait available", "phase": snap.Phase})
		return
	}
	c.Data(http.StatusOK, snap.Image.MIMEType, snap.Image.Data)
}

// Export renders the current record as a PNG archive file
func (h *ArchiveHandler) Export(c *gin.Context) {
	snap := h.session.Snapshot()
	if snap.Record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No record to export", "phase": snap.Phase})
		return
	}

	var buf bytes.Buffer
	if err := export.RenderPNG(&buf, snap.Record, snap.Image); err != nil {
		logger.Error("Failed to export record", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export record"})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.Filename(snap.Record.Name),
	}))
	c.Data(http.StatusOK, contentTypePNG, buf.Bytes())
}

// RandomPrompt returns one of the example prompts
func (h *ArchiveHandler) RandomPrompt(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompt": h.prompts.RandomPrompt()})
}

// ListPrompts returns every example prompt
func (h *ArchiveHandler) ListPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompts": h.prompts.RandomPrompts()})
}
