package session

import (
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/services"
)

// Snapshot is an immutable view of the session state
type Snapshot struct {
	SessionID     string                  `json:"session_id"`
	Phase         Phase                   `json:"phase"`
	Sequence      uint64                  `json:"sequence"`
	Prompt        string                  `json:"prompt,omitempty"`
	Tier          models.AccessTier       `json:"tier,omitempty"`
	Options       models.ImageOptions     `json:"options"`
	Record        *models.CharacterRecord `json:"record,omitempty"`
	Assessment    string                  `json:"danger_assessment,omitempty"`
	Image         *models.ImageResult     `json:"image,omitempty"`
	ImageDataURL  string                  `json:"image_data_url,omitempty"`
	RecordLoading bool                    `json:"record_loading"`
	ImageLoading  bool                    `json:"image_loading"`
	Error         *ErrorBanner            `json:"error,omitempty"`
}

// ErrorBanner is the single user-visible failure message
type ErrorBanner struct {
	Kind    services.RecordErrorKind `json:"kind"`
	Message string                   `json:"message"`
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:     s.id,
		Phase:         s.phase,
		Sequence:      s.seq,
		Prompt:        s.request.UserPrompt,
		Tier:          s.request.Tier,
		Options:       s.request.Image,
		Record:        s.record,
		Image:         s.image,
		RecordLoading: s.recordLoading,
		ImageLoading:  s.imageLoading,
	}
	if s.record != nil {
		snap.Assessment = s.record.DangerAssessment()
	}
	if s.image != nil {
		snap.ImageDataURL = s.image.DataURL()
	}
	if s.failure != nil {
		snap.Error = &ErrorBanner{Kind: s.failure.Kind, Message: s.errorMessage}
	}
	return snap
}

// Terminal reports whether the generation has settled
func (s Snapshot) Terminal() bool {
	switch s.Phase {
	case PhaseIdle, PhaseReady, PhaseFailed:
		return true
	}
	return false
}
