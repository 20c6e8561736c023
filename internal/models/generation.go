package models

// GenerationRequest is the ephemeral input of one submission. It is
// discarded once its record (or error) and image have been produced.
type GenerationRequest struct {
	Sequence     uint64       `json:"sequence"`
	UserPrompt   string       `json:"user_prompt"`
	Tier         AccessTier   `json:"tier"`
	Image        ImageOptions `json:"image"`
	RecordPrompt string       `json:"-"`
	ImagePrompt  string       `json:"-"`
}
