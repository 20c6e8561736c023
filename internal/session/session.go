package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/logger"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/services"
	"github.com/google/uuid"
)

// Phase is the visible stage of the current generation
type Phase string

// Generation phases
const (
	PhaseIdle          Phase = "idle"
	PhaseRecordPending Phase = "record_pending"
	PhaseImagePending  Phase = "image_pending"
	PhaseReady         Phase = "ready"
	PhaseFailed        Phase = "failed"
)

var (
	// ErrTierUnresolved is returned when a submission arrives before an access tier is chosen
	ErrTierUnresolved = errors.New("access tier not selected")
	// ErrEmptyPrompt is returned for a blank submission
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrInvalidOptions wraps unsupported image options
	ErrInvalidOptions = errors.New("invalid image options")
)

// Generator performs the remote calls of one generation
type Generator interface {
	FetchCharacterRecord(ctx context.Context, prompt string, tier models.AccessTier) (*models.CharacterRecord, error)
	FetchCharacterImage(ctx context.Context, prompt string, tier models.AccessTier, opts models.ImageOptions) models.ImageResult
}

// Composer builds the instructions sent to the remote models
type Composer interface {
	ComposeRecordPrompt(userInput string, tier models.AccessTier) string
	ComposeImagePrompt(record *models.CharacterRecord, opts models.ImageOptions) string
}

// TierSource reports the resolved access tier
type TierSource interface {
	Tier() (models.AccessTier, bool)
}

// run tracks one in-flight submission
type run struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Session owns the archive state. All mutations go through Submit, the
// completion callbacks of the running generation, and DismissError.
// Stored records and images are never mutated after they are set.
type Session struct {
	id        string
	generator Generator
	composer  Composer
	tiers     TierSource

	mu       sync.Mutex
	seq      uint64
	inflight map[uint64]*run

	phase         Phase
	request       models.GenerationRequest
	record        *models.CharacterRecord
	image         *models.ImageResult
	recordLoading bool
	imageLoading  bool
	failure       *services.RecordGenerationError
	errorMessage  string
}

// New creates an idle session
func New(generator Generator, composer Composer, tiers TierSource) *Session {
	return &Session{
		id:        uuid.New().String(),
		generator: generator,
		composer:  composer,
		tiers:     tiers,
		inflight:  make(map[uint64]*run),
		phase:     PhaseIdle,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Submit starts a new generation and returns its sequence number.
// Any generation still in flight is superseded: its context is cancelled and
// its late results are discarded. No remote call is issued while the tier is unresolved.
func (s *Session) Submit(ctx context.Context, prompt string, opts models.ImageOptions) (uint64, error) {
	tier, ok := s.tiers.Tier()
	if !ok {
		return 0, ErrTierUnresolved
	}
	if strings.TrimSpace(prompt) == "" {
		return 0, ErrEmptyPrompt
	}
	opts, err := opts.Normalize()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	// The generation outlives the caller's request; only supersession cancels it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	for _, previous := range s.inflight {
		previous.cancel()
	}
	s.seq++
	r := &run{seq: s.seq, cancel: cancel, done: make(chan struct{})}
	s.inflight[r.seq] = r

	req := models.GenerationRequest{
		Sequence:     r.seq,
		UserPrompt:   prompt,
		Tier:         tier,
		Image:        opts,
		RecordPrompt: s.composer.ComposeRecordPrompt(prompt, tier),
	}
	s.request = req
	s.phase = PhaseRecordPending
	s.record = nil
	s.image = nil
	s.failure = nil
	s.errorMessage = ""
	s.recordLoading = true
	s.imageLoading = true
	s.mu.Unlock()

	logger.Info("Generation submitted", logger.Fields{
		"session_id": s.id,
		"sequence":   req.Sequence,
		"tier":       string(tier),
		"style":      string(opts.Style),
	})

	go s.execute(runCtx, r, req)
	return r.seq, nil
}

func (s *Session) execute(ctx context.Context, r *run, req models.GenerationRequest) {
	defer s.finish(r)

	record, err := s.generator.FetchCharacterRecord(ctx, req.RecordPrompt, req.Tier)
	if !s.applyRecord(req.Sequence, record, err) {
		return
	}

	req.ImagePrompt = s.composer.ComposeImagePrompt(record, req.Image)
	image := s.generator.FetchCharacterImage(ctx, req.ImagePrompt, req.Tier, req.Image)
	s.applyImage(req.Sequence, image)
}

func (s *Session) finish(r *run) {
	r.cancel()
	s.mu.Lock()
	delete(s.inflight, r.seq)
	s.mu.Unlock()
	close(r.done)
}

// applyRecord stores the record outcome and reports whether the image call should follow
func (s *Session) applyRecord(seq uint64, record *models.CharacterRecord, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		logger.Debug("Discarding stale record result", logger.Fields{"sequence": seq, "current": s.seq})
		return false
	}

	if err == nil && record == nil {
		err = errors.New("generator returned no record")
	}
	if err != nil {
		var genErr *services.RecordGenerationError
		if !errors.As(err, &genErr) {
			genErr = services.NewRecordGenerationError(err)
		}
		s.phase = PhaseFailed
		s.failure = genErr
		s.errorMessage = genErr.Message()
		s.recordLoading = false
		s.imageLoading = false
		return false
	}

	s.phase = PhaseImagePending
	s.record = record
	s.recordLoading = false
	return true
}

func (s *Session) applyImage(seq uint64, image models.ImageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		logger.Debug("Discarding stale image result", logger.Fields{"sequence": seq, "current": s.seq})
		return
	}

	s.phase = PhaseReady
	s.image = &image
	s.imageLoading = false
}

// Await blocks until the generation with the given sequence number has stopped
// running (completed, failed or superseded) and returns the current snapshot.
func (s *Session) Await(ctx context.Context, seq uint64) (Snapshot, error) {
	s.mu.Lock()
	r := s.inflight[seq]
	s.mu.Unlock()

	if r != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
	return s.Snapshot(), nil
}

// Generate submits prompt and waits for it to finish
func (s *Session) Generate(ctx context.Context, prompt string, opts models.ImageOptions) (Snapshot, error) {
	seq, err := s.Submit(ctx, prompt, opts)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.Await(ctx, seq)
}

// DismissError clears the error banner. A failed session returns to idle.
func (s *Session) DismissError() Snapshot {
	s.mu.Lock()
	if s.phase == PhaseFailed {
		s.phase = PhaseIdle
	}
	s.failure = nil
	s.errorMessage = ""
	s.mu.Unlock()
	return s.Snapshot()
}

// Close cancels every in-flight generation and waits for them to stop
func (s *Session) Close() {
	s.mu.Lock()
	runs := make([]*run, 0, len(s.inflight))
	for _, r := range s.inflight {
		r.cancel()
		runs = append(runs, r)
	}
	s.mu.Unlock()

	for _, r := range runs {
		<-r.done
	}
}
