package store

import (
	"errors"
	"sync"
	"time"

	"github.com/deckdraft/proposal-backend/models"
)

// Phase is the top-level state of an editing session.
type Phase string

const (
	PhaseUpload     Phase = "upload"
	PhaseProcessing Phase = "processing"
	PhaseEditing    Phase = "editing"
)

var (
	ErrNoCurrentProposal = errors.New("no current proposal")
	ErrSlideNotFound     = errors.New("slide not found")
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrIndexOutOfRange   = errors.New("slide index out of range")
)

// Session holds everything one user is working on: the proposal history, the
// currently loaded proposal, the viewed slide index, the chat transcript and
// the UI phase.
//
// The proposal history is the single source of truth for slides. The working
// slide sequence the editor displays is a projection of the current
// proposal's slides, so the two can never diverge: any mutation lands in the
// proposal directly and the next read sees it.
//
// All methods are safe for concurrent use; each runs to completion under the
// session mutex, so the invariant holds whenever the lock is released.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	phase        Phase
	proposals    []*models.Proposal // head is the newest
	currentID    string
	currentIndex int
	messages     []models.Message

	now func() time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// current returns the current proposal, or nil. Caller must hold s.mu.
func (s *Session) current() *models.Proposal {
	if s.currentID == "" {
		return nil
	}
	for _, p := range s.proposals {
		if p.ID == s.currentID {
			return p
		}
	}
	return nil
}

// UpdateSlide applies a partial update to the slide with the given id in the
// working sequence. An unknown id leaves the session completely unchanged,
// including the proposal's UpdatedAt.
func (s *Session) UpdateSlide(slideID string, patch models.SlidePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return ErrNoCurrentProposal
	}
	for i := range cur.Slides {
		if cur.Slides[i].ID.String() == slideID {
			cur.Slides[i] = patch.Apply(cur.Slides[i])
			cur.UpdatedAt = s.now()
			return nil
		}
	}
	return ErrSlideNotFound
}

// AddSlide appends a blank placeholder slide to the working sequence and
// returns a copy of it.
func (s *Session) AddSlide() (models.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return models.Slide{}, ErrNoCurrentProposal
	}
	now := s.now()
	slide := models.NewBlankSlide(now)
	cur.Slides = append(cur.Slides, slide)
	cur.UpdatedAt = now
	return slide, nil
}

// DeleteSlide removes the slide with the given id from the working sequence.
// When the viewed index would fall outside the shrunk sequence it is clamped
// so the editor always points at a real slide (or 0 on an empty deck).
func (s *Session) DeleteSlide(slideID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return ErrNoCurrentProposal
	}
	at := -1
	for i := range cur.Slides {
		if cur.Slides[i].ID.String() == slideID {
			at = i
			break
		}
	}
	if at < 0 {
		return ErrSlideNotFound
	}

	length := len(cur.Slides) // pre-delete length
	cur.Slides = append(cur.Slides[:at], cur.Slides[at+1:]...)
	if s.currentIndex >= length-1 {
		s.currentIndex = max(0, length-2)
	}
	cur.UpdatedAt = s.now()
	return nil
}

// SetSlideIndex selects the viewed slide.
func (s *Session) SetSlideIndex(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return ErrNoCurrentProposal
	}
	if index < 0 || index >= len(cur.Slides) {
		return ErrIndexOutOfRange
	}
	s.currentIndex = index
	return nil
}

// SaveDraft snapshots the working sequence into the current proposal with
// status forced back to draft. With the normalized history the snapshot is
// just a status and timestamp refresh.
func (s *Session) SaveDraft() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return ErrNoCurrentProposal
	}
	cur.Status = models.StatusDraft
	cur.UpdatedAt = s.now()
	return nil
}

// StartNewProposal clears the working state and returns the session to the
// upload phase. The proposal history is kept.
func (s *Session) StartNewProposal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startNewLocked()
}

func (s *Session) startNewLocked() {
	s.phase = PhaseUpload
	s.currentID = ""
	s.currentIndex = 0
}

// LoadProposal makes a proposal from the history current and moves the
// session to the editing phase.
func (s *Session) LoadProposal(proposalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.proposals {
		if p.ID == proposalID {
			s.currentID = p.ID
			s.currentIndex = 0
			s.phase = PhaseEditing
			return nil
		}
	}
	return ErrProposalNotFound
}

// DeleteProposal removes a proposal from the history. Deleting the current
// proposal behaves like StartNewProposal.
func (s *Session) DeleteProposal(proposalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := -1
	for i, p := range s.proposals {
		if p.ID == proposalID {
			at = i
			break
		}
	}
	if at < 0 {
		return ErrProposalNotFound
	}
	s.proposals = append(s.proposals[:at], s.proposals[at+1:]...)
	if s.currentID == proposalID {
		s.startNewLocked()
	}
	return nil
}

// BeginProcessing moves the session into the processing phase for the
// duration of an outbound generation call.
func (s *Session) BeginProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseProcessing
}

// FailProcessing returns the session to the upload phase after a failed or
// empty generation attempt.
func (s *Session) FailProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseUpload
}

// InstallGenerated pushes a freshly generated proposal to the head of the
// history, makes it current and moves the session to the editing phase.
func (s *Session) InstallGenerated(p *models.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proposals = append([]*models.Proposal{p}, s.proposals...)
	s.currentID = p.ID
	s.currentIndex = 0
	s.phase = PhaseEditing
}

// ReplaceSlides swaps the entire working sequence of the current proposal.
// Used by the remote assistant policy, which regenerates the whole deck.
func (s *Session) ReplaceSlides(slides []models.Slide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return ErrNoCurrentProposal
	}
	cur.Slides = models.CloneSlides(slides)
	cur.UpdatedAt = s.now()
	if s.currentIndex >= len(cur.Slides) {
		s.currentIndex = max(0, len(cur.Slides)-1)
	}
	s.phase = PhaseEditing
	return nil
}

// CurrentSlide returns a copy of the currently viewed slide.
func (s *Session) CurrentSlide() (models.Slide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil || s.currentIndex >= len(cur.Slides) {
		return models.Slide{}, false
	}
	slide := cur.Slides[s.currentIndex]
	slide.BulletPoints = append([]string(nil), slide.BulletPoints...)
	return slide, true
}

// UpdateCurrentSlide applies a patch to the currently viewed slide only.
// Used by the local assistant policy.
func (s *Session) UpdateCurrentSlide(patch models.SlidePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur == nil {
		return ErrNoCurrentProposal
	}
	if s.currentIndex >= len(cur.Slides) {
		return ErrSlideNotFound
	}
	cur.Slides[s.currentIndex] = patch.Apply(cur.Slides[s.currentIndex])
	cur.UpdatedAt = s.now()
	return nil
}

// AppendMessage adds an entry to the chat transcript and returns it. The
// transcript is append-only; timestamps never step backwards even if the
// wall clock does.
func (s *Session) AppendMessage(sender models.MessageSender, text string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if n := len(s.messages); n > 0 && now.Before(s.messages[n-1].Timestamp) {
		now = s.messages[n-1].Timestamp
	}
	msg := models.NewMessage(sender, text, now)
	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns a copy of the transcript in insertion order.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// Snapshot is a consistent read-only view of a session.
type Snapshot struct {
	SessionID         string             `json:"sessionId"`
	CreatedAt         time.Time          `json:"createdAt"`
	Phase             Phase              `json:"phase"`
	Slides            []models.Slide     `json:"slides"`
	CurrentSlideIndex int                `json:"currentSlideIndex"`
	// CurrentProposal serializes as an explicit null when nothing is loaded,
	// so clients can distinguish "cleared" from "field not sent".
	CurrentProposal   *models.Proposal   `json:"currentProposal"`
	Proposals         []*models.Proposal `json:"proposals"`
}

// Snapshot copies the session state under the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:         s.id,
		CreatedAt:         s.createdAt,
		Phase:             s.phase,
		CurrentSlideIndex: s.currentIndex,
		Proposals:         make([]*models.Proposal, 0, len(s.proposals)),
	}
	for _, p := range s.proposals {
		snap.Proposals = append(snap.Proposals, p.Clone())
	}
	if cur := s.current(); cur != nil {
		snap.CurrentProposal = cur.Clone()
		snap.Slides = models.CloneSlides(cur.Slides)
	} else {
		snap.Slides = []models.Slide{}
	}
	return snap
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
