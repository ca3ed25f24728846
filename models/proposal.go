package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus tracks whether a proposal is still being worked on.
type ProposalStatus string

const (
	StatusDraft     ProposalStatus = "draft"
	StatusCompleted ProposalStatus = "completed"
)

// Proposal is one generated deck plus its provenance: the uploaded file name
// and/or the free-text description it was generated from.
type Proposal struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Slides       []Slide        `json:"slides"`
	Status       ProposalStatus `json:"status"`
	OriginalFile string         `json:"originalFile,omitempty"`
	Description  string         `json:"description,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewProposal builds a draft proposal around a freshly generated slide deck.
func NewProposal(title, originalFile, description string, slides []Slide, now time.Time) *Proposal {
	return &Proposal{
		ID:           uuid.NewString(),
		Title:        title,
		Slides:       CloneSlides(slides),
		Status:       StatusDraft,
		OriginalFile: originalFile,
		Description:  description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone deep-copies the proposal so snapshots cannot alias live state.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.Slides = CloneSlides(p.Slides)
	return &cp
}
