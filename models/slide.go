package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// SlideTemplate selects the render layout of a slide.
type SlideTemplate string

const (
	TemplateTitle   SlideTemplate = "title"
	TemplateContent SlideTemplate = "content"
	TemplateBullets SlideTemplate = "bullets"
	TemplateImage   SlideTemplate = "image"
)

func (t SlideTemplate) Valid() bool {
	switch t {
	case TemplateTitle, TemplateContent, TemplateBullets, TemplateImage:
		return true
	}
	return false
}

// SlideID is a slide identifier that is always a string in memory but may
// arrive from the generation backend as a JSON number. Decoding normalizes
// both forms so id comparisons are uniform everywhere downstream.
type SlideID string

func (id SlideID) String() string {
	return string(id)
}

func (id *SlideID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SlideID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = SlideID(n.String())
	return nil
}

// Slide is one slide of a proposal deck. BackgroundColor and TextColor are
// optional styling hints the generation backend may supply; the API carries
// them through untouched.
type Slide struct {
	ID              SlideID       `json:"id"`
	Title           string        `json:"title"`
	Content         string        `json:"content"`
	BulletPoints    []string      `json:"bulletPoints"`
	Template        SlideTemplate `json:"template"`
	BackgroundColor *string       `json:"backgroundColor,omitempty"`
	TextColor       *string       `json:"textColor,omitempty"`
}

// SlidePatch is a partial update. Nil fields are left alone; a non-nil
// pointer overwrites the field, including overwriting bullet points with an
// empty list.
type SlidePatch struct {
	Title           *string        `json:"title,omitempty"`
	Content         *string        `json:"content,omitempty"`
	BulletPoints    *[]string      `json:"bulletPoints,omitempty"`
	Template        *SlideTemplate `json:"template,omitempty"`
	BackgroundColor *string        `json:"backgroundColor,omitempty"`
	TextColor       *string        `json:"textColor,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p SlidePatch) IsZero() bool {
	return p.Title == nil && p.Content == nil && p.BulletPoints == nil &&
		p.Template == nil && p.BackgroundColor == nil && p.TextColor == nil
}

// Apply returns a copy of s with the patch's non-nil fields applied.
func (p SlidePatch) Apply(s Slide) Slide {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Content != nil {
		s.Content = *p.Content
	}
	if p.BulletPoints != nil {
		s.BulletPoints = append([]string(nil), (*p.BulletPoints)...)
	}
	if p.Template != nil {
		s.Template = *p.Template
	}
	if p.BackgroundColor != nil {
		s.BackgroundColor = p.BackgroundColor
	}
	if p.TextColor != nil {
		s.TextColor = p.TextColor
	}
	return s
}

// NewBlankSlide returns the placeholder slide appended by the editor's
// "add slide" action. The id is derived from the current time.
func NewBlankSlide(now time.Time) Slide {
	return Slide{
		ID:           SlideID(strconv.FormatInt(now.UnixMilli(), 10)),
		Title:        "New Slide",
		Content:      "Add your content here...",
		BulletPoints: []string{"Point 1", "Point 2"},
		Template:     TemplateContent,
	}
}

// CloneSlides deep-copies a slide sequence, including the bullet slices.
func CloneSlides(slides []Slide) []Slide {
	out := make([]Slide, len(slides))
	for i, s := range slides {
		s.BulletPoints = append([]string(nil), s.BulletPoints...)
		out[i] = s
	}
	return out
}
