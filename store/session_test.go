package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckdraft/proposal-backend/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	st := NewSessionStore()
	st.now = clock.Now
	return st.NewSession(), clock
}

func testSlides(ids ...string) []models.Slide {
	slides := make([]models.Slide, 0, len(ids))
	for _, id := range ids {
		slides = append(slides, models.Slide{
			ID:           models.SlideID(id),
			Title:        "Slide " + id,
			Content:      "Content " + id,
			BulletPoints: []string{"a", "b"},
			Template:     models.TemplateContent,
		})
	}
	return slides
}

func installProposal(t *testing.T, s *Session, clock *fakeClock, ids ...string) *models.Proposal {
	t.Helper()
	p := models.NewProposal("Proposal from Text", "", "desc", testSlides(ids...), clock.Now())
	s.InstallGenerated(p)
	return p
}

// requireMirrored asserts the invariant at the heart of the store: the
// working sequence, the current proposal and its history entry all agree.
func requireMirrored(t *testing.T, s *Session) {
	t.Helper()
	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentProposal)
	require.Equal(t, snap.Slides, snap.CurrentProposal.Slides)

	found := false
	for _, p := range snap.Proposals {
		if p.ID == snap.CurrentProposal.ID {
			require.Equal(t, snap.CurrentProposal.Slides, p.Slides)
			found = true
		}
	}
	require.True(t, found, "current proposal missing from history")
}

func TestInstallGeneratedMovesToEditing(t *testing.T) {
	s, clock := newTestSession(t)
	require.Equal(t, PhaseUpload, s.Phase())

	s.BeginProcessing()
	require.Equal(t, PhaseProcessing, s.Phase())

	installProposal(t, s, clock, "1", "2")

	snap := s.Snapshot()
	assert.Equal(t, PhaseEditing, snap.Phase)
	assert.Equal(t, 0, snap.CurrentSlideIndex)
	assert.Len(t, snap.Slides, 2)
	requireMirrored(t, s)
}

func TestInstallGeneratedPushesToHistoryHead(t *testing.T) {
	s, clock := newTestSession(t)
	first := installProposal(t, s, clock, "1")
	second := installProposal(t, s, clock, "2", "3")

	snap := s.Snapshot()
	require.Len(t, snap.Proposals, 2)
	assert.Equal(t, second.ID, snap.Proposals[0].ID)
	assert.Equal(t, first.ID, snap.Proposals[1].ID)
	assert.Equal(t, second.ID, snap.CurrentProposal.ID)
}

func TestMutationSequenceKeepsProposalMirrored(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2", "3")

	title := "Updated"
	require.NoError(t, s.UpdateSlide("2", models.SlidePatch{Title: &title}))
	requireMirrored(t, s)

	_, err := s.AddSlide()
	require.NoError(t, err)
	requireMirrored(t, s)

	require.NoError(t, s.DeleteSlide("1"))
	requireMirrored(t, s)

	content := "rewritten"
	require.NoError(t, s.UpdateSlide("3", models.SlidePatch{Content: &content}))
	requireMirrored(t, s)

	snap := s.Snapshot()
	assert.Equal(t, "Updated", snap.Slides[0].Title)
	assert.Equal(t, "rewritten", snap.Slides[1].Content)
}

func TestUpdateSlideUnknownIDIsNoOp(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2")
	before := s.Snapshot()

	clock.Advance(time.Minute)
	title := "nope"
	err := s.UpdateSlide("404", models.SlidePatch{Title: &title})
	require.ErrorIs(t, err, ErrSlideNotFound)

	after := s.Snapshot()
	assert.Equal(t, before.Slides, after.Slides)
	assert.Equal(t, before.CurrentProposal.UpdatedAt, after.CurrentProposal.UpdatedAt)
	assert.Equal(t, before.Proposals, after.Proposals)
}

func TestUpdateSlideRefreshesUpdatedAt(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1")
	before := s.Snapshot().CurrentProposal.UpdatedAt

	clock.Advance(time.Minute)
	title := "new title"
	require.NoError(t, s.UpdateSlide("1", models.SlidePatch{Title: &title}))

	after := s.Snapshot().CurrentProposal.UpdatedAt
	assert.True(t, after.After(before))
}

func TestAddSlideAppendsPlaceholder(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1")

	slide, err := s.AddSlide()
	require.NoError(t, err)
	assert.Equal(t, "New Slide", slide.Title)
	assert.Equal(t, "Add your content here...", slide.Content)
	assert.Equal(t, []string{"Point 1", "Point 2"}, slide.BulletPoints)
	assert.Equal(t, models.TemplateContent, slide.Template)

	snap := s.Snapshot()
	require.Len(t, snap.Slides, 2)
	assert.Equal(t, slide.ID, snap.Slides[1].ID)
	requireMirrored(t, s)
}

func TestAddSlideWithoutProposal(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.AddSlide()
	require.ErrorIs(t, err, ErrNoCurrentProposal)
}

func TestDeleteSlideClampsViewedIndex(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2", "3")

	require.NoError(t, s.SetSlideIndex(2))
	require.NoError(t, s.DeleteSlide("3"))

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.CurrentSlideIndex)
	assert.Len(t, snap.Slides, 2)
	requireMirrored(t, s)
}

func TestDeleteSlideIndexStaysWithinBounds(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2", "3", "4")

	// Deleting from anywhere must leave the index pointing at a real slide.
	for _, id := range []string{"2", "4", "1", "3"} {
		require.NoError(t, s.DeleteSlide(id))
		snap := s.Snapshot()
		if len(snap.Slides) == 0 {
			assert.Equal(t, 0, snap.CurrentSlideIndex)
		} else {
			assert.GreaterOrEqual(t, snap.CurrentSlideIndex, 0)
			assert.Less(t, snap.CurrentSlideIndex, len(snap.Slides))
		}
		requireMirrored(t, s)
	}
}

func TestDeleteLastSlideResetsIndexToZero(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1")

	require.NoError(t, s.DeleteSlide("1"))

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.CurrentSlideIndex)
	assert.Empty(t, snap.Slides)
}

func TestSetSlideIndexOutOfRange(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2")

	require.NoError(t, s.SetSlideIndex(1))
	require.ErrorIs(t, s.SetSlideIndex(2), ErrIndexOutOfRange)
	require.ErrorIs(t, s.SetSlideIndex(-1), ErrIndexOutOfRange)
}

func TestSaveDraftForcesDraftStatus(t *testing.T) {
	s, clock := newTestSession(t)
	p := installProposal(t, s, clock, "1")
	p.Status = models.StatusCompleted

	clock.Advance(time.Minute)
	require.NoError(t, s.SaveDraft())

	snap := s.Snapshot()
	assert.Equal(t, models.StatusDraft, snap.CurrentProposal.Status)
	assert.True(t, snap.CurrentProposal.UpdatedAt.After(snap.CurrentProposal.CreatedAt))
}

func TestStartNewProposalKeepsHistory(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2")

	s.StartNewProposal()

	snap := s.Snapshot()
	assert.Equal(t, PhaseUpload, snap.Phase)
	assert.Nil(t, snap.CurrentProposal)
	assert.Empty(t, snap.Slides)
	assert.Equal(t, 0, snap.CurrentSlideIndex)
	assert.Len(t, snap.Proposals, 1)
}

func TestLoadProposal(t *testing.T) {
	s, clock := newTestSession(t)
	first := installProposal(t, s, clock, "1")
	installProposal(t, s, clock, "2", "3")
	require.NoError(t, s.SetSlideIndex(1))

	require.NoError(t, s.LoadProposal(first.ID))

	snap := s.Snapshot()
	assert.Equal(t, PhaseEditing, snap.Phase)
	assert.Equal(t, first.ID, snap.CurrentProposal.ID)
	assert.Equal(t, 0, snap.CurrentSlideIndex)
	assert.Len(t, snap.Slides, 1)
	requireMirrored(t, s)
}

func TestLoadProposalUnknownID(t *testing.T) {
	s, _ := newTestSession(t)
	require.ErrorIs(t, s.LoadProposal("missing"), ErrProposalNotFound)
}

func TestDeleteProposalNotCurrent(t *testing.T) {
	s, clock := newTestSession(t)
	first := installProposal(t, s, clock, "1")
	second := installProposal(t, s, clock, "2")

	require.NoError(t, s.DeleteProposal(first.ID))

	snap := s.Snapshot()
	assert.Equal(t, PhaseEditing, snap.Phase)
	assert.Equal(t, second.ID, snap.CurrentProposal.ID)
	require.Len(t, snap.Proposals, 1)
}

func TestDeleteCurrentProposalResetsSession(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1")
	current := installProposal(t, s, clock, "2", "3")

	require.NoError(t, s.DeleteProposal(current.ID))

	snap := s.Snapshot()
	assert.Equal(t, PhaseUpload, snap.Phase)
	assert.Nil(t, snap.CurrentProposal)
	assert.Empty(t, snap.Slides)
	assert.Equal(t, 0, snap.CurrentSlideIndex)
	assert.Len(t, snap.Proposals, 1)
}

func TestReplaceSlides(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1", "2", "3")
	require.NoError(t, s.SetSlideIndex(2))

	require.NoError(t, s.ReplaceSlides(testSlides("9")))

	snap := s.Snapshot()
	require.Len(t, snap.Slides, 1)
	assert.Equal(t, models.SlideID("9"), snap.Slides[0].ID)
	assert.Equal(t, 0, snap.CurrentSlideIndex)
	requireMirrored(t, s)
}

func TestTranscriptStartsWithGreeting(t *testing.T) {
	s, _ := newTestSession(t)
	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, models.SenderAI, messages[0].Sender)
	assert.Equal(t, models.AssistantGreeting, messages[0].Text)
}

func TestTranscriptTimestampsNeverStepBack(t *testing.T) {
	s, clock := newTestSession(t)

	s.AppendMessage(models.SenderUser, "first")
	clock.Advance(-time.Hour) // clock steps backwards
	s.AppendMessage(models.SenderAI, "second")

	messages := s.Messages()
	require.Len(t, messages, 3)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp),
			"timestamps must be monotonically non-decreasing")
	}
}

func TestSnapshotCarriesCreationTime(t *testing.T) {
	s, clock := newTestSession(t)
	created := clock.Now()

	clock.Advance(time.Hour)
	installProposal(t, s, clock, "1")

	assert.Equal(t, created, s.Snapshot().CreatedAt)
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	s, clock := newTestSession(t)
	installProposal(t, s, clock, "1")

	snap := s.Snapshot()
	snap.Slides[0].Title = "mutated"
	snap.CurrentProposal.Slides[0].Title = "mutated"

	fresh := s.Snapshot()
	assert.Equal(t, "Slide 1", fresh.Slides[0].Title)
}

func TestSessionStoreLifecycle(t *testing.T) {
	st := NewSessionStore()
	s := st.NewSession()

	got, ok := st.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	require.True(t, st.Delete(s.ID()))
	require.False(t, st.Delete(s.ID()))
	_, ok = st.Get(s.ID())
	assert.False(t, ok)
}
