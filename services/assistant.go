package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/models"
	"github.com/deckdraft/proposal-backend/store"
)

// Assistant produces the reply to a chat message and applies any slide
// mutations the message calls for. Implementations never touch the
// transcript; the handler owns appending both sides of the exchange.
type Assistant interface {
	Respond(ctx context.Context, session *store.Session, text string) string
}

// Assistant policy names accepted in configuration.
const (
	AssistantModeLocal  = "local"
	AssistantModeRemote = "remote"
)

// NewAssistant picks the responder policy by name. Unknown names fall back
// to the local policy, which works without any backend.
func NewAssistant(mode string, gen *GenerationClient) Assistant {
	if mode == AssistantModeRemote && gen != nil {
		return &RemoteAssistant{gen: gen, logger: log.With().Str("serviceName", "remoteAssistant").Logger()}
	}
	return &LocalAssistant{logger: log.With().Str("serviceName", "localAssistant").Logger()}
}

// LocalAssistant answers from fixed keyword rules and mutates only the
// currently viewed slide. It never calls the network, so it keeps working
// when the generation backend is down.
type LocalAssistant struct {
	logger zerolog.Logger
}

func (a *LocalAssistant) Respond(_ context.Context, session *store.Session, text string) string {
	current, ok := session.CurrentSlide()
	if !ok {
		return "Slide not found."
	}

	lower := strings.ToLower(text)

	var reply string
	var patch models.SlidePatch

	switch {
	case strings.Contains(lower, "improve") || strings.Contains(lower, "better"):
		reply = fmt.Sprintf("I've improved slide %q.", current.Title)
		content := current.Content + " [Improved]"
		bullets := append([]string(nil), current.BulletPoints...)
		if len(bullets) > 0 {
			bullets = append(bullets, "Add a new supporting point")
		} else {
			bullets = []string{"Point 1", "Point 2"}
		}
		template := models.TemplateBullets
		patch = models.SlidePatch{Content: &content, BulletPoints: &bullets, Template: &template}

	case strings.Contains(lower, "style"):
		reply = "Noted your request to change the style. UI styles can be applied during export or design customization."

	case strings.Contains(lower, "layout"):
		template := models.TemplateBullets
		if current.Template == models.TemplateBullets {
			template = models.TemplateContent
		}
		reply = fmt.Sprintf("Layout updated to %q.", template)
		patch = models.SlidePatch{Template: &template}

	case strings.Contains(lower, "rewrite") || strings.Contains(lower, "text"):
		reply = "Content rewritten to sound more engaging."
		content := "Here is an improved version of your content. [Rewritten]"
		patch = models.SlidePatch{Content: &content}

	default:
		return fmt.Sprintf("I understand you want to work on %q. Please let me know whether it's layout, style, or content you'd like to change.", text)
	}

	if !patch.IsZero() {
		if err := session.UpdateCurrentSlide(patch); err != nil {
			a.logger.Warn().Err(err).Msg("failed to apply assistant edit")
			return "Slide not found."
		}
	}
	return reply
}

// RemoteAssistant forwards every message verbatim as the description of a
// fresh generation request and replaces the whole working sequence with the
// result. Failures become chat replies built from the usual priority chain;
// the session stays untouched on any failure path.
type RemoteAssistant struct {
	gen    *GenerationClient
	logger zerolog.Logger
}

func (a *RemoteAssistant) Respond(ctx context.Context, session *store.Session, text string) string {
	result, err := a.gen.GenerateSlides(ctx, text, "")
	if err != nil {
		a.logger.Warn().Err(err).Msg("assistant regeneration failed")
		return errs.UserMessageFor(err)
	}
	if result.Message != "" {
		return result.Message
	}

	if err := session.ReplaceSlides(result.Slides); err != nil {
		a.logger.Warn().Err(err).Msg("no proposal to apply regenerated slides to")
		return "Generate a proposal first, then I can rework it for you."
	}
	return fmt.Sprintf("I've reworked your presentation based on your request. The deck now has %d slides.", len(result.Slides))
}
