package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/models"
	"github.com/deckdraft/proposal-backend/services"
	"github.com/deckdraft/proposal-backend/store"
)

// maxUploadSize matches the 50MB cap the upload form has always enforced.
const maxUploadSize = 50 << 20

type generateHandler struct {
	responder Responder
	logger    zerolog.Logger
	sessions  *store.SessionStore
	generator *services.GenerationClient
}

func newGenerateHandler(sessions *store.SessionStore, generator *services.GenerationClient) generateHandler {
	logger := log.With().Str("handlerName", "generateHandler").Logger()

	return generateHandler{
		responder: NewResponder(logger),
		logger:    logger,
		sessions:  sessions,
		generator: generator,
	}
}

// generate runs the whole upload-and-generate workflow: optional document
// upload for text extraction, then slide generation, then installing the
// result as a fresh proposal at the head of the history. The session phase
// moves upload -> processing -> editing, and falls back to upload on any
// failure so the user can simply resubmit.
func (h generateHandler) generate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed multipart request"))
			return
		}

		description := r.FormValue("description")
		file, header, err := r.FormFile("document")
		hasFile := err == nil

		if !hasFile && description == "" {
			h.responder.WriteValidationError(w, "document", "provide a document or a description")
			return
		}

		session.BeginProcessing()

		extractedText := ""
		originalFile := ""
		if hasFile {
			defer file.Close()
			originalFile = header.Filename

			extracted, err := h.generator.ExtractText(r.Context(), header.Filename, file)
			if err != nil {
				h.logger.Warn().Err(err).Str("file", header.Filename).Msg("text extraction failed")
				session.FailProcessing()
				h.responder.WriteError(w, err)
				return
			}
			extractedText = extracted
		}

		result, err := h.generator.GenerateSlides(r.Context(), description, extractedText)
		if err != nil {
			h.logger.Warn().Err(err).Msg("slide generation failed")
			session.FailProcessing()
			h.responder.WriteError(w, err)
			return
		}

		// A bare text answer means the backend produced no slides; the
		// session stays out of the editing phase and nothing is installed.
		if result.Message != "" {
			session.FailProcessing()
			h.responder.WriteJSON(w, StatusResponse{Status: "no_slides", Message: result.Message})
			return
		}

		title := "Proposal from Text"
		if originalFile != "" {
			title = fmt.Sprintf("Proposal from %s", originalFile)
		}
		proposal := models.NewProposal(title, originalFile, description, result.Slides, time.Now())
		session.InstallGenerated(proposal)

		h.logger.Info().
			Str("sessionID", session.ID()).
			Str("proposalID", proposal.ID).
			Int("slides", len(result.Slides)).
			Msg("proposal generated")

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, session.Snapshot())
	}
}

func (h generateHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	return lookupSession(h.responder, h.sessions, w, r)
}
