package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/models"
	"github.com/deckdraft/proposal-backend/store"
)

type sessionHandler struct {
	responder Responder
	logger    zerolog.Logger
	sessions  *store.SessionStore
}

func newSessionHandler(sessions *store.SessionStore) sessionHandler {
	logger := log.With().Str("handlerName", "sessionHandler").Logger()

	return sessionHandler{
		responder: NewResponder(logger),
		logger:    logger,
		sessions:  sessions,
	}
}

// lookupSession resolves the {sessionID} route param. On failure it has
// already written the error response.
func lookupSession(responder Responder, sessions *store.SessionStore, w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		responder.WriteError(w, errs.NewBadRequestError("missing sessionID"))
		return nil, false
	}
	session, ok := sessions.Get(sessionID)
	if !ok {
		responder.WriteError(w, errs.NewNotFoundError("session not found"))
		return nil, false
	}
	return session, true
}

func (h sessionHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	return lookupSession(h.responder, h.sessions, w, r)
}

// writeStoreError maps store errors onto API status codes.
func (h sessionHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSlideNotFound):
		h.responder.WriteError(w, errs.NewNotFoundError("slide not found"))
	case errors.Is(err, store.ErrProposalNotFound):
		h.responder.WriteError(w, errs.NewNotFoundError("proposal not found"))
	case errors.Is(err, store.ErrNoCurrentProposal):
		h.responder.WriteError(w, errs.NewConflictError("no proposal is currently loaded"))
	case errors.Is(err, store.ErrIndexOutOfRange):
		h.responder.WriteError(w, errs.NewBadRequestError("slide index out of range"))
	default:
		h.responder.WriteError(w, err)
	}
}

// createSession opens a fresh editing session in the upload phase.
func (h sessionHandler) createSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := h.sessions.NewSession()
		h.logger.Info().Str("sessionID", session.ID()).Msg("session created")

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, session.Snapshot())
	}
}

// getSession returns a consistent snapshot of the session state.
func (h sessionHandler) getSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}
		h.responder.WriteJSON(w, session.Snapshot())
	}
}

// deleteSession discards the session and its in-memory history.
func (h sessionHandler) deleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if !h.sessions.Delete(sessionID) {
			h.responder.WriteError(w, errs.NewNotFoundError("session not found"))
			return
		}
		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: "session deleted"})
	}
}

// addSlide appends a blank placeholder slide to the working sequence.
func (h sessionHandler) addSlide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		slide, err := session.AddSlide()
		if err != nil {
			h.writeStoreError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, slide)
	}
}

// updateSlide applies a partial update to one slide of the working sequence.
func (h sessionHandler) updateSlide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		slideID := chi.URLParam(r, "slideID")
		if slideID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slideID"))
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to read request body")
			h.responder.WriteError(w, errs.NewBadRequestError("failed to read request body"))
			return
		}

		var patch models.SlidePatch
		if err := json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&patch); err != nil {
			h.logger.Error().Err(err).Str("body", string(bodyBytes)).Msg("Failed to decode slide patch")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if patch.Template != nil && !patch.Template.Valid() {
			h.responder.WriteError(w, errs.NewValidationError("template", "unknown slide template"))
			return
		}

		if err := session.UpdateSlide(slideID, patch); err != nil {
			h.writeStoreError(w, err)
			return
		}

		h.responder.WriteJSON(w, session.Snapshot())
	}
}

// deleteSlide removes one slide from the working sequence.
func (h sessionHandler) deleteSlide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		slideID := chi.URLParam(r, "slideID")
		if slideID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slideID"))
			return
		}

		if err := session.DeleteSlide(slideID); err != nil {
			h.writeStoreError(w, err)
			return
		}

		h.responder.WriteJSON(w, session.Snapshot())
	}
}

// setSlideIndex selects which slide the editor is viewing.
func (h sessionHandler) setSlideIndex() http.HandlerFunc {
	type request struct {
		Index int `json:"index"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if err := session.SetSlideIndex(req.Index); err != nil {
			h.writeStoreError(w, err)
			return
		}

		h.responder.WriteJSON(w, StatusResponse{Status: "success"})
	}
}

// saveDraft snapshots the working sequence into the current proposal.
func (h sessionHandler) saveDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		if err := session.SaveDraft(); err != nil {
			h.writeStoreError(w, err)
			return
		}

		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: "Draft saved successfully!"})
	}
}

// startNewProposal clears the working state and returns to the upload phase.
func (h sessionHandler) startNewProposal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		session.StartNewProposal()
		h.responder.WriteJSON(w, session.Snapshot())
	}
}

// listProposals returns the proposal history, newest first.
func (h sessionHandler) listProposals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		snap := session.Snapshot()
		h.responder.WriteJSON(w, map[string]interface{}{
			"proposals": snap.Proposals,
			"total":     len(snap.Proposals),
		})
	}
}

// loadProposal makes a proposal from the history the current one.
func (h sessionHandler) loadProposal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		proposalID := chi.URLParam(r, "proposalID")
		if proposalID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing proposalID"))
			return
		}

		if err := session.LoadProposal(proposalID); err != nil {
			h.writeStoreError(w, err)
			return
		}

		h.responder.WriteJSON(w, session.Snapshot())
	}
}

// deleteProposal removes a proposal from the history. Deleting the one
// currently loaded clears the working state too.
func (h sessionHandler) deleteProposal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookupSession(w, r)
		if !ok {
			return
		}

		proposalID := chi.URLParam(r, "proposalID")
		if proposalID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing proposalID"))
			return
		}

		if err := session.DeleteProposal(proposalID); err != nil {
			h.writeStoreError(w, err)
			return
		}

		h.responder.WriteJSON(w, session.Snapshot())
	}
}
