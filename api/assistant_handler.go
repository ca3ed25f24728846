package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/models"
	"github.com/deckdraft/proposal-backend/services"
	"github.com/deckdraft/proposal-backend/store"
)

type assistantHandler struct {
	responder Responder
	logger    zerolog.Logger
	sessions  *store.SessionStore
	assistant services.Assistant
	validate  *validator.Validate
}

func newAssistantHandler(sessions *store.SessionStore, assistant services.Assistant) assistantHandler {
	logger := log.With().Str("handlerName", "assistantHandler").Logger()

	return assistantHandler{
		responder: NewResponder(logger),
		logger:    logger,
		sessions:  sessions,
		assistant: assistant,
		validate:  validator.New(),
	}
}

type assistantRequest struct {
	Text string `json:"text" validate:"required"`
}

// assistantExchange is one request/reply pair appended to the transcript.
type assistantExchange struct {
	UserMessage      models.Message `json:"userMessage"`
	AssistantMessage models.Message `json:"assistantMessage"`
}

// sendMessage records the user's message, lets the configured responder
// policy act on the session, and records its reply. Both entries land on the
// transcript in order regardless of what the policy did to the slides.
func (h assistantHandler) sendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(h.responder, h.sessions, w, r)
		if !ok {
			return
		}

		var req assistantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		req.Text = strings.TrimSpace(req.Text)
		if err := h.validate.Struct(req); err != nil {
			h.responder.WriteValidationError(w, "text", "message text is required")
			return
		}

		userMsg := session.AppendMessage(models.SenderUser, req.Text)
		reply := h.assistant.Respond(r.Context(), session, req.Text)
		aiMsg := session.AppendMessage(models.SenderAI, reply)

		h.responder.WriteJSON(w, assistantExchange{
			UserMessage:      userMsg,
			AssistantMessage: aiMsg,
		})
	}
}

// listMessages returns the transcript in insertion order.
func (h assistantHandler) listMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(h.responder, h.sessions, w, r)
		if !ok {
			return
		}

		messages := session.Messages()
		h.responder.WriteJSON(w, map[string]interface{}{
			"messages": messages,
			"total":    len(messages),
		})
	}
}
