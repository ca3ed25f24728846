package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/services"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	auth      *services.AuthClient
	validate  *validator.Validate
}

func newAuthHandler(auth *services.AuthClient) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		auth:      auth,
		validate:  validator.New(),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// login proxies credentials to the external auth service and relays the
// issued token pair.
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.auth == nil {
			h.responder.WriteError(w, errs.NewInternalError("auth service not configured"))
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			h.responder.WriteValidationError(w, "email", "valid email and password are required")
			return
		}

		token, err := h.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			h.logger.Warn().Err(err).Str("email", req.Email).Msg("login rejected")
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]interface{}{"token": token})
	}
}

// register proxies account creation to the external auth service.
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.auth == nil {
			h.responder.WriteError(w, errs.NewInternalError("auth service not configured"))
			return
		}

		var req services.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
				h.responder.WriteValidationError(w, fieldErrs[0].Field(), "invalid registration payload")
				return
			}
			h.responder.WriteError(w, errs.NewBadRequestError("invalid registration payload"))
			return
		}

		if err := h.auth.Register(r.Context(), req); err != nil {
			h.logger.Warn().Err(err).Str("email", req.Email).Msg("registration rejected")
			h.responder.WriteError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: "account created"})
	}
}
