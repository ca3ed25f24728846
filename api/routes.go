package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupFrontendRoutes sets up all routes with authentication
func setupFrontendRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	// Public routes
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/auth/login", handlers.authHandler.login())
	r.Post("/auth/register", handlers.authHandler.register())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)
		r.Use(ColoredHTTPLoggingMiddleware)

		// Session lifecycle
		r.Post("/session", handlers.sessionHandler.createSession())
		r.Get("/session/{sessionID}", handlers.sessionHandler.getSession())
		r.Delete("/session/{sessionID}", handlers.sessionHandler.deleteSession())

		// Slide operations on the working sequence
		r.Post("/session/{sessionID}/slides", handlers.sessionHandler.addSlide())
		r.Put("/session/{sessionID}/slide/{slideID}", handlers.sessionHandler.updateSlide())
		r.Delete("/session/{sessionID}/slide/{slideID}", handlers.sessionHandler.deleteSlide())
		r.Put("/session/{sessionID}/slide-index", handlers.sessionHandler.setSlideIndex())

		// Proposal lifecycle
		r.Post("/session/{sessionID}/draft", handlers.sessionHandler.saveDraft())
		r.Post("/session/{sessionID}/new", handlers.sessionHandler.startNewProposal())
		r.Get("/session/{sessionID}/proposals", handlers.sessionHandler.listProposals())
		r.Post("/session/{sessionID}/proposal/{proposalID}/load", handlers.sessionHandler.loadProposal())
		r.Delete("/session/{sessionID}/proposal/{proposalID}", handlers.sessionHandler.deleteProposal())

		// Generation and assistant
		r.Post("/session/{sessionID}/generate", handlers.generateHandler.generate())
		r.Post("/session/{sessionID}/assistant", handlers.assistantHandler.sendMessage())
		r.Get("/session/{sessionID}/messages", handlers.assistantHandler.listMessages())
	})
}
