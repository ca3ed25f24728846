package api

import (
	"github.com/deckdraft/proposal-backend/services"
	"github.com/deckdraft/proposal-backend/store"
)

// Dependencies bundles everything the handlers need. Clients are constructed
// in main with their base URLs; nothing below this point reads the
// environment.
type Dependencies struct {
	Sessions  *store.SessionStore
	Generator *services.GenerationClient
	Assistant services.Assistant
	Auth      *services.AuthClient
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies) *routeHandlers {
	return &routeHandlers{
		sessionHandler:   newSessionHandler(deps.Sessions),
		generateHandler:  newGenerateHandler(deps.Sessions, deps.Generator),
		assistantHandler: newAssistantHandler(deps.Sessions, deps.Assistant),
		authHandler:      newAuthHandler(deps.Auth),
	}
}
