package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	sessionHandler   sessionHandler
	generateHandler  generateHandler
	assistantHandler assistantHandler
	authHandler      authHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// StatusResponse is the generic acknowledgement body for mutations that
// return no entity.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
