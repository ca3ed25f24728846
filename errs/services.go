package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// External service errors
var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUpstreamFailure    = errors.New("upstream request failed")
	ErrEmptyGeneration    = errors.New("generation produced no slides")
)

// FallbackMessage is shown to the user when an outbound call fails and the
// backend supplied nothing better.
const FallbackMessage = "There was an error processing your request."

// ExternalServiceError captures a failed call to one of the external
// backends (the generation service or the auth service). It keeps the
// structured message and error fields of the response body, when present, so
// the user-facing text can be chosen in one place.
type ExternalServiceError struct {
	Service    string // which backend failed, e.g. "generator"
	Endpoint   string
	StatusCode int    // upstream HTTP status, 0 when the request never completed
	Message    string // structured `message` field from the response body
	ServiceErr string // structured `error` field from the response body
	Cause      error  // transport or decoding error
}

func (e *ExternalServiceError) Error() string {
	msg := fmt.Sprintf("%s: call to %s failed", e.Service, e.Endpoint)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}

// UserMessage picks the text shown to the user. Priority is fixed: the
// backend's structured message, then its structured error, then the raw
// transport error, then the generic fallback.
func (e *ExternalServiceError) UserMessage() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ServiceErr != "":
		return e.ServiceErr
	case e.Cause != nil && e.Cause.Error() != "":
		return e.Cause.Error()
	default:
		return FallbackMessage
	}
}

// NewExternalServiceError wraps a transport-level failure.
func NewExternalServiceError(service, endpoint string, cause error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Endpoint: endpoint, Cause: cause}
}

// ToApiErr converts an external failure into the ApiErr shape handlers
// respond with. Upstream failures surface as 502 so callers can tell them
// apart from this service's own errors.
func (e *ExternalServiceError) ToApiErr() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        errors.New(e.UserMessage()),
		Cause:      e.Cause,
	}
}

// UserMessageFor extracts the user-facing text for any error following the
// same priority chain; non-service errors fall through to their own text.
func UserMessageFor(err error) string {
	var svcErr *ExternalServiceError
	if errors.As(err, &svcErr) {
		return svcErr.UserMessage()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return FallbackMessage
}
