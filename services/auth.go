package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
)

// AuthClient proxies login and registration to the external auth service.
// Token issuance and account storage are owned entirely by that service;
// this client only forwards credentials and relays its answers.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewAuthClient(baseURL string, httpClient *http.Client) *AuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AuthClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log.With().Str("serviceName", "authClient").Logger(),
	}
}

// TokenPair is the access/refresh pair issued on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginResponse struct {
	Token  TokenPair `json:"token"`
	Detail string    `json:"detail"`
}

// Login exchanges credentials for a token pair.
func (c *AuthClient) Login(ctx context.Context, email, password string) (TokenPair, error) {
	endpoint := c.baseURL + "/auth/api/login/"

	body, err := c.post(ctx, endpoint, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return TokenPair{}, err
	}

	var decoded loginResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return TokenPair{}, errs.NewExternalServiceError("auth", endpoint, err)
	}
	if decoded.Token.Access == "" {
		return TokenPair{}, &errs.ExternalServiceError{
			Service:  "auth",
			Endpoint: endpoint,
			Message:  decoded.Detail,
			Cause:    fmt.Errorf("login response carried no token"),
		}
	}
	return decoded.Token, nil
}

// RegisterRequest mirrors the payload the auth service expects. Password2 is
// the confirmation copy; the auth service rejects mismatches.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

// Register creates an account. Failures surface the auth service's `detail`
// field when present.
func (c *AuthClient) Register(ctx context.Context, req RegisterRequest) error {
	endpoint := c.baseURL + "/auth/api/register/"
	_, err := c.post(ctx, endpoint, req)
	return err
}

// post sends a JSON body and returns the raw response on 2xx. Non-2xx
// responses are converted into ExternalServiceError with the `detail` field
// as the message.
func (c *AuthClient) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.NewExternalServiceError("auth", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, errs.NewExternalServiceError("auth", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("auth request failed")
		return nil, errs.NewExternalServiceError("auth", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewExternalServiceError("auth", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &failure)
		c.logger.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("auth request rejected")
		return nil, &errs.ExternalServiceError{
			Service:    "auth",
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    failure.Detail,
			Cause:      fmt.Errorf("auth service returned status %d", resp.StatusCode),
		}
	}
	return body, nil
}
