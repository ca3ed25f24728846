package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/models"
)

// GenerationClient talks to the external generation backend that turns a
// document or prompt into slides. The base URL and HTTP client are fixed at
// construction; nothing here reads the environment.
type GenerationClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewGenerationClient(baseURL string, httpClient *http.Client) *GenerationClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GenerationClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log.With().Str("serviceName", "generationClient").Logger(),
	}
}

// uploadEnvelope is the response of POST /api/files/upload.
type uploadEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ExtractedText string `json:"extractedText"`
	} `json:"data"`
	Message string `json:"message"`
	Err     string `json:"error"`
}

// ExtractText uploads a document to the generation backend and returns the
// text it extracted. The document travels as the multipart form field
// "document".
func (c *GenerationClient) ExtractText(ctx context.Context, filename string, document io.Reader) (string, error) {
	endpoint := c.baseURL + "/api/files/upload"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return "", errs.NewExternalServiceError("generator", endpoint, err)
	}
	if _, err := io.Copy(part, document); err != nil {
		return "", errs.NewExternalServiceError("generator", endpoint, err)
	}
	if err := writer.Close(); err != nil {
		return "", errs.NewExternalServiceError("generator", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", errs.NewExternalServiceError("generator", endpoint, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("file upload request failed")
		return "", errs.NewExternalServiceError("generator", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.NewExternalServiceError("generator", endpoint, err)
	}

	var envelope uploadEnvelope
	// Decode errors are folded into the failure below; a non-JSON body from
	// the backend is treated the same as success:false.
	_ = json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", endpoint).
			Msg("file upload rejected")
		return "", &errs.ExternalServiceError{
			Service:    "generator",
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    envelope.Message,
			ServiceErr: envelope.Err,
			Cause:      fmt.Errorf("file upload failed"),
		}
	}

	return envelope.Data.ExtractedText, nil
}

// GenerationRequest is the JSON body of POST /api/proposals/generate. Both
// fields are optional on the wire; callers make sure at least one is set.
type GenerationRequest struct {
	Description   string `json:"description,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// GenerationResult is the tagged outcome of a generation call. Exactly one
// of Slides and Message is meaningful: Slides when the backend produced a
// deck, Message when it answered with plain text instead (treated as "no
// slides produced" by callers).
type GenerationResult struct {
	Slides  []models.Slide
	Message string
}

// generateEnvelope is the structured response shape of the generation
// endpoint. The backend also answers with a bare slide array or a bare
// string; GenerateSlides discriminates before decoding.
type generateEnvelope struct {
	Success bool           `json:"success"`
	Data    []models.Slide `json:"data"`
	Slides  []models.Slide `json:"slides"`
	Message string         `json:"message"`
	Err     string         `json:"error"`
}

// GenerateSlides asks the backend to build a deck from a free-text
// description and/or text extracted from an uploaded document. Slide ids are
// normalized to strings at this boundary regardless of how they arrive.
func (c *GenerationClient) GenerateSlides(ctx context.Context, description, extractedText string) (GenerationResult, error) {
	endpoint := c.baseURL + "/api/proposals/generate"

	payload, err := json.Marshal(GenerationRequest{
		Description:   description,
		ExtractedText: extractedText,
	})
	if err != nil {
		return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("generation request failed")
		return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope generateEnvelope
		_ = json.Unmarshal(raw, &envelope)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", endpoint).
			Msg("generation rejected")
		return GenerationResult{}, &errs.ExternalServiceError{
			Service:    "generator",
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    envelope.Message,
			ServiceErr: envelope.Err,
			Cause:      fmt.Errorf("generation failed with status %d", resp.StatusCode),
		}
	}

	return c.decodeGeneration(endpoint, resp.StatusCode, raw)
}

// decodeGeneration turns the backend's loosely shaped success body into a
// tagged result. Observed shapes: a bare string message, a bare slide array,
// or a {success, data|slides, message, error} envelope.
func (c *GenerationClient) decodeGeneration(endpoint string, status int, raw []byte) (GenerationResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return GenerationResult{}, &errs.ExternalServiceError{
			Service:    "generator",
			Endpoint:   endpoint,
			StatusCode: status,
			Cause:      fmt.Errorf("empty response body"),
		}
	}

	switch trimmed[0] {
	case '"':
		var msg string
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
		}
		return GenerationResult{Message: msg}, nil

	case '[':
		var slides []models.Slide
		if err := json.Unmarshal(trimmed, &slides); err != nil {
			return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
		}
		return GenerationResult{Slides: slides}, nil

	case '{':
		var envelope generateEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return GenerationResult{}, errs.NewExternalServiceError("generator", endpoint, err)
		}
		if !envelope.Success {
			return GenerationResult{}, &errs.ExternalServiceError{
				Service:    "generator",
				Endpoint:   endpoint,
				StatusCode: status,
				Message:    envelope.Message,
				ServiceErr: envelope.Err,
				Cause:      fmt.Errorf("generation reported failure"),
			}
		}
		slides := envelope.Data
		if len(slides) == 0 {
			slides = envelope.Slides
		}
		if len(slides) == 0 {
			if envelope.Message != "" {
				return GenerationResult{Message: envelope.Message}, nil
			}
			return GenerationResult{}, &errs.ExternalServiceError{
				Service:    "generator",
				Endpoint:   endpoint,
				StatusCode: status,
				Cause:      errs.ErrEmptyGeneration,
			}
		}
		return GenerationResult{Slides: slides}, nil

	default:
		return GenerationResult{}, &errs.ExternalServiceError{
			Service:    "generator",
			Endpoint:   endpoint,
			StatusCode: status,
			Cause:      fmt.Errorf("unrecognized response shape"),
		}
	}
}
