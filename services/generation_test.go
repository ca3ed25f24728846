package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckdraft/proposal-backend/errs"
	"github.com/deckdraft/proposal-backend/models"
)

func TestGenerateSlidesNormalizesNumericIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/proposals/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"data":[{"id":1,"title":"Overview","content":"c","bulletPoints":["x"],"template":"title"}]}`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	result, err := client.GenerateSlides(context.Background(), "Q3 sales", "")
	require.NoError(t, err)
	require.Len(t, result.Slides, 1)
	assert.Equal(t, models.SlideID("1"), result.Slides[0].ID)
	assert.Equal(t, "1", result.Slides[0].ID.String())
}

func TestGenerateSlidesSendsOnlyProvidedFields(t *testing.T) {
	var captured GenerationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		// The omitted field must not appear on the wire at all.
		assert.NotContains(t, string(body), "extractedText")
		io.WriteString(w, `{"success":true,"data":[{"id":"1","title":"t","content":"c","bulletPoints":[],"template":"content"}]}`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	_, err := client.GenerateSlides(context.Background(), "Q3 sales", "")
	require.NoError(t, err)
	assert.Equal(t, "Q3 sales", captured.Description)
}

func TestGenerateSlidesFailureEnvelopeSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"X"}`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	_, err := client.GenerateSlides(context.Background(), "anything", "")
	require.Error(t, err)

	var svcErr *errs.ExternalServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "X", svcErr.UserMessage())
}

func TestGenerateSlidesErrorFieldUsedWhenNoMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"success":false,"error":"backend exploded"}`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	_, err := client.GenerateSlides(context.Background(), "anything", "")
	require.Error(t, err)
	assert.Equal(t, "backend exploded", errs.UserMessageFor(err))
}

func TestGenerateSlidesBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":7,"title":"a","content":"b","bulletPoints":[],"template":"bullets"}]`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	result, err := client.GenerateSlides(context.Background(), "jd", "")
	require.NoError(t, err)
	require.Len(t, result.Slides, 1)
	assert.Equal(t, models.SlideID("7"), result.Slides[0].ID)
	assert.Empty(t, result.Message)
}

func TestGenerateSlidesBareStringIsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `"could not produce slides from that input"`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	result, err := client.GenerateSlides(context.Background(), "gibberish", "")
	require.NoError(t, err)
	assert.Empty(t, result.Slides)
	assert.Equal(t, "could not produce slides from that input", result.Message)
}

func TestGenerateSlidesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewGenerationClient(server.URL, nil)
	_, err := client.GenerateSlides(context.Background(), "anything", "")
	require.Error(t, err)

	var svcErr *errs.ExternalServiceError
	require.True(t, errors.As(err, &svcErr))
	// No structured fields, so the transport error itself is surfaced.
	assert.NotEqual(t, errs.FallbackMessage, svcErr.UserMessage())
	assert.NotEmpty(t, svcErr.UserMessage())
}

func TestExtractTextUploadsDocumentField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/files/upload", r.URL.Path)
		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.pdf", header.Filename)

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "pdf bytes", string(content))

		io.WriteString(w, `{"success":true,"data":{"extractedText":"hello from the pdf"}}`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	text, err := client.ExtractText(context.Background(), "report.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "hello from the pdf", text)
}

func TestExtractTextFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"error":"Only PDF files are allowed"}`)
	}))
	defer server.Close()

	client := NewGenerationClient(server.URL, server.Client())
	_, err := client.ExtractText(context.Background(), "notes.exe", strings.NewReader("nope"))
	require.Error(t, err)
	assert.Equal(t, "Only PDF files are allowed", errs.UserMessageFor(err))
}
