// Package translate wraps an external translation service
// (LibreTranslate-compatible HTTP API).
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrUnavailable marks an unreachable or failing translation service.
// A failed language is skipped by the assembler, never fatal.
var ErrUnavailable = errors.New("translate: service unavailable")

// Translator converts text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Client is an HTTP Translator.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client. An empty endpoint falls back to TRANSLATE_ENDPOINT.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("TRANSLATE_ENDPOINT")
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     os.Getenv("TRANSLATE_API_KEY"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate sends one text to the service and returns the translation.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}
	if sourceLang == targetLang {
		return text, nil
	}

	reqBody := translateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
		APIKey: c.apiKey,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/translate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var trResp translateResponse
	if err := json.Unmarshal(respBytes, &trResp); err != nil {
		return "", fmt.Errorf("parse translate response: %w", err)
	}
	if trResp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, trResp.Error)
	}
	if strings.TrimSpace(trResp.TranslatedText) == "" {
		return "", fmt.Errorf("%w: empty translation", ErrUnavailable)
	}
	return trResp.TranslatedText, nil
}
