// Package llm is the text-generation boundary: a thin client for a local
// Ollama server. Everything the pipeline asks a language model is funneled
// through Client.Generate so callers can fall back when the service is down.
package llm

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

// ErrUnavailable marks failures where the model service cannot be reached
// or returned nothing useful. Callers treat it as a signal to fall through
// their fallback chain, not as a fatal error.
var ErrUnavailable = errors.New("llm: service unavailable")

// TextGenerator is the one operation the pipeline needs from a language
// model. *Client implements it; tests substitute canned generators.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string, temperature float64) (string, error)
}

// Client talks to an Ollama server over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. An empty baseURL falls back to OLLAMA_HOST or the
// default local endpoint.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate sends one prompt and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	reqBody := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
	if temperature > 0 {
		reqBody.Options = map[string]any{"temperature": temperature}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(bodyBytes))
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

	var genResp generateResponse
	if err := json.Unmarshal(respBytes, &genResp); err != nil {
		return "", fmt.Errorf("parse ollama response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, genResp.Error)
	}
	if strings.TrimSpace(genResp.Response) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return genResp.Response, nil
}

// Ping verifies the model server answers at all. Used by the setup-check
// step; a failed ping is logged, not fatal, since every generator carries
// offline fallbacks.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// CleanJSON strips markdown fences models sometimes wrap around JSON.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
