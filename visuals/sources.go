package visuals

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"auto-video-pipeline/types"
)

// DiffusionSource generates images through a Stable Diffusion webui
// txt2img endpoint.
type DiffusionSource struct {
	Endpoint   string
	Width      int
	Height     int
	httpClient *http.Client
}

// NewDiffusionSource creates a DiffusionSource for the given base URL.
func NewDiffusionSource(endpoint string, width, height int) *DiffusionSource {
	return &DiffusionSource{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Width:      width,
		Height:     height,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *DiffusionSource) Name() string { return "stable-diffusion" }

type txt2imgRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Steps          int    `json:"steps"`
	Seed           int    `json:"seed"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

func (s *DiffusionSource) Fetch(ctx context.Context, prompt, dir string, seed int) (string, error) {
	if s.Endpoint == "" {
		return "", fmt.Errorf("no diffusion endpoint configured")
	}

	reqBody := txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: "blurry, low quality, distorted, watermark, text",
		Width:          s.Width,
		Height:         s.Height,
		Steps:          25,
		Seed:           seed*42 + 7, // deterministic per slot for reproducibility
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.Endpoint+"/sdapi/v1/txt2img", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("diffusion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from diffusion endpoint", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var t2i txt2imgResponse
	if err := json.Unmarshal(respBytes, &t2i); err != nil {
		return "", fmt.Errorf("parse txt2img response: %w", err)
	}
	if len(t2i.Images) == 0 {
		return "", fmt.Errorf("diffusion endpoint returned no images")
	}

	imgData, err := base64.StdEncoding.DecodeString(t2i.Images[0])
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if len(imgData) < 100 {
		return "", fmt.Errorf("image too small (%d bytes) — likely an error", len(imgData))
	}

	outFile := filepath.Join(dir, types.UniqueName(types.AssetVisual, ".png"))
	return outFile, os.WriteFile(outFile, imgData, 0644)
}

// StockSource fetches a keyword-matched stock photo. Default endpoint is
// the Unsplash source redirector, which needs no API key.
type StockSource struct {
	Endpoint   string
	Width      int
	Height     int
	httpClient *http.Client
}

// NewStockSource creates a StockSource.
func NewStockSource(endpoint string, width, height int) *StockSource {
	if endpoint == "" {
		endpoint = "https://source.unsplash.com"
	}
	return &StockSource{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Width:      width,
		Height:     height,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *StockSource) Name() string { return "stock-photo" }

func (s *StockSource) Fetch(ctx context.Context, prompt, dir string, _ int) (string, error) {
	keywords := keywordQuery(prompt)
	photoURL := fmt.Sprintf("%s/%dx%d/?%s", s.Endpoint, s.Width, s.Height, url.QueryEscape(keywords))

	req, err := http.NewRequestWithContext(ctx, "GET", photoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AutoVideoPipeline/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stock fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from stock endpoint", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(data) < 100 {
		return "", fmt.Errorf("response too small (%d bytes) — likely an error page", len(data))
	}

	outFile := filepath.Join(dir, types.UniqueName(types.AssetVisual, ".jpg"))
	return outFile, os.WriteFile(outFile, data, 0644)
}

// keywordQuery reduces a full image prompt to a few search keywords.
func keywordQuery(prompt string) string {
	words := strings.Fields(prompt)
	var kept []string
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), ".,!?\"'")
		if len(w) < 4 {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 4 {
			break
		}
	}
	if len(kept) == 0 {
		return "abstract"
	}
	return strings.Join(kept, ",")
}
