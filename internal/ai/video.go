package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPVideoProvider calls a generic prompt-to-video API that returns a
// download URL for the rendered clip.
type HTTPVideoProvider struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

func NewHTTPVideoProvider(apiKey, apiURL, model string) *HTTPVideoProvider {
	return &HTTPVideoProvider{
		apiKey: apiKey,
		apiURL: strings.TrimRight(apiURL, "/"),
		model:  model,
		client: &http.Client{},
	}
}

func (p *HTTPVideoProvider) Name() string { return "video-api" }

type videoGenRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type videoGenResponse struct {
	VideoURL string `json:"video_url"`
}

func (p *HTTPVideoProvider) GenerateVideo(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(videoGenRequest{Model: p.model, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video generation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("video API error: status %d", resp.StatusCode)
	}

	var parsed videoGenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("video API response: %w", err)
	}
	if parsed.VideoURL == "" {
		return nil, fmt.Errorf("video API returned no video URL")
	}
	return p.download(ctx, parsed.VideoURL)
}

func (p *HTTPVideoProvider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video download failed: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
