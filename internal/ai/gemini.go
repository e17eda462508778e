package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GeminiProvider is the text-only fallback behind OpenAI. The API has no
// system role, so the persona prompt is folded into a single text part.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewGeminiProvider(apiKey, baseURL, model string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		case RoleUser:
			sb.WriteString("\nUser: ")
			sb.WriteString(m.Content)
		case RoleAssistant:
			sb.WriteString("\nAssistant: ")
			sb.WriteString(m.Content)
		}
	}
	sb.WriteString("\n\nAssistant:")

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: sb.String()}}}},
		Config:   geminiGenConfig{Temperature: 0.7, MaxOutputTokens: 1000},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
