package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider serves chat, vision and image generation through the
// OpenAI API.
type OpenAIProvider struct {
	client      *openai.Client
	chatModel   string
	visionModel string
	imageModel  string
}

func NewOpenAIProvider(apiKey, chatModel, visionModel, imageModel string) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		chatModel:   chatModel,
		visionModel: visionModel,
		imageModel:  imageModel,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Messages:    msgs,
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) AnalyzeImage(ctx context.Context, systemPrompt, question string, imageData []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: question},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens: 1000,
	})
	if err != nil {
		return "", fmt.Errorf("openai vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	enhanced := "Medical illustration: " + prompt + " - professional, educational, anatomically accurate"
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Model:          p.imageModel,
		Prompt:         enhanced,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no image data")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %w", err)
	}
	return data, nil
}
