package ai

import (
	"context"
	"errors"
)

// Request kinds handled by the gateway.
const (
	KindChat       = "chat"
	KindVision     = "vision"
	KindImage      = "image_generation"
	KindVideo      = "video_generation"
	KindFlashcards = "flashcards"
)

// ErrProviderUnavailable is returned when every provider in a chain
// failed for a request kind that has no conversational fallback.
var ErrProviderUnavailable = errors.New("no AI provider available")

// ChatMessage is one turn of conversation context sent to a provider.
type ChatMessage struct {
	Role    string
	Content string
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatProvider produces a text completion from conversation history.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// VisionProvider answers a question about an image supplied as raw bytes.
type VisionProvider interface {
	Name() string
	AnalyzeImage(ctx context.Context, systemPrompt, question string, imageData []byte) (string, error)
}

// ImageProvider renders an image from a prompt and returns the raw bytes.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// VideoProvider renders a short video clip from a prompt.
type VideoProvider interface {
	Name() string
	GenerateVideo(ctx context.Context, prompt string) ([]byte, error)
}
