// Package ai routes model requests through ordered provider chains with
// per-kind timeouts. Chat-style requests degrade to a language-matched
// apology when every provider fails; media generation surfaces
// ErrProviderUnavailable instead so callers can refund the reservation.
package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/medicothink/medicothink-backend/internal/storage"
)

// Timeouts bounds each request kind independently. Media generation is
// allowed far longer than chat.
type Timeouts struct {
	Chat   time.Duration
	Vision time.Duration
	Image  time.Duration
	Video  time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Chat:   30 * time.Second,
		Vision: 60 * time.Second,
		Image:  120 * time.Second,
		Video:  180 * time.Second,
	}
}

// ChatResult carries a completion plus degradation state. Degraded means
// every provider failed and Text holds an apology rather than a model
// answer.
type ChatResult struct {
	Text     string
	Provider string
	Degraded bool
}

// MediaResult points at a stored generated asset.
type MediaResult struct {
	Path     string
	URL      string
	Provider string
}

// FlashcardsResult carries parsed cards. Degraded means the cards are
// placeholders because no provider output could be parsed.
type FlashcardsResult struct {
	Cards    []Flashcard
	Provider string
	Degraded bool
}

type Gateway struct {
	chat     []ChatProvider
	vision   []VisionProvider
	image    []ImageProvider
	video    []VideoProvider
	store    storage.Store
	timeouts Timeouts
}

// GatewayConfig wires provider chains in fallback order.
type GatewayConfig struct {
	Chat     []ChatProvider
	Vision   []VisionProvider
	Image    []ImageProvider
	Video    []VideoProvider
	Store    storage.Store
	Timeouts Timeouts
}

func NewGateway(cfg GatewayConfig) *Gateway {
	t := cfg.Timeouts
	if t == (Timeouts{}) {
		t = DefaultTimeouts()
	}
	return &Gateway{
		chat:     cfg.Chat,
		vision:   cfg.Vision,
		image:    cfg.Image,
		video:    cfg.Video,
		store:    cfg.Store,
		timeouts: t,
	}
}

// Chat completes the user's message against the conversation history,
// walking the provider chain in order.
func (g *Gateway) Chat(ctx context.Context, userMessage string, history []ChatMessage) *ChatResult {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: SystemPrompt(userMessage)})
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: RoleUser, Content: userMessage})

	for _, p := range g.chat {
		text, err := g.completeWith(ctx, p, messages)
		if err != nil {
			slog.Warn("chat provider failed", "provider", p.Name(), "error", err)
			continue
		}
		return &ChatResult{Text: text, Provider: p.Name()}
	}
	return &ChatResult{Text: chatApology(userMessage), Degraded: true}
}

func (g *Gateway) completeWith(ctx context.Context, p ChatProvider, messages []ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeouts.Chat)
	defer cancel()
	return p.Complete(ctx, messages)
}

// AnalyzeImage answers a question about an uploaded image. Like Chat it
// degrades to an apology when the chain is exhausted.
func (g *Gateway) AnalyzeImage(ctx context.Context, question string, imageData []byte) *ChatResult {
	if question == "" {
		question = "Please analyze this medical image."
	}
	prompt := SystemPrompt(question) + visionSuffix

	for _, p := range g.vision {
		vctx, cancel := context.WithTimeout(ctx, g.timeouts.Vision)
		text, err := p.AnalyzeImage(vctx, prompt, question, imageData)
		cancel()
		if err != nil {
			slog.Warn("vision provider failed", "provider", p.Name(), "error", err)
			continue
		}
		return &ChatResult{Text: text, Provider: p.Name()}
	}
	return &ChatResult{Text: visionApology(question), Degraded: true}
}

// GenerateImage renders an illustration and stores it under the media
// root. Returns ErrProviderUnavailable when every provider failed.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string) (*MediaResult, error) {
	for _, p := range g.image {
		ictx, cancel := context.WithTimeout(ctx, g.timeouts.Image)
		data, err := p.GenerateImage(ictx, prompt)
		cancel()
		if err != nil {
			slog.Warn("image provider failed", "provider", p.Name(), "error", err)
			continue
		}
		path, err := g.store.Put(ctx, "generated_images", "png", data)
		if err != nil {
			return nil, err
		}
		return &MediaResult{Path: path, URL: g.store.PublicURL(path), Provider: p.Name()}, nil
	}
	return nil, ErrProviderUnavailable
}

// GenerateVideo renders a clip and stores it under the media root.
func (g *Gateway) GenerateVideo(ctx context.Context, prompt string) (*MediaResult, error) {
	for _, p := range g.video {
		vctx, cancel := context.WithTimeout(ctx, g.timeouts.Video)
		data, err := p.GenerateVideo(vctx, prompt)
		cancel()
		if err != nil {
			slog.Warn("video provider failed", "provider", p.Name(), "error", err)
			continue
		}
		path, err := g.store.Put(ctx, "generated_videos", "mp4", data)
		if err != nil {
			return nil, err
		}
		return &MediaResult{Path: path, URL: g.store.PublicURL(path), Provider: p.Name()}, nil
	}
	return nil, ErrProviderUnavailable
}

// Flashcards generates study cards for a topic, trying each chat
// provider until one returns parseable cards, then falling back to
// placeholders.
func (g *Gateway) Flashcards(ctx context.Context, topic string, count int) *FlashcardsResult {
	if count <= 0 {
		count = 5
	}
	messages := []ChatMessage{
		{Role: RoleSystem, Content: SystemPrompt(topic) + flashcardsSuffix},
		{Role: RoleUser, Content: FlashcardsPrompt(topic, count)},
	}
	for _, p := range g.chat {
		text, err := g.completeWith(ctx, p, messages)
		if err != nil {
			slog.Warn("flashcards provider failed", "provider", p.Name(), "error", err)
			continue
		}
		if cards := ParseFlashcards(text); len(cards) > 0 {
			return &FlashcardsResult{Cards: cards, Provider: p.Name()}
		}
		slog.Warn("flashcards output unparseable", "provider", p.Name())
	}
	return &FlashcardsResult{
		Cards:    PlaceholderFlashcards(topic, count, IsArabic(topic)),
		Degraded: true,
	}
}
