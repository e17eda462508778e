package testutil

import (
	"context"
	"sync"

	"github.com/medicothink/medicothink-backend/internal/ai"
)

// ScriptedChatProvider returns a fixed reply or error and records the
// messages it was called with.
type ScriptedChatProvider struct {
	mu       sync.Mutex
	Id       string
	Reply    string
	Err      error
	Calls    int
	LastMsgs []ai.ChatMessage
}

func (p *ScriptedChatProvider) Name() string { return p.Id }

func (p *ScriptedChatProvider) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	p.LastMsgs = messages
	if p.Err != nil {
		return "", p.Err
	}
	return p.Reply, nil
}

// ScriptedVisionProvider returns a fixed analysis or error.
type ScriptedVisionProvider struct {
	Id    string
	Reply string
	Err   error
	Calls int
}

func (p *ScriptedVisionProvider) Name() string { return p.Id }

func (p *ScriptedVisionProvider) AnalyzeImage(ctx context.Context, systemPrompt, question string, imageData []byte) (string, error) {
	p.Calls++
	if p.Err != nil {
		return "", p.Err
	}
	return p.Reply, nil
}

// ScriptedImageProvider returns fixed bytes or an error.
type ScriptedImageProvider struct {
	Id    string
	Data  []byte
	Err   error
	Calls int
}

func (p *ScriptedImageProvider) Name() string { return p.Id }

func (p *ScriptedImageProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Data, nil
}

// ScriptedVideoProvider returns fixed bytes or an error.
type ScriptedVideoProvider struct {
	Id    string
	Data  []byte
	Err   error
	Calls int
}

func (p *ScriptedVideoProvider) Name() string { return p.Id }

func (p *ScriptedVideoProvider) GenerateVideo(ctx context.Context, prompt string) ([]byte, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Data, nil
}
