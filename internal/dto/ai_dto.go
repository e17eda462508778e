package dto

import (
	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/ai"
)

type ChatRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message"`
}

type AnalyzeImageRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	// Image is the upload encoded as base64.
	Image    string `json:"image"`
	Question string `json:"question,omitempty"`
}

type GenerateImageRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Prompt         string     `json:"prompt"`
}

type GenerateVideoRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Prompt         string     `json:"prompt"`
}

type FlashcardsRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Topic          string     `json:"topic"`
	Count          int        `json:"count,omitempty"`
}

type AIResponse struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	Reply          MessageResponse `json:"reply"`
	Flashcards     []ai.Flashcard  `json:"flashcards,omitempty"`
	MediaURL       string          `json:"media_url,omitempty"`
	Provider       string          `json:"provider,omitempty"`
	Degraded       bool            `json:"degraded,omitempty"`
	Remaining      int64           `json:"remaining"`
	Unlimited      bool            `json:"unlimited"`
}

type LimitExceededResponse struct {
	Error    bool   `json:"error"`
	Message  string `json:"message"`
	Resource string `json:"resource"`
	Used     int64  `json:"used"`
	Limit    int64  `json:"limit"`
}
