package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type ConversationResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	IsArchived    bool       `json:"is_archived"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

type MessageResponse struct {
	ID          uuid.UUID      `json:"id"`
	Content     string         `json:"content"`
	IsFromUser  bool           `json:"is_from_user"`
	MessageType string         `json:"message_type"`
	MediaPath   string         `json:"media_path,omitempty"`
	Flashcards  datatypes.JSON `json:"flashcards,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
