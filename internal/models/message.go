package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message types.
const (
	MessageText       = "text"
	MessageImage      = "image"
	MessageVideo      = "video"
	MessageFlashcards = "flashcards"
	MessageSystem     = "system"
)

type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	IsFromUser     bool           `gorm:"not null" json:"is_from_user"`
	MessageType    string         `gorm:"size:20;not null;default:'text'" json:"message_type"`
	MediaPath      string         `gorm:"size:500" json:"media_path,omitempty"`
	Flashcards     datatypes.JSON `gorm:"type:jsonb" json:"flashcards,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Conversation   Conversation   `gorm:"foreignKey:ConversationID" json:"-"`
}
