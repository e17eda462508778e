// Package conversation manages chat threads and their message history.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/repository"
	"gorm.io/datatypes"
)

var ErrConversationNotFound = errors.New("conversation not found")

// contextWindow is how many recent messages are replayed to the model
// as conversation context.
const contextWindow = 10

// titleMaxRunes caps derived conversation titles. Counted in runes so
// Arabic text is not cut mid-character.
const titleMaxRunes = 30

type Service struct {
	convs repository.ConversationRepository
	msgs  repository.MessageRepository
}

func NewService(convs repository.ConversationRepository, msgs repository.MessageRepository) *Service {
	return &Service{convs: convs, msgs: msgs}
}

// DeriveTitle builds a conversation title from the first user message.
func DeriveTitle(text string) string {
	title := strings.TrimSpace(text)
	if title == "" {
		return "New Conversation"
	}
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return title
}

// GetOrCreate resolves the conversation for a request. With a nil id it
// creates a fresh thread titled from the first message; otherwise it
// loads the thread, enforcing ownership.
func (s *Service) GetOrCreate(ctx context.Context, userID uuid.UUID, id *uuid.UUID, firstMessage string) (*models.Conversation, bool, error) {
	if id != nil {
		conv, err := s.convs.FindByIDForUser(ctx, *id, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, false, ErrConversationNotFound
			}
			return nil, false, err
		}
		return conv, false, nil
	}
	conv := &models.Conversation{
		UserID: userID,
		Title:  DeriveTitle(firstMessage),
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// Create opens an empty thread with an explicit title.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, title string) (*models.Conversation, error) {
	conv := &models.Conversation{
		UserID: userID,
		Title:  DeriveTitle(title),
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// AppendUserMessage records an inbound message on the thread.
func (s *Service) AppendUserMessage(ctx context.Context, convID uuid.UUID, content, msgType, mediaPath string) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: convID,
		Content:        content,
		IsFromUser:     true,
		MessageType:    msgType,
		MediaPath:      mediaPath,
		CreatedAt:      time.Now(),
	}
	if err := s.msgs.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// AppendAssistantMessage records the model's reply on the thread.
func (s *Service) AppendAssistantMessage(ctx context.Context, convID uuid.UUID, content, msgType, mediaPath string, flashcards datatypes.JSON) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: convID,
		Content:        content,
		IsFromUser:     false,
		MessageType:    msgType,
		MediaPath:      mediaPath,
		Flashcards:     flashcards,
		CreatedAt:      time.Now(),
	}
	if err := s.msgs.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// RecentContext returns the last messages of the thread in chronological
// order, sized to the model context window.
func (s *Service) RecentContext(ctx context.Context, convID uuid.UUID) ([]models.Message, error) {
	return s.msgs.Recent(ctx, convID, contextWindow)
}

// List returns a page of the user's conversations, newest activity first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, archived bool, page, pageSize int) ([]models.Conversation, int64, error) {
	return s.convs.ListByUser(ctx, userID, archived, page, pageSize)
}

// Messages returns the full history of a thread the user owns.
func (s *Service) Messages(ctx context.Context, userID, convID uuid.UUID) ([]models.Message, error) {
	if _, err := s.convs.FindByIDForUser(ctx, convID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return s.msgs.ListByConversation(ctx, convID)
}

func (s *Service) SetArchived(ctx context.Context, userID, convID uuid.UUID, archived bool) error {
	err := s.convs.SetArchived(ctx, convID, userID, archived)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// Delete removes a thread and its messages.
func (s *Service) Delete(ctx context.Context, userID, convID uuid.UUID) error {
	err := s.convs.Delete(ctx, convID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrConversationNotFound
	}
	return err
}
