// Package orchestrator drives an AI request end to end: entitlement
// check, quota reservation, conversation resolution, provider call and
// persistence of the exchange. Quota is reserved before any provider
// work so a request that cannot be billed never reaches the gateway.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/ai"
	"github.com/medicothink/medicothink-backend/internal/conversation"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/quota"
	"github.com/medicothink/medicothink-backend/internal/subscription"
)

var (
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrUnsupportedKind      = errors.New("unsupported request kind")
)

// kindResources maps each request kind to the metered resource it bills.
var kindResources = map[string]string{
	ai.KindChat:       quota.ResourceTokens,
	ai.KindFlashcards: quota.ResourceTokens,
	ai.KindVision:     quota.ResourceImages,
	ai.KindImage:      quota.ResourceImages,
	ai.KindVideo:      quota.ResourceVideos,
}

// Input is one inbound AI request.
type Input struct {
	Kind           string
	ConversationID *uuid.UUID
	Text           string
	ImageData      []byte
	Count          int
}

// Result is the completed exchange returned to the handler layer.
type Result struct {
	ConversationID uuid.UUID
	UserMessage    *models.Message
	Reply          *models.Message
	Flashcards     []ai.Flashcard
	MediaURL       string
	Provider       string
	Degraded       bool
	Remaining      int64
	Unlimited      bool
}

type Orchestrator struct {
	subs    *subscription.Service
	ledger  *quota.Ledger
	convs   *conversation.Service
	gateway *ai.Gateway
	// refundOnFailure refunds the reservation when every provider fails
	// on a non-chat request. Off by default: reserved means billed.
	refundOnFailure bool
}

func New(subs *subscription.Service, ledger *quota.Ledger, convs *conversation.Service, gateway *ai.Gateway, refundOnFailure bool) *Orchestrator {
	return &Orchestrator{
		subs:            subs,
		ledger:          ledger,
		convs:           convs,
		gateway:         gateway,
		refundOnFailure: refundOnFailure,
	}
}

// Handle runs the request pipeline. Entitlement and quota failures
// short-circuit before any provider call. *quota.LimitExceededError and
// ErrSubscriptionRequired are returned unwrapped for the handler layer.
func (o *Orchestrator) Handle(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	resource, ok := kindResources[input.Kind]
	if !ok {
		return nil, ErrUnsupportedKind
	}

	sub, err := o.subs.IsEntitled(ctx, userID)
	if err != nil {
		if errors.Is(err, subscription.ErrNoActiveSubscription) {
			return nil, ErrSubscriptionRequired
		}
		return nil, err
	}

	res, err := o.ledger.TryConsume(ctx, sub, resource, 1)
	if err != nil {
		return nil, err
	}

	conv, created, err := o.convs.GetOrCreate(ctx, userID, input.ConversationID, input.Text)
	if err != nil {
		// No provider work happened, so the reservation is released.
		if rerr := o.ledger.Refund(ctx, sub.ID, resource, 1); rerr != nil {
			slog.Error("failed to release reservation", "subscription_id", sub.ID, "resource", resource, "error", rerr)
		}
		return nil, err
	}
	if created {
		// New threads count against the conversations limit. A denial
		// here releases the resource reservation made above.
		if _, cerr := o.ledger.TryConsume(ctx, sub, quota.ResourceConversations, 1); cerr != nil {
			if rerr := o.ledger.Refund(ctx, sub.ID, resource, 1); rerr != nil {
				slog.Error("failed to release reservation", "subscription_id", sub.ID, "resource", resource, "error", rerr)
			}
			return nil, cerr
		}
	}

	result := &Result{
		ConversationID: conv.ID,
		Remaining:      res.Remaining,
		Unlimited:      res.Unlimited,
	}

	switch input.Kind {
	case ai.KindChat:
		err = o.handleChat(ctx, conv, input, result)
	case ai.KindVision:
		err = o.handleVision(ctx, conv, input, result)
	case ai.KindImage:
		err = o.handleImage(ctx, conv, input, result)
	case ai.KindVideo:
		err = o.handleVideo(ctx, conv, input, result)
	case ai.KindFlashcards:
		err = o.handleFlashcards(ctx, conv, input, result)
	}
	if err != nil {
		if errors.Is(err, ai.ErrProviderUnavailable) && o.refundOnFailure {
			if rerr := o.ledger.Refund(ctx, sub.ID, resource, 1); rerr != nil {
				slog.Error("failed to refund reservation", "subscription_id", sub.ID, "resource", resource, "error", rerr)
			}
		}
		return nil, err
	}
	if result.Degraded && o.refundOnFailure && input.Kind != ai.KindChat {
		if rerr := o.ledger.Refund(ctx, sub.ID, resource, 1); rerr != nil {
			slog.Error("failed to refund reservation", "subscription_id", sub.ID, "resource", resource, "error", rerr)
		}
	}
	return result, nil
}

func (o *Orchestrator) handleChat(ctx context.Context, conv *models.Conversation, input Input, result *Result) error {
	history, err := o.recentHistory(ctx, conv.ID)
	if err != nil {
		return err
	}
	userMsg, err := o.convs.AppendUserMessage(ctx, conv.ID, input.Text, models.MessageText, "")
	if err != nil {
		return err
	}

	chat := o.gateway.Chat(ctx, input.Text, history)
	reply, err := o.convs.AppendAssistantMessage(ctx, conv.ID, chat.Text, models.MessageText, "", nil)
	if err != nil {
		return err
	}

	result.UserMessage = userMsg
	result.Reply = reply
	result.Provider = chat.Provider
	result.Degraded = chat.Degraded
	return nil
}

func (o *Orchestrator) handleVision(ctx context.Context, conv *models.Conversation, input Input, result *Result) error {
	question := input.Text
	if question == "" {
		question = "Please analyze this medical image."
	}
	userMsg, err := o.convs.AppendUserMessage(ctx, conv.ID, question, models.MessageImage, "")
	if err != nil {
		return err
	}

	analysis := o.gateway.AnalyzeImage(ctx, input.Text, input.ImageData)
	reply, err := o.convs.AppendAssistantMessage(ctx, conv.ID, analysis.Text, models.MessageText, "", nil)
	if err != nil {
		return err
	}

	result.UserMessage = userMsg
	result.Reply = reply
	result.Provider = analysis.Provider
	result.Degraded = analysis.Degraded
	return nil
}

func (o *Orchestrator) handleImage(ctx context.Context, conv *models.Conversation, input Input, result *Result) error {
	userMsg, err := o.convs.AppendUserMessage(ctx, conv.ID, input.Text, models.MessageText, "")
	if err != nil {
		return err
	}

	media, err := o.gateway.GenerateImage(ctx, input.Text)
	if err != nil {
		return err
	}
	reply, err := o.convs.AppendAssistantMessage(ctx, conv.ID, "Generated image for: "+input.Text, models.MessageImage, media.Path, nil)
	if err != nil {
		return err
	}

	result.UserMessage = userMsg
	result.Reply = reply
	result.MediaURL = media.URL
	result.Provider = media.Provider
	return nil
}

func (o *Orchestrator) handleVideo(ctx context.Context, conv *models.Conversation, input Input, result *Result) error {
	userMsg, err := o.convs.AppendUserMessage(ctx, conv.ID, input.Text, models.MessageText, "")
	if err != nil {
		return err
	}

	media, err := o.gateway.GenerateVideo(ctx, input.Text)
	if err != nil {
		return err
	}
	reply, err := o.convs.AppendAssistantMessage(ctx, conv.ID, "Generated video for: "+input.Text, models.MessageVideo, media.Path, nil)
	if err != nil {
		return err
	}

	result.UserMessage = userMsg
	result.Reply = reply
	result.MediaURL = media.URL
	result.Provider = media.Provider
	return nil
}

func (o *Orchestrator) handleFlashcards(ctx context.Context, conv *models.Conversation, input Input, result *Result) error {
	userMsg, err := o.convs.AppendUserMessage(ctx, conv.ID, input.Text, models.MessageText, "")
	if err != nil {
		return err
	}

	fc := o.gateway.Flashcards(ctx, input.Text, input.Count)
	payload, err := json.Marshal(fc.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode flashcards: %w", err)
	}
	content := fmt.Sprintf("Generated %d flashcards for: %s", len(fc.Cards), input.Text)
	reply, err := o.convs.AppendAssistantMessage(ctx, conv.ID, content, models.MessageFlashcards, "", payload)
	if err != nil {
		return err
	}

	result.UserMessage = userMsg
	result.Reply = reply
	result.Flashcards = fc.Cards
	result.Provider = fc.Provider
	result.Degraded = fc.Degraded
	return nil
}

// recentHistory converts the conversation's context window into gateway
// chat turns. Called before the new user message is appended so the
// window holds only prior exchanges.
func (o *Orchestrator) recentHistory(ctx context.Context, convID uuid.UUID) ([]ai.ChatMessage, error) {
	msgs, err := o.convs.RecentContext(ctx, convID)
	if err != nil {
		return nil, err
	}
	history := make([]ai.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := ai.RoleAssistant
		if m.IsFromUser {
			role = ai.RoleUser
		}
		history = append(history, ai.ChatMessage{Role: role, Content: m.Content})
	}
	return history, nil
}
