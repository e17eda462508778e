// Package repository defines the narrow persistence interfaces the
// services are built against. The GORM implementations live in the
// postgres subpackage; internal/testutil holds in-memory fakes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type PlanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]models.SubscriptionPlan, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	// FindActiveByUser returns the user's subscription with stored status
	// "active" regardless of ends_at; the caller decides whether it has
	// lapsed. Returns ErrNotFound when the user has none.
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	// MarkExpired demotes the row to "expired" only if it is still "active".
	MarkExpired(ctx context.Context, id uuid.UUID) error
	// ConsumeUsage atomically adds amount to the resource counter iff the
	// result stays within limit. A limit of models.UnlimitedLimit always
	// succeeds. Returns the counter value after the operation (or the
	// current value on denial) and whether the consumption was applied.
	ConsumeUsage(ctx context.Context, id uuid.UUID, resource string, amount, limit int64) (int64, bool, error)
	RefundUsage(ctx context.Context, id uuid.UUID, resource string, amount int64) error
	ResetUsage(ctx context.Context, id uuid.UUID) error
	// ListLapsedActive returns subscriptions still marked "active" whose
	// period ended before now.
	ListLapsedActive(ctx context.Context, now time.Time) ([]models.Subscription, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, archived bool, page, pageSize int) ([]models.Conversation, int64, error)
	SetArchived(ctx context.Context, id, userID uuid.UUID, archived bool) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type MessageRepository interface {
	// Append persists the message and bumps the parent conversation's
	// last_message_at in the same transaction.
	Append(ctx context.Context, msg *models.Message) error
	// Recent returns the most recent limit messages in chronological order.
	Recent(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
}

type OtpRepository interface {
	// Replace removes any prior codes for the phone number and stores the
	// new one, keeping at most one live code per phone.
	Replace(ctx context.Context, code *models.OtpCode) error
	// FindLiveByPhone returns the unused, unexpired code for the phone
	// number, or ErrNotFound.
	FindLiveByPhone(ctx context.Context, phone string, now time.Time) (*models.OtpCode, error)
	// ClaimAttempt atomically increments attempts iff attempts < max.
	ClaimAttempt(ctx context.Context, id uuid.UUID, max int) (bool, error)
	// MarkUsed sets used_at iff it is still null.
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByProviderRef(ctx context.Context, ref string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}
