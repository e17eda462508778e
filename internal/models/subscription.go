package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

type Subscription struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID            uint             `gorm:"not null;index" json:"plan_id"`
	Status            string           `gorm:"not null;default:'pending';size:20;index" json:"status"`
	StartsAt          time.Time        `gorm:"not null" json:"starts_at"`
	EndsAt            time.Time        `gorm:"not null;index" json:"ends_at"`
	AutoRenew         bool             `gorm:"default:true" json:"auto_renew"`
	PaymentReference  string           `gorm:"size:255;index" json:"-"`
	TokensUsed        int64            `gorm:"not null;default:0" json:"tokens_used"`
	ImagesUsed        int64            `gorm:"not null;default:0" json:"images_used"`
	VideosUsed        int64            `gorm:"not null;default:0" json:"videos_used"`
	ConversationsUsed int64            `gorm:"not null;default:0" json:"conversations_used"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	User              User             `gorm:"foreignKey:UserID" json:"-"`
	Plan              SubscriptionPlan `gorm:"foreignKey:PlanID" json:"-"`
}

// IsActive reports whether the subscription currently grants entitlement.
// The stored status alone is not authoritative: an "active" row whose
// period has lapsed is semantically expired.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndsAt.After(now)
}

// UsedFor returns the consumed count for a metered resource column.
func (s *Subscription) UsedFor(resource string) int64 {
	switch resource {
	case "tokens":
		return s.TokensUsed
	case "images":
		return s.ImagesUsed
	case "videos":
		return s.VideosUsed
	case "conversations":
		return s.ConversationsUsed
	}
	return 0
}
