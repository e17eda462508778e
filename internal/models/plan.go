package models

import (
	"time"

	"gorm.io/datatypes"
)

// UnlimitedLimit is the sentinel value for a plan resource with no cap.
const UnlimitedLimit int64 = -1

type SubscriptionPlan struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"size:50;not null;uniqueIndex" json:"name"`
	DisplayNameEn      string         `gorm:"size:255;not null" json:"display_name_en"`
	DisplayNameAr      string         `gorm:"size:255;not null" json:"display_name_ar"`
	Price              float64        `gorm:"type:decimal(8,2);not null" json:"price"`
	Currency           string         `gorm:"size:3;default:'USD'" json:"currency"`
	Duration           string         `gorm:"size:20;not null;default:'monthly'" json:"duration"`
	TokensLimit        int64          `gorm:"not null" json:"tokens_limit"`
	ImagesLimit        int64          `gorm:"not null" json:"images_limit"`
	VideosLimit        int64          `gorm:"not null" json:"videos_limit"`
	ConversationsLimit int64          `gorm:"not null" json:"conversations_limit"`
	Features           datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"features"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	IsPopular          bool           `gorm:"default:false" json:"is_popular"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// LimitFor returns the plan cap for a metered resource column.
func (p *SubscriptionPlan) LimitFor(resource string) int64 {
	switch resource {
	case "tokens":
		return p.TokensLimit
	case "images":
		return p.ImagesLimit
	case "videos":
		return p.VideosLimit
	case "conversations":
		return p.ConversationsLimit
	}
	return 0
}

// PeriodEnd returns the end of one billing period starting at from.
func (p *SubscriptionPlan) PeriodEnd(from time.Time) time.Time {
	switch p.Duration {
	case "weekly":
		return from.AddDate(0, 0, 7)
	case "yearly":
		return from.AddDate(1, 0, 0)
	default: // monthly
		return from.AddDate(0, 1, 0)
	}
}
