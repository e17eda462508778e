package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Payment struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"subscription_id"`
	Amount         float64        `gorm:"type:decimal(8,2);not null" json:"amount"`
	Currency       string         `gorm:"size:3;default:'USD'" json:"currency"`
	Method         string         `gorm:"size:30;not null" json:"method"`
	ProviderRef    string         `gorm:"size:255;uniqueIndex" json:"provider_ref"`
	Status         string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Metadata       datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	User           User           `gorm:"foreignKey:UserID" json:"-"`
	Subscription   Subscription   `gorm:"foreignKey:SubscriptionID" json:"-"`
}
