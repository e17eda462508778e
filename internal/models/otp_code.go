package models

import (
	"time"

	"github.com/google/uuid"
)

// OtpMaxAttempts caps failed verifications per code.
const OtpMaxAttempts = 3

type OtpCode struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PhoneNumber string     `gorm:"size:30;not null;index" json:"phone_number"`
	Code        string     `gorm:"size:10;not null" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsValid reports whether the code can still be consumed.
func (o *OtpCode) IsValid(now time.Time) bool {
	return o.UsedAt == nil && o.ExpiresAt.After(now) && o.Attempts < OtpMaxAttempts
}
