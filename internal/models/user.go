package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	Email           string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PhoneNumber     *string        `gorm:"size:30;uniqueIndex" json:"phone_number,omitempty"`
	Password        string         `gorm:"not null" json:"-"`
	Age             *int           `json:"age,omitempty"`
	Nationality     string         `gorm:"size:100" json:"nationality,omitempty"`
	Region          string         `gorm:"size:100" json:"region,omitempty"`
	Specialization  string         `gorm:"size:100" json:"specialization,omitempty"`
	EducationLevel  string         `gorm:"size:100" json:"education_level,omitempty"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	PhoneVerifiedAt *time.Time     `json:"phone_verified_at,omitempty"`
	LastLoginAt     *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
