package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RequestOtpRequest struct {
	Phone string `json:"phone"`
}

type VerifyOtpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty"`
	Age            *int    `json:"age,omitempty"`
	Nationality    *string `json:"nationality,omitempty"`
	Region         *string `json:"region,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	EducationLevel *string `json:"education_level,omitempty"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          *string    `json:"phone,omitempty"`
	Age            *int       `json:"age,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	Region         string     `json:"region,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	EducationLevel string     `json:"education_level,omitempty"`
	PhoneVerified  bool       `json:"phone_verified"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
