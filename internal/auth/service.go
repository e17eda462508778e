// Package auth implements email/password and phone-OTP authentication
// with a JWT access token plus rotating opaque refresh token.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/config"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/repository"
	"github.com/medicothink/medicothink-backend/internal/sms"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidOtp          = errors.New("invalid or expired verification code")
	ErrOtpAttemptsExceeded = errors.New("too many verification attempts")
	ErrOtpCooldown         = errors.New("please wait before requesting another code")
)

// CooldownStore throttles OTP resends per phone number.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Service struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	otps   repository.OtpRepository
	sender sms.Sender
	cool   CooldownStore
	cfg    *config.Config
	now    func() time.Time
}

func NewService(users repository.UserRepository, tokens repository.RefreshTokenRepository, otps repository.OtpRepository, sender sms.Sender, cool CooldownStore, cfg *config.Config) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		otps:   otps,
		sender: sender,
		cool:   cool,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Email == "" || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		IsActive: true,
	}
	if req.Phone != "" {
		user.PhoneNumber = &req.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(ctx, user)
}

func (s *Service) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		slog.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	return s.generateTokenPair(ctx, user)
}

// Refresh rotates the refresh token: the presented token is revoked and
// a fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	stored, err := s.tokens.FindByHash(ctx, hashToken(req.RefreshToken))
	if err != nil || stored.Revoked {
		return nil, ErrInvalidToken
	}
	if s.now().After(stored.ExpiresAt) {
		_ = s.tokens.Revoke(ctx, stored.ID)
		return nil, ErrInvalidToken
	}

	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke token: %w", err)
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.generateTokenPair(ctx, user)
}

func (s *Service) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	stored, err := s.tokens.FindByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		return nil
	}
	return s.tokens.Revoke(ctx, stored.ID)
}

// RequestOtp issues a fresh verification code for the phone, replacing
// any prior code, then delivers it by SMS. Requests inside the resend
// cooldown window are rejected before any code is generated.
func (s *Service) RequestOtp(ctx context.Context, phone string) error {
	if phone == "" {
		return errors.New("phone number is required")
	}

	ok, err := s.cool.Acquire(ctx, "otp_cooldown:"+phone, s.cfg.OtpResendCooldown)
	if err != nil {
		slog.Warn("otp cooldown check failed", "error", err)
	} else if !ok {
		return ErrOtpCooldown
	}

	code, err := generateOtpCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	record := &models.OtpCode{
		ID:          uuid.New(),
		PhoneNumber: phone,
		Code:        code,
		ExpiresAt:   s.now().Add(s.cfg.OtpExpiry),
	}
	if err := s.otps.Replace(ctx, record); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.sender.Send(ctx, phone, sms.OtpMessage(code)); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}
	return nil
}

// VerifyOtp checks the code, consuming one attempt even on a wrong
// guess. A correct code is single-use. First-time verification creates
// the account from the phone number.
func (s *Service) VerifyOtp(ctx context.Context, phone, code string) (*dto.AuthResponse, error) {
	record, err := s.otps.FindLiveByPhone(ctx, phone, s.now())
	if err != nil {
		return nil, ErrInvalidOtp
	}

	claimed, err := s.otps.ClaimAttempt(ctx, record.ID, models.OtpMaxAttempts)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrOtpAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return nil, ErrInvalidOtp
	}

	used, err := s.otps.MarkUsed(ctx, record.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, ErrInvalidOtp
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.createPhoneUser(ctx, phone)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.PhoneVerifiedAt == nil {
		user.PhoneVerifiedAt = &now
	}
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		slog.Warn("failed to update user after otp login", "user_id", user.ID, "error", err)
	}

	return s.generateTokenPair(ctx, user)
}

func (s *Service) createPhoneUser(ctx context.Context, phone string) (*models.User, error) {
	digits := strings.TrimPrefix(phone, "+")
	user := &models.User{
		ID:          uuid.New(),
		Name:        "User " + digits,
		Email:       digits + "@phone.medicothink.com",
		PhoneNumber: &phone,
		IsActive:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.sender.Send(ctx, phone, sms.WelcomeMessage(user.Name)); err != nil {
		slog.Warn("failed to send welcome message", "phone", phone, "error", err)
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Nationality != nil {
		user.Nationality = *req.Nationality
	}
	if req.Region != nil {
		user.Region = *req.Region
	}
	if req.Specialization != nil {
		user.Specialization = *req.Specialization
	}
	if req.EducationLevel != nil {
		user.EducationLevel = *req.EducationLevel
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         UserResponse(user),
	}, nil
}

func (s *Service) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   s.now().Unix(),
		"exp":   s.now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Service) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawToken, nil
}

// UserResponse maps a user row to its API shape.
func UserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Phone:          user.PhoneNumber,
		Age:            user.Age,
		Nationality:    user.Nationality,
		Region:         user.Region,
		Specialization: user.Specialization,
		EducationLevel: user.EducationLevel,
		PhoneVerified:  user.PhoneVerifiedAt != nil,
		CreatedAt:      user.CreatedAt,
		LastLoginAt:    user.LastLoginAt,
	}
}

func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
