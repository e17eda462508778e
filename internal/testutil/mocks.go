// Package testutil provides in-memory repository fakes for service
// tests. The fakes honor the same atomicity contracts as the postgres
// implementations, guarded by a mutex instead of conditional updates.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/repository"
)

// MockUserRepository is an in-memory repository.UserRepository.
type MockUserRepository struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[uuid.UUID]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.PhoneNumber != nil && *u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

// MockPlanRepository is an in-memory repository.PlanRepository.
type MockPlanRepository struct {
	Plans map[uint]*models.SubscriptionPlan
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{Plans: make(map[uint]*models.SubscriptionPlan)}
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	p, ok := m.Plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepository) ListActive(ctx context.Context) ([]models.SubscriptionPlan, error) {
	out := make([]models.SubscriptionPlan, 0, len(m.Plans))
	for _, p := range m.Plans {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// MockSubscriptionRepository is an in-memory
// repository.SubscriptionRepository whose ConsumeUsage is atomic under
// one mutex, matching the conditional-update contract.
type MockSubscriptionRepository struct {
	mu   sync.Mutex
	Subs map[uuid.UUID]*models.Subscription
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{Subs: make(map[uuid.UUID]*models.Subscription)}
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	cp := *sub
	m.Subs[sub.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.Subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *MockSubscriptionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.Subs {
		if sub.UserID == userID && sub.Status == models.SubscriptionActive {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Subs[sub.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *sub
	m.Subs[sub.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.Subs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if sub.Status == models.SubscriptionActive {
		sub.Status = models.SubscriptionExpired
	}
	return nil
}

func (m *MockSubscriptionRepository) ConsumeUsage(ctx context.Context, id uuid.UUID, resource string, amount, limit int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.Subs[id]
	if !ok {
		return 0, false, repository.ErrNotFound
	}
	used := sub.UsedFor(resource)
	if limit != models.UnlimitedLimit && used+amount > limit {
		return used, false, nil
	}
	m.setUsed(sub, resource, used+amount)
	return used + amount, true, nil
}

func (m *MockSubscriptionRepository) RefundUsage(ctx context.Context, id uuid.UUID, resource string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.Subs[id]
	if !ok {
		return repository.ErrNotFound
	}
	used := sub.UsedFor(resource) - amount
	if used < 0 {
		used = 0
	}
	m.setUsed(sub, resource, used)
	return nil
}

func (m *MockSubscriptionRepository) ResetUsage(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.Subs[id]
	if !ok {
		return repository.ErrNotFound
	}
	sub.TokensUsed, sub.ImagesUsed, sub.VideosUsed, sub.ConversationsUsed = 0, 0, 0, 0
	return nil
}

func (m *MockSubscriptionRepository) ListLapsedActive(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscription
	for _, sub := range m.Subs {
		if sub.Status == models.SubscriptionActive && sub.EndsAt.Before(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepository) setUsed(sub *models.Subscription, resource string, used int64) {
	switch resource {
	case "tokens":
		sub.TokensUsed = used
	case "images":
		sub.ImagesUsed = used
	case "videos":
		sub.VideosUsed = used
	case "conversations":
		sub.ConversationsUsed = used
	}
}

// MockConversationRepository is an in-memory
// repository.ConversationRepository.
type MockConversationRepository struct {
	mu    sync.Mutex
	Convs map[uuid.UUID]*models.Conversation
}

func NewMockConversationRepository() *MockConversationRepository {
	return &MockConversationRepository{Convs: make(map[uuid.UUID]*models.Conversation)}
}

func (m *MockConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.CreatedAt = time.Now()
	cp := *conv
	m.Convs[conv.ID] = &cp
	return nil
}

func (m *MockConversationRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.Convs[id]
	if !ok || conv.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (m *MockConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, archived bool, page, pageSize int) ([]models.Conversation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Conversation
	for _, conv := range m.Convs {
		if conv.UserID == userID && conv.IsArchived == archived {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastMessageAt, out[j].LastMessageAt
		if li == nil || lj == nil {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return li.After(*lj)
	})
	return out, int64(len(out)), nil
}

func (m *MockConversationRepository) SetArchived(ctx context.Context, id, userID uuid.UUID, archived bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.Convs[id]
	if !ok || conv.UserID != userID {
		return repository.ErrNotFound
	}
	conv.IsArchived = archived
	return nil
}

func (m *MockConversationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.Convs[id]
	if !ok || conv.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.Convs, id)
	return nil
}

// MockMessageRepository is an in-memory repository.MessageRepository.
// Append bumps the conversation's last_message_at when the conversation
// repository is attached, mirroring the transactional contract.
type MockMessageRepository struct {
	mu       sync.Mutex
	Messages []models.Message
	Convs    *MockConversationRepository
}

func NewMockMessageRepository(convs *MockConversationRepository) *MockMessageRepository {
	return &MockMessageRepository{Convs: convs}
}

func (m *MockMessageRepository) Append(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.Messages = append(m.Messages, *msg)
	if m.Convs != nil {
		m.Convs.mu.Lock()
		if conv, ok := m.Convs.Convs[msg.ConversationID]; ok {
			at := msg.CreatedAt
			conv.LastMessageAt = &at
		}
		m.Convs.mu.Unlock()
	}
	return nil
}

func (m *MockMessageRepository) Recent(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	all, err := m.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.Messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MockOtpRepository is an in-memory repository.OtpRepository whose
// ClaimAttempt and MarkUsed are atomic under one mutex.
type MockOtpRepository struct {
	mu    sync.Mutex
	Codes map[uuid.UUID]*models.OtpCode
}

func NewMockOtpRepository() *MockOtpRepository {
	return &MockOtpRepository{Codes: make(map[uuid.UUID]*models.OtpCode)}
}

func (m *MockOtpRepository) Replace(ctx context.Context, code *models.OtpCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.Codes {
		if c.PhoneNumber == code.PhoneNumber {
			delete(m.Codes, id)
		}
	}
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	cp := *code
	m.Codes[code.ID] = &cp
	return nil
}

func (m *MockOtpRepository) FindLiveByPhone(ctx context.Context, phone string, now time.Time) (*models.OtpCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Codes {
		if c.PhoneNumber == phone && c.UsedAt == nil && c.ExpiresAt.After(now) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockOtpRepository) ClaimAttempt(ctx context.Context, id uuid.UUID, max int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Codes[id]
	if !ok || c.Attempts >= max {
		return false, nil
	}
	c.Attempts++
	return true, nil
}

func (m *MockOtpRepository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Codes[id]
	if !ok || c.UsedAt != nil {
		return false, nil
	}
	c.UsedAt = &at
	return true, nil
}

// MockPaymentRepository is an in-memory repository.PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	Payments map[uuid.UUID]*models.Payment
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{Payments: make(map[uuid.UUID]*models.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	cp := *payment
	m.Payments[payment.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) FindByProviderRef(ctx context.Context, ref string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Payments {
		if p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

// MockRefreshTokenRepository is an in-memory
// repository.RefreshTokenRepository.
type MockRefreshTokenRepository struct {
	mu     sync.Mutex
	Tokens map[uuid.UUID]*models.RefreshToken
}

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{Tokens: make(map[uuid.UUID]*models.RefreshToken)}
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	cp := *token
	m.Tokens[token.ID] = &cp
	return nil
}

func (m *MockRefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Revoked = true
	return nil
}
