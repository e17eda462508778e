// Package subscription implements the subscription lifecycle: activation
// on payment, entitlement checks, cancellation, renewal and the periodic
// expiry sweep.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/quota"
	"github.com/medicothink/medicothink-backend/internal/repository"
)

var (
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrNotRenewable         = errors.New("subscription is not renewable")
	ErrAlreadyActivated     = errors.New("payment reference already activated")
)

type Service struct {
	subs  repository.SubscriptionRepository
	plans repository.PlanRepository
	now   func() time.Time
}

func NewService(subs repository.SubscriptionRepository, plans repository.PlanRepository) *Service {
	return &Service{subs: subs, plans: plans, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IsEntitled returns the user's active subscription, demoting on read any
// row whose paid period has lapsed since the last sweep.
func (s *Service) IsEntitled(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	if !sub.IsActive(s.now()) {
		if err := s.subs.MarkExpired(ctx, sub.ID); err != nil {
			return nil, err
		}
		return nil, ErrNoActiveSubscription
	}
	return sub, nil
}

// CreatePending records a subscription awaiting payment confirmation.
func (s *Service) CreatePending(ctx context.Context, userID uuid.UUID, planID uint, paymentRef string) (*models.Subscription, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	now := s.now()
	sub := &models.Subscription{
		UserID:           userID,
		PlanID:           plan.ID,
		Status:           models.SubscriptionPending,
		StartsAt:         now,
		EndsAt:           plan.PeriodEnd(now),
		AutoRenew:        true,
		PaymentReference: paymentRef,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	sub.Plan = *plan
	return sub, nil
}

// Activate flips a pending subscription to active once payment settles.
// The period starts at activation, not at checkout. Activating an
// already-active subscription is a no-op so webhook retries stay safe.
func (s *Service) Activate(ctx context.Context, subID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subs.FindByID(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionActive {
		return sub, nil
	}
	if sub.Status != models.SubscriptionPending {
		return nil, ErrAlreadyActivated
	}
	now := s.now()
	sub.Status = models.SubscriptionActive
	sub.StartsAt = now
	sub.EndsAt = sub.Plan.PeriodEnd(now)
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	slog.Info("subscription activated",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"plan_id", sub.PlanID,
		"ends_at", sub.EndsAt)
	return sub, nil
}

// Cancel turns off auto-renewal. An active subscription keeps its status
// until the paid period ends; only a pending one is cancelled outright.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	sub.AutoRenew = false
	if sub.Status == models.SubscriptionPending {
		sub.Status = models.SubscriptionCancelled
	}
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	slog.Info("subscription cancelled", "subscription_id", sub.ID, "user_id", userID)
	return sub, nil
}

// Reject handles a failed or refunded payment: a pending subscription is
// cancelled outright, an active one is demoted to expired.
func (s *Service) Reject(ctx context.Context, subID uuid.UUID) error {
	sub, err := s.subs.FindByID(ctx, subID)
	if err != nil {
		return err
	}
	switch sub.Status {
	case models.SubscriptionPending:
		sub.Status = models.SubscriptionCancelled
		return s.subs.Update(ctx, sub)
	case models.SubscriptionActive:
		return s.subs.MarkExpired(ctx, sub.ID)
	}
	return nil
}

// Renew extends the subscription one plan period past its current end
// and zeroes all usage counters for the new period. A subscription with
// auto-renew turned off is not renewable: cancellation means the current
// period is the last one.
func (s *Service) Renew(ctx context.Context, subID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subs.FindByID(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionActive && sub.Status != models.SubscriptionExpired {
		return nil, ErrNotRenewable
	}
	if !sub.AutoRenew {
		return nil, ErrNotRenewable
	}
	sub.Status = models.SubscriptionActive
	sub.EndsAt = sub.Plan.PeriodEnd(sub.EndsAt)
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.subs.ResetUsage(ctx, sub.ID); err != nil {
		return nil, err
	}
	sub.TokensUsed, sub.ImagesUsed, sub.VideosUsed, sub.ConversationsUsed = 0, 0, 0, 0
	slog.Info("subscription renewed", "subscription_id", sub.ID, "ends_at", sub.EndsAt)
	return sub, nil
}

// Sweep processes every lapsed subscription still marked active: ones
// with auto-renew on roll into a fresh period, the rest are expired. It
// runs from a cron schedule and returns the number of rows touched.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	lapsed, err := s.subs.ListLapsedActive(ctx, s.now())
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, sub := range lapsed {
		if sub.AutoRenew {
			if _, err := s.Renew(ctx, sub.ID); err != nil {
				slog.Error("failed to renew subscription", "subscription_id", sub.ID, "error", err)
				continue
			}
		} else if err := s.subs.MarkExpired(ctx, sub.ID); err != nil {
			slog.Error("failed to expire subscription", "subscription_id", sub.ID, "error", err)
			continue
		}
		swept++
	}
	if swept > 0 {
		slog.Info("expiry sweep complete", "swept", swept)
	}
	return swept, nil
}

// StatusReport is the subscription summary returned to the client.
type StatusReport struct {
	Active    bool             `json:"active"`
	Status    string           `json:"status,omitempty"`
	PlanName  string           `json:"plan_name,omitempty"`
	StartsAt  *time.Time       `json:"starts_at,omitempty"`
	EndsAt    *time.Time       `json:"ends_at,omitempty"`
	AutoRenew bool             `json:"auto_renew,omitempty"`
	DaysLeft  int              `json:"days_left,omitempty"`
	Usage     []quota.Snapshot `json:"usage,omitempty"`
}

// Status builds the report for a user, including usage against limits.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*StatusReport, error) {
	sub, err := s.IsEntitled(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return &StatusReport{Active: false}, nil
		}
		return nil, err
	}
	daysLeft := int(sub.EndsAt.Sub(s.now()).Hours() / 24)
	if daysLeft < 0 {
		daysLeft = 0
	}
	return &StatusReport{
		Active:    true,
		Status:    sub.Status,
		PlanName:  sub.Plan.Name,
		StartsAt:  &sub.StartsAt,
		EndsAt:    &sub.EndsAt,
		AutoRenew: sub.AutoRenew,
		DaysLeft:  daysLeft,
		Usage:     quota.Usage(sub),
	}, nil
}
