package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/testutil"
)

func monthlyPlan() *models.SubscriptionPlan {
	return &models.SubscriptionPlan{
		ID:                 1,
		Name:               "basic",
		Price:              9.99,
		Currency:           "USD",
		Duration:           "monthly",
		TokensLimit:        100,
		ImagesLimit:        10,
		VideosLimit:        2,
		ConversationsLimit: 50,
		IsActive:           true,
	}
}

func newTestService(t *testing.T, now time.Time) (*Service, *testutil.MockSubscriptionRepository, *testutil.MockPlanRepository) {
	t.Helper()
	subs := testutil.NewMockSubscriptionRepository()
	plans := testutil.NewMockPlanRepository()
	plans.Plans[1] = monthlyPlan()
	svc := NewService(subs, plans).WithClock(func() time.Time { return now })
	return svc, subs, plans
}

func activeSub(subs *testutil.MockSubscriptionRepository, userID uuid.UUID, endsAt time.Time) *models.Subscription {
	sub := &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    1,
		Status:    models.SubscriptionActive,
		StartsAt:  endsAt.AddDate(0, -1, 0),
		EndsAt:    endsAt,
		AutoRenew: true,
		Plan:      *monthlyPlan(),
	}
	_ = subs.Create(context.Background(), sub)
	return sub
}

func TestIsEntitled_ActiveWithinPeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)
	userID := uuid.New()
	activeSub(subs, userID, now.Add(24*time.Hour))

	sub, err := svc.IsEntitled(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.SubscriptionActive {
		t.Errorf("status = %s, want active", sub.Status)
	}
}

func TestIsEntitled_LapsedRowDemotedOnRead(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)
	userID := uuid.New()
	sub := activeSub(subs, userID, now.Add(-time.Hour))

	_, err := svc.IsEntitled(context.Background(), userID)
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}

	stored, _ := subs.FindByID(context.Background(), sub.ID)
	if stored.Status != models.SubscriptionExpired {
		t.Errorf("status = %s, want expired after on-read demotion", stored.Status)
	}
}

func TestIsEntitled_NoSubscription(t *testing.T) {
	now := time.Now()
	svc, _, _ := newTestService(t, now)

	_, err := svc.IsEntitled(context.Background(), uuid.New())
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}
}

func TestActivate_PendingBecomesActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)

	pending, err := svc.CreatePending(context.Background(), uuid.New(), 1, "pay_123")
	if err != nil {
		t.Fatal(err)
	}
	// Re-store with plan preloaded like the postgres repo would return.
	stored, _ := subs.FindByID(context.Background(), pending.ID)
	stored.Plan = *monthlyPlan()
	_ = subs.Update(context.Background(), stored)

	sub, err := svc.Activate(context.Background(), pending.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.SubscriptionActive {
		t.Errorf("status = %s, want active", sub.Status)
	}
	wantEnd := now.AddDate(0, 1, 0)
	if !sub.EndsAt.Equal(wantEnd) {
		t.Errorf("ends_at = %v, want %v", sub.EndsAt, wantEnd)
	}

	// Webhook retries re-activate without changing the period.
	again, err := svc.Activate(context.Background(), pending.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.EndsAt.Equal(wantEnd) {
		t.Errorf("repeat activation moved ends_at to %v", again.EndsAt)
	}
}

func TestCancel_KeepsActiveUntilPeriodEnd(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)
	userID := uuid.New()
	endsAt := now.Add(10 * 24 * time.Hour)
	activeSub(subs, userID, endsAt)

	sub, err := svc.Cancel(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if sub.AutoRenew {
		t.Error("auto_renew still true after cancel")
	}
	if sub.Status != models.SubscriptionActive {
		t.Errorf("status = %s, want active until period end", sub.Status)
	}
	if !sub.EndsAt.Equal(endsAt) {
		t.Errorf("ends_at changed to %v", sub.EndsAt)
	}
}

func TestRenew_ExtendsFromPreviousEndAndResetsUsage(t *testing.T) {
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)
	userID := uuid.New()
	endsAt := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	sub := activeSub(subs, userID, endsAt)

	stored, _ := subs.FindByID(context.Background(), sub.ID)
	stored.TokensUsed = 80
	stored.ImagesUsed = 9
	_ = subs.Update(context.Background(), stored)

	renewed, err := svc.Renew(context.Background(), sub.ID)
	if err != nil {
		t.Fatal(err)
	}

	wantEnd := endsAt.AddDate(0, 1, 0)
	if !renewed.EndsAt.Equal(wantEnd) {
		t.Errorf("ends_at = %v, want %v (extends from previous end, not now)", renewed.EndsAt, wantEnd)
	}

	after, _ := subs.FindByID(context.Background(), sub.ID)
	if after.TokensUsed != 0 || after.ImagesUsed != 0 {
		t.Errorf("usage not reset: tokens=%d images=%d", after.TokensUsed, after.ImagesUsed)
	}
}

func TestRenew_RejectsPendingAndCancelled(t *testing.T) {
	now := time.Now()
	svc, subs, _ := newTestService(t, now)
	sub := &models.Subscription{
		ID:     uuid.New(),
		UserID: uuid.New(),
		PlanID: 1,
		Status: models.SubscriptionCancelled,
		EndsAt: now.Add(time.Hour),
		Plan:   *monthlyPlan(),
	}
	_ = subs.Create(context.Background(), sub)

	if _, err := svc.Renew(context.Background(), sub.ID); !errors.Is(err, ErrNotRenewable) {
		t.Fatalf("err = %v, want ErrNotRenewable", err)
	}
}

func TestRenew_RejectsWhenAutoRenewOff(t *testing.T) {
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)
	sub := activeSub(subs, uuid.New(), now.Add(24*time.Hour))

	stored, _ := subs.FindByID(context.Background(), sub.ID)
	stored.AutoRenew = false
	stored.TokensUsed = 50
	_ = subs.Update(context.Background(), stored)

	if _, err := svc.Renew(context.Background(), sub.ID); !errors.Is(err, ErrNotRenewable) {
		t.Fatalf("err = %v, want ErrNotRenewable", err)
	}

	after, _ := subs.FindByID(context.Background(), sub.ID)
	if !after.EndsAt.Equal(sub.EndsAt) {
		t.Errorf("ends_at = %v, want %v (period must not extend)", after.EndsAt, sub.EndsAt)
	}
	if after.TokensUsed != 50 {
		t.Errorf("tokens_used = %d, want 50 (usage must not reset)", after.TokensUsed)
	}
}

func TestSweep_RenewsAutoRenewersAndExpiresTheRest(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)

	renewer := activeSub(subs, uuid.New(), now.Add(-time.Hour))
	stored, _ := subs.FindByID(context.Background(), renewer.ID)
	stored.TokensUsed = 42
	_ = subs.Update(context.Background(), stored)

	lapsed := activeSub(subs, uuid.New(), now.Add(-time.Hour))
	l, _ := subs.FindByID(context.Background(), lapsed.ID)
	l.AutoRenew = false
	_ = subs.Update(context.Background(), l)

	current := activeSub(subs, uuid.New(), now.Add(time.Hour))

	swept, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if swept != 2 {
		t.Errorf("swept = %d, want 2", swept)
	}

	r, _ := subs.FindByID(context.Background(), renewer.ID)
	if r.Status != models.SubscriptionActive {
		t.Errorf("renewer status = %s, want active", r.Status)
	}
	if !r.EndsAt.Equal(renewer.EndsAt.AddDate(0, 1, 0)) {
		t.Errorf("renewer ends_at = %v, want one month past %v", r.EndsAt, renewer.EndsAt)
	}
	if r.TokensUsed != 0 {
		t.Errorf("renewer tokens_used = %d, want 0 after reset", r.TokensUsed)
	}

	l, _ = subs.FindByID(context.Background(), lapsed.ID)
	if l.Status != models.SubscriptionExpired {
		t.Errorf("lapsed status = %s, want expired", l.Status)
	}
	c, _ := subs.FindByID(context.Background(), current.ID)
	if c.Status != models.SubscriptionActive {
		t.Errorf("current status = %s, want active", c.Status)
	}
}

func TestStatus_ReportsUsageAndDaysLeft(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	svc, subs, _ := newTestService(t, now)
	userID := uuid.New()
	sub := activeSub(subs, userID, now.Add(10*24*time.Hour))

	stored, _ := subs.FindByID(context.Background(), sub.ID)
	stored.TokensUsed = 40
	_ = subs.Update(context.Background(), stored)

	report, err := svc.Status(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Active {
		t.Fatal("report.Active = false")
	}
	if report.DaysLeft != 10 {
		t.Errorf("days_left = %d, want 10", report.DaysLeft)
	}
	for _, snap := range report.Usage {
		if snap.Resource == "tokens" && snap.Remaining != 60 {
			t.Errorf("tokens remaining = %d, want 60", snap.Remaining)
		}
	}
}

func TestStatus_NoSubscription(t *testing.T) {
	svc, _, _ := newTestService(t, time.Now())

	report, err := svc.Status(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if report.Active {
		t.Error("report.Active = true for user without subscription")
	}
}
