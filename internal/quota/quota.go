// Package quota meters plan-limited resource consumption against the
// user's active subscription. All consumption goes through a single
// conditional update in the repository so concurrent requests can never
// push a counter past its limit.
package quota

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/repository"
)

// Metered resources.
const (
	ResourceTokens        = "tokens"
	ResourceImages        = "images"
	ResourceVideos        = "videos"
	ResourceConversations = "conversations"
)

// LimitExceededError is returned when a consumption attempt would push a
// counter past the plan limit. It carries the current state so handlers
// can render an upgrade prompt.
type LimitExceededError struct {
	Resource string
	Used     int64
	Limit    int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit reached (%d/%d)", e.Resource, e.Used, e.Limit)
}

// Result reports the outcome of a successful consumption.
type Result struct {
	Remaining int64
	Unlimited bool
}

type Ledger struct {
	subs repository.SubscriptionRepository
}

func NewLedger(subs repository.SubscriptionRepository) *Ledger {
	return &Ledger{subs: subs}
}

// TryConsume reserves amount units of resource on the subscription. It
// returns *LimitExceededError when the reservation would exceed the plan
// limit; the counter is left untouched in that case.
func (l *Ledger) TryConsume(ctx context.Context, sub *models.Subscription, resource string, amount int64) (*Result, error) {
	limit := sub.Plan.LimitFor(resource)
	used, applied, err := l.subs.ConsumeUsage(ctx, sub.ID, resource, amount, limit)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &LimitExceededError{Resource: resource, Used: used, Limit: limit}
	}
	if limit == models.UnlimitedLimit {
		return &Result{Unlimited: true}, nil
	}
	return &Result{Remaining: limit - used}, nil
}

// Refund returns previously consumed units, flooring at zero.
func (l *Ledger) Refund(ctx context.Context, subID uuid.UUID, resource string, amount int64) error {
	return l.subs.RefundUsage(ctx, subID, resource, amount)
}

// Snapshot describes the remaining allowance for one resource.
type Snapshot struct {
	Resource  string `json:"resource"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// Usage reports all four counters against their plan limits.
func Usage(sub *models.Subscription) []Snapshot {
	resources := []string{ResourceTokens, ResourceImages, ResourceVideos, ResourceConversations}
	out := make([]Snapshot, 0, len(resources))
	for _, res := range resources {
		limit := sub.Plan.LimitFor(res)
		used := sub.UsedFor(res)
		snap := Snapshot{Resource: res, Used: used, Limit: limit}
		if limit == models.UnlimitedLimit {
			snap.Unlimited = true
		} else {
			snap.Remaining = limit - used
			if snap.Remaining < 0 {
				snap.Remaining = 0
			}
		}
		out = append(out, snap)
	}
	return out
}
