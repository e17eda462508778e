// Package payment ties plan purchases to the PayClick provider: it
// opens checkout sessions and applies webhook outcomes to subscriptions.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/repository"
	"github.com/medicothink/medicothink-backend/internal/subscription"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrPaymentNotFound  = errors.New("payment not found")
)

type Service struct {
	payments repository.PaymentRepository
	plans    repository.PlanRepository
	subs     *subscription.Service
	client   *PayClickClient
	baseURL  string
}

func NewService(payments repository.PaymentRepository, plans repository.PlanRepository, subs *subscription.Service, client *PayClickClient, baseURL string) *Service {
	return &Service{
		payments: payments,
		plans:    plans,
		subs:     subs,
		client:   client,
		baseURL:  baseURL,
	}
}

// Subscribe opens a checkout session for the plan and records a pending
// subscription plus payment awaiting the provider webhook.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, planID uint) (*dto.CheckoutResponse, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, subscription.ErrPlanNotFound
		}
		return nil, err
	}

	checkout, err := s.client.CreatePayment(ctx, plan.Price, plan.Currency,
		"MedicoThink "+plan.DisplayNameEn+" subscription",
		s.baseURL+"/payment/success", s.baseURL+"/payment/cancel",
		map[string]string{"user_id": userID.String(), "plan_id": fmt.Sprint(plan.ID)})
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.CreatePending(ctx, userID, plan.ID, checkout.ID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		UserID:         userID,
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Currency:       plan.Currency,
		Method:         "payclick",
		ProviderRef:    checkout.ID,
		Status:         models.PaymentPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	slog.Info("checkout created",
		"user_id", userID,
		"plan_id", plan.ID,
		"payment_id", payment.ID,
		"provider_ref", checkout.ID)

	return &dto.CheckoutResponse{
		SubscriptionID: sub.ID.String(),
		PaymentID:      payment.ID.String(),
		CheckoutURL:    checkout.CheckoutURL,
	}, nil
}

// HandleWebhook applies a provider callback. Completed payments activate
// the pending subscription; failures and refunds reject it. Replayed
// webhooks are idempotent because activation is.
func (s *Service) HandleWebhook(ctx context.Context, hook *dto.PayClickWebhook) error {
	fields := map[string]string{
		"payment_id": hook.PaymentID,
		"status":     hook.Status,
	}
	if hook.Amount != "" {
		fields["amount"] = hook.Amount
	}
	if hook.Currency != "" {
		fields["currency"] = hook.Currency
	}
	if hook.Timestamp != "" {
		fields["timestamp"] = hook.Timestamp
	}
	if !s.client.VerifySignature(fields, hook.Signature) {
		return ErrInvalidSignature
	}

	payment, err := s.payments.FindByProviderRef(ctx, hook.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	if err := s.payments.UpdateStatus(ctx, payment.ID, MapStatus(hook.Status)); err != nil {
		return err
	}

	switch MapStatus(hook.Status) {
	case models.PaymentCompleted:
		if _, err := s.subs.Activate(ctx, payment.SubscriptionID); err != nil {
			return err
		}
	case models.PaymentFailed, models.PaymentRefunded:
		if err := s.subs.Reject(ctx, payment.SubscriptionID); err != nil {
			return err
		}
	}

	slog.Info("payment webhook processed",
		"provider_ref", hook.PaymentID,
		"status", hook.Status)
	return nil
}
