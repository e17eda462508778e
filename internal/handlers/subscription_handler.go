package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/middleware"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/payment"
	"github.com/medicothink/medicothink-backend/internal/repository"
	"github.com/medicothink/medicothink-backend/internal/subscription"
)

type SubscriptionHandler struct {
	subService *subscription.Service
	payService *payment.Service
	plans      repository.PlanRepository
}

func NewSubscriptionHandler(subService *subscription.Service, payService *payment.Service, plans repository.PlanRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subService: subService, payService: payService, plans: plans}
}

func (h *SubscriptionHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.plans.ListActive(c.Context())
	if err != nil {
		return internalError(c)
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(&p))
	}
	return c.JSON(fiber.Map{"plans": out})
}

func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	report, err := h.subService.Status(c.Context(), userID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(report)
}

func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil || req.PlanID == 0 {
		return badRequest(c, "plan_id is required")
	}

	checkout, err := h.payService.Subscribe(c.Context(), userID, req.PlanID)
	if err != nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			return notFound(c, "plan not found")
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create checkout session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(checkout)
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	sub, err := h.subService.Cancel(c.Context(), userID)
	if err != nil {
		if errors.Is(err, subscription.ErrNoActiveSubscription) {
			return notFound(c, "no active subscription")
		}
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"message":    "auto-renewal disabled",
		"status":     sub.Status,
		"ends_at":    sub.EndsAt,
		"auto_renew": sub.AutoRenew,
	})
}

func toPlanResponse(p *models.SubscriptionPlan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:                 p.ID,
		Name:               p.Name,
		DisplayNameEn:      p.DisplayNameEn,
		DisplayNameAr:      p.DisplayNameAr,
		Price:              p.Price,
		Currency:           p.Currency,
		Duration:           p.Duration,
		TokensLimit:        p.TokensLimit,
		ImagesLimit:        p.ImagesLimit,
		VideosLimit:        p.VideosLimit,
		ConversationsLimit: p.ConversationsLimit,
		Features:           p.Features,
		IsPopular:          p.IsPopular,
	}
}
