package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/payment"
)

type WebhookHandler struct {
	payService *payment.Service
}

func NewWebhookHandler(payService *payment.Service) *WebhookHandler {
	return &WebhookHandler{payService: payService}
}

// HandlePayClick processes payment provider callbacks. Signature
// verification happens inside the payment service; bad signatures are
// rejected with 401 so the provider retries are visible in its logs.
func (h *WebhookHandler) HandlePayClick(c *fiber.Ctx) error {
	var hook dto.PayClickWebhook
	if err := c.BodyParser(&hook); err != nil || hook.PaymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.payService.HandleWebhook(c.Context(), &hook); err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			slog.Warn("webhook rejected: bad signature", "provider_ref", hook.PaymentID)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid signature",
			})
		case errors.Is(err, payment.ErrPaymentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Payment not found",
			})
		}
		slog.Error("webhook processing failed", "provider_ref", hook.PaymentID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
